// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// AccessTokenTTL is the lifetime of a signed access token.
const AccessTokenTTL = 10 * time.Hour

// Claims are the access token claims: the owning user ID plus the
// registered time-bound claims.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// IssuerConfig holds the immutable signing configuration for an Issuer.
// It is constructed once at startup and never mutated.
type IssuerConfig struct {
	Secret []byte
}

// Issuer mints signed, time-bound access tokens.
type Issuer struct {
	secret []byte
}

// NewIssuer creates an Issuer from the given configuration.
func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").Errorf("signing secret is required")
	}
	return &Issuer{secret: cfg.Secret}, nil
}

// IssueAccessToken signs an HS256 access token carrying the user ID,
// valid for AccessTokenTTL from now.
func (i *Issuer) IssueAccessToken(userID ulid.ULID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenTTL)),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// ParseAccessToken verifies a signed access token and returns the user ID it
// was issued for. Expired or tampered tokens fail with AUTH_INVALID_CREDENTIALS.
func (i *Issuer) ParseAccessToken(tokenStr string) (ulid.ULID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, oops.Code("TOKEN_METHOD_INVALID").
				With("alg", t.Method.Alg()).
				Errorf("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return ulid.ULID{}, oops.Code(CodeInvalidCredentials).Errorf("invalid access token")
	}

	userID, err := ulid.Parse(claims.UserID)
	if err != nil {
		return ulid.ULID{}, oops.Code(CodeInvalidCredentials).Errorf("invalid access token")
	}
	return userID, nil
}
