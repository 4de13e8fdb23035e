// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/pkg/errutil"
)

// In-memory repositories backing the full-lifecycle tests. They implement the
// same contracts as the PostgreSQL repositories, including duplicate and
// liveness semantics.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*auth.User // keyed by ID
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*auth.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return auth.ErrDuplicate
		}
	}
	clone := *user
	r.users[user.ID.String()] = &clone
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id.String()]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, auth.ErrNotFound
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		// exact, case-sensitive match
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (r *memUserRepo) UpdatePassword(_ context.Context, id ulid.ULID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id.String()]
	if !ok {
		return auth.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	return nil
}

type memRefreshRepo struct {
	mu     sync.Mutex
	byUser map[string]*auth.RefreshToken
}

func newMemRefreshRepo() *memRefreshRepo {
	return &memRefreshRepo{byUser: make(map[string]*auth.RefreshToken)}
}

func (r *memRefreshRepo) Upsert(_ context.Context, token *auth.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *token
	r.byUser[token.UserID.String()] = &clone
	return nil
}

func (r *memRefreshRepo) GetLiveByTokenHash(_ context.Context, tokenHash string) (*auth.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.byUser {
		if t.TokenHash == tokenHash && !t.IsExpired() {
			clone := *t
			return &clone, nil
		}
	}
	return nil, auth.ErrNotFound
}

type memResetRepo struct {
	mu     sync.Mutex
	tokens []*auth.ResetToken
}

func (r *memResetRepo) Create(_ context.Context, token *auth.ResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *token
	r.tokens = append(r.tokens, &clone)
	return nil
}

func (r *memResetRepo) GetLiveByTokenHash(_ context.Context, tokenHash string) (*auth.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.TokenHash == tokenHash && !t.IsExpired() {
			clone := *t
			return &clone, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (r *memResetRepo) DeleteByUser(_ context.Context, userID ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.tokens[:0]
	for _, t := range r.tokens {
		if t.UserID != userID {
			kept = append(kept, t)
		}
	}
	r.tokens = kept
	return nil
}

type captureMailer struct {
	tokens chan string
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{tokens: make(chan string, 4)}
}

func (m *captureMailer) SendPasswordReset(_ context.Context, _ string, token string) error {
	m.tokens <- token
	return nil
}

func (m *captureMailer) waitToken(t *testing.T) string {
	t.Helper()
	select {
	case token := <-m.tokens:
		return token
	case <-time.After(time.Second):
		t.Fatal("no reset mail dispatched")
		return ""
	}
}

type lifecycleFixture struct {
	service *auth.Service
	mailer  *captureMailer
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()

	users := newMemUserRepo()
	hasher := auth.NewBcryptHasher()
	mailer := newCaptureMailer()

	rotation, err := auth.NewRotationManager(testIssuer(t), newMemRefreshRepo())
	require.NoError(t, err)
	resets, err := auth.NewPasswordResetService(users, &memResetRepo{}, hasher, mailer, nil)
	require.NoError(t, err)
	service, err := auth.NewService(users, hasher, rotation, resets)
	require.NoError(t, err)

	return &lifecycleFixture{service: service, mailer: mailer}
}

func TestLifecycle_SignupLoginRefresh(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)

	require.NoError(t, f.service.Signup(ctx, "alice@example.com", "password123", "Alice"))

	// duplicate signup loses
	err := f.service.Signup(ctx, "alice@example.com", "otherpass", "Imposter")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, auth.CodeEmailInUse)

	// email comparison is case-sensitive, so this is a distinct account
	require.NoError(t, f.service.Signup(ctx, "Alice@example.com", "password123", "Other Alice"))

	login, err := f.service.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	// rotation-on-use: the redeemed token stops working, the new one works
	second, err := f.service.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, second.RefreshToken)

	_, err = f.service.Refresh(ctx, login.RefreshToken)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, auth.CodeInvalidCredentials)

	third, err := f.service.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, second.RefreshToken, third.RefreshToken)

	// a fresh login also displaces the live refresh token
	relogin, err := f.service.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	_, err = f.service.Refresh(ctx, third.RefreshToken)
	require.Error(t, err)
	_, err = f.service.Refresh(ctx, relogin.RefreshToken)
	require.NoError(t, err)
}

func TestLifecycle_ChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)

	require.NoError(t, f.service.Signup(ctx, "bob@example.com", "oldpass", "Bob"))
	login, err := f.service.Login(ctx, "bob@example.com", "oldpass")
	require.NoError(t, err)

	require.NoError(t, f.service.ChangePassword(ctx, login.UserID, "oldpass", "newpass"))

	_, err = f.service.Login(ctx, "bob@example.com", "oldpass")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, auth.CodeInvalidCredentials)

	_, err = f.service.Login(ctx, "bob@example.com", "newpass")
	require.NoError(t, err)
}

func TestLifecycle_ForgotAndResetPassword(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)

	require.NoError(t, f.service.Signup(ctx, "carol@example.com", "oldpass", "Carol"))

	// unknown and known emails acknowledge identically
	require.NoError(t, f.service.ForgotPassword(ctx, "nobody@example.com"))
	require.NoError(t, f.service.ForgotPassword(ctx, "carol@example.com"))

	token := f.mailer.waitToken(t)
	require.NoError(t, f.service.ResetPassword(ctx, "newpass", token))

	// the consumed token is gone
	err := f.service.ResetPassword(ctx, "again", token)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, auth.CodeResetTokenInvalid)

	_, err = f.service.Login(ctx, "carol@example.com", "oldpass")
	require.Error(t, err)
	_, err = f.service.Login(ctx, "carol@example.com", "newpass")
	require.NoError(t, err)
}
