// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/internal/catalog"
	"github.com/keygate/keygate/internal/handler"
)

type stubCatalogService struct {
	list   func(ctx context.Context, keyword string) ([]*catalog.Book, error)
	create func(ctx context.Context, title, description, author string, price float64, category catalog.Category) (*catalog.Book, error)
	get    func(ctx context.Context, id ulid.ULID) (*catalog.Book, error)
	update func(ctx context.Context, book *catalog.Book) error
	delete func(ctx context.Context, id ulid.ULID) error
}

func (s *stubCatalogService) List(ctx context.Context, keyword string) ([]*catalog.Book, error) {
	return s.list(ctx, keyword)
}

func (s *stubCatalogService) Create(ctx context.Context, title, description, author string, price float64, category catalog.Category) (*catalog.Book, error) {
	return s.create(ctx, title, description, author, price, category)
}

func (s *stubCatalogService) Get(ctx context.Context, id ulid.ULID) (*catalog.Book, error) {
	return s.get(ctx, id)
}

func (s *stubCatalogService) Update(ctx context.Context, book *catalog.Book) error {
	return s.update(ctx, book)
}

func (s *stubCatalogService) Delete(ctx context.Context, id ulid.ULID) error {
	return s.delete(ctx, id)
}

func catalogRouter(t *testing.T, svc handler.CatalogService) (string, http.Handler) {
	t.Helper()
	issuer, err := auth.NewIssuer(auth.IssuerConfig{Secret: []byte("test-secret")})
	require.NoError(t, err)
	router := handler.NewRouter(handler.RouterConfig{
		Auth:    handler.NewAuthHandler(&stubAuthService{}, nil),
		Books:   handler.NewBookHandler(svc),
		Parser:  issuer,
		Release: true,
	})

	access, err := issuer.IssueAccessToken(ulid.Make())
	require.NoError(t, err)
	return access, router
}

func TestBookHandler_List(t *testing.T) {
	t.Run("passes keyword query through", func(t *testing.T) {
		svc := &stubCatalogService{
			list: func(_ context.Context, keyword string) ([]*catalog.Book, error) {
				assert.Equal(t, "stevenson", keyword)
				return []*catalog.Book{{ID: ulid.Make(), Title: "Treasure Island", Author: "Robert Louis Stevenson", Category: catalog.CategoryAdventure}}, nil
			},
		}
		access, router := catalogRouter(t, svc)

		rec := doJSON(t, router, http.MethodGet, "/books?keyword=stevenson", "",
			map[string]string{"Authorization": "Bearer " + access})
		require.Equal(t, http.StatusOK, rec.Code)

		var books []handler.BookResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &books))
		require.Len(t, books, 1)
		assert.Equal(t, "Treasure Island", books[0].Title)
	})

	t.Run("requires authentication", func(t *testing.T) {
		svc := &stubCatalogService{
			list: func(context.Context, string) ([]*catalog.Book, error) {
				t.Fatal("service must not be called")
				return nil, nil
			},
		}
		_, router := catalogRouter(t, svc)

		rec := doJSON(t, router, http.MethodGet, "/books", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestBookHandler_Create(t *testing.T) {
	svc := &stubCatalogService{
		create: func(_ context.Context, title, _, author string, price float64, category catalog.Category) (*catalog.Book, error) {
			return catalog.NewBook(title, "", author, price, category)
		},
	}
	access, router := catalogRouter(t, svc)

	rec := doJSON(t, router, http.MethodPost, "/books",
		`{"title":"Treasure Island","author":"Robert Louis Stevenson","price":9.99,"category":"adventure"}`,
		map[string]string{"Authorization": "Bearer " + access})
	require.Equal(t, http.StatusCreated, rec.Code)

	var book handler.BookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &book))
	assert.NotEmpty(t, book.ID)
	assert.Equal(t, "adventure", book.Category)
}

func TestBookHandler_Get(t *testing.T) {
	bookID := ulid.Make()

	t.Run("found", func(t *testing.T) {
		svc := &stubCatalogService{
			get: func(_ context.Context, id ulid.ULID) (*catalog.Book, error) {
				assert.Equal(t, bookID, id)
				return &catalog.Book{ID: id, Title: "Treasure Island"}, nil
			},
		}
		access, router := catalogRouter(t, svc)

		rec := doJSON(t, router, http.MethodGet, "/books/"+bookID.String(), "",
			map[string]string{"Authorization": "Bearer " + access})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("absent maps to not found", func(t *testing.T) {
		svc := &stubCatalogService{
			get: func(context.Context, ulid.ULID) (*catalog.Book, error) {
				return nil, oops.Code("BOOK_NOT_FOUND").Wrap(catalog.ErrNotFound)
			},
		}
		access, router := catalogRouter(t, svc)

		rec := doJSON(t, router, http.MethodGet, "/books/"+bookID.String(), "",
			map[string]string{"Authorization": "Bearer " + access})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed ID rejected", func(t *testing.T) {
		svc := &stubCatalogService{
			get: func(context.Context, ulid.ULID) (*catalog.Book, error) {
				t.Fatal("service must not be called")
				return nil, nil
			},
		}
		access, router := catalogRouter(t, svc)

		rec := doJSON(t, router, http.MethodGet, "/books/not-a-ulid", "",
			map[string]string{"Authorization": "Bearer " + access})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestBookHandler_Delete(t *testing.T) {
	bookID := ulid.Make()
	svc := &stubCatalogService{
		delete: func(_ context.Context, id ulid.ULID) error {
			assert.Equal(t, bookID, id)
			return nil
		},
	}
	access, router := catalogRouter(t, svc)

	rec := doJSON(t, router, http.MethodDelete, "/books/"+bookID.String(), "",
		map[string]string{"Authorization": "Bearer " + access})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
