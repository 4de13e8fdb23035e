// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

package catalog

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Service provides catalog operations over a Repository.
type Service struct {
	books Repository
}

// NewService creates a new Service.
func NewService(books Repository) (*Service, error) {
	if books == nil {
		return nil, oops.Code("CATALOG_CONFIG_INVALID").Errorf("book repository is required")
	}
	return &Service{books: books}, nil
}

// List returns books matching the optional author keyword.
func (s *Service) List(ctx context.Context, keyword string) ([]*Book, error) {
	return s.books.List(ctx, keyword)
}

// Create validates and stores a new book.
func (s *Service) Create(ctx context.Context, title, description, author string, price float64, category Category) (*Book, error) {
	book, err := NewBook(title, description, author, price, category)
	if err != nil {
		return nil, err
	}
	if err := s.books.Create(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// Get retrieves a book by ID.
func (s *Service) Get(ctx context.Context, id ulid.ULID) (*Book, error) {
	return s.books.GetByID(ctx, id)
}

// Update replaces the mutable fields of an existing book.
func (s *Service) Update(ctx context.Context, book *Book) error {
	return s.books.Update(ctx, book)
}

// Delete removes a book.
func (s *Service) Delete(ctx context.Context, id ulid.ULID) error {
	return s.books.Delete(ctx, id)
}
