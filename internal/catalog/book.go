// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

// Package catalog provides the book catalog resource.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested book does not exist.
var ErrNotFound = errors.New("not found")

// Category classifies a book.
type Category string

// Known categories.
const (
	CategoryAdventure Category = "adventure"
	CategoryClassics  Category = "classics"
	CategoryCrime     Category = "crime"
	CategoryFantasy   Category = "fantasy"
)

// Book is a catalog entry.
type Book struct {
	ID          ulid.ULID
	Title       string
	Description string
	Author      string
	Price       float64
	Category    Category
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewBook creates a validated Book instance with a fresh ID.
func NewBook(title, description, author string, price float64, category Category) (*Book, error) {
	if title == "" {
		return nil, oops.Code("CATALOG_INVALID_BOOK").Errorf("title cannot be empty")
	}
	if author == "" {
		return nil, oops.Code("CATALOG_INVALID_BOOK").Errorf("author cannot be empty")
	}
	if price < 0 {
		return nil, oops.Code("CATALOG_INVALID_BOOK").
			With("price", price).
			Errorf("price cannot be negative")
	}

	now := time.Now()
	return &Book{
		ID:          ulid.Make(),
		Title:       title,
		Description: description,
		Author:      author,
		Price:       price,
		Category:    category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Repository manages book persistence.
type Repository interface {
	// List returns books, optionally filtered by a case-insensitive keyword
	// match on the author. An empty keyword returns everything.
	List(ctx context.Context, keyword string) ([]*Book, error)

	// Create stores a new book.
	Create(ctx context.Context, book *Book) error

	// GetByID retrieves a book by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id ulid.ULID) (*Book, error)

	// Update replaces the mutable fields of an existing book.
	Update(ctx context.Context, book *Book) error

	// Delete removes a book. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id ulid.ULID) error
}
