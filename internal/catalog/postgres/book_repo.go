// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

// Package postgres provides the PostgreSQL implementation of the catalog repository.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/keygate/keygate/internal/catalog"
)

// poolIface is the subset of pgxpool.Pool the repository uses. pgxmock's
// PgxPoolIface satisfies it, so repository tests run without a database.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// BookRepository implements catalog.Repository using PostgreSQL.
type BookRepository struct {
	pool poolIface
}

// NewBookRepository creates a new BookRepository.
func NewBookRepository(pool poolIface) *BookRepository {
	return &BookRepository{pool: pool}
}

// List returns books, optionally filtered by a case-insensitive keyword
// match on the author.
func (r *BookRepository) List(ctx context.Context, keyword string) ([]*catalog.Book, error) {
	var rows pgx.Rows
	var err error

	if keyword == "" {
		rows, err = r.pool.Query(ctx, `
			SELECT id, title, description, author, price, category, created_at, updated_at
			FROM books
			ORDER BY id
		`)
	} else {
		rows, err = r.pool.Query(ctx, `
			SELECT id, title, description, author, price, category, created_at, updated_at
			FROM books
			WHERE author ILIKE '%' || $1 || '%'
			ORDER BY id
		`, keyword)
	}
	if err != nil {
		return nil, oops.Code("BOOK_LIST_FAILED").
			With("operation", "query books").
			Wrap(err)
	}
	defer rows.Close()

	var books []*catalog.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("BOOK_LIST_FAILED").
			With("operation", "iterate books").
			Wrap(err)
	}
	return books, nil
}

// Create stores a new book.
func (r *BookRepository) Create(ctx context.Context, book *catalog.Book) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO books (id, title, description, author, price, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		book.ID.String(),
		book.Title,
		book.Description,
		book.Author,
		book.Price,
		string(book.Category),
		book.CreatedAt,
		book.UpdatedAt,
	)
	if err != nil {
		return oops.Code("BOOK_CREATE_FAILED").
			With("operation", "insert book").
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a book by ID.
func (r *BookRepository) GetByID(ctx context.Context, id ulid.ULID) (*catalog.Book, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, title, description, author, price, category, created_at, updated_at
		FROM books
		WHERE id = $1
	`, id.String())

	book, err := scanBook(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("BOOK_NOT_FOUND").
			With("id", id.String()).
			Wrap(catalog.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("BOOK_GET_FAILED").
			With("operation", "get book by id").
			With("id", id.String()).
			Wrap(err)
	}
	return book, nil
}

// Update replaces the mutable fields of an existing book.
func (r *BookRepository) Update(ctx context.Context, book *catalog.Book) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE books
		SET title = $2, description = $3, author = $4, price = $5, category = $6, updated_at = $7
		WHERE id = $1
	`,
		book.ID.String(),
		book.Title,
		book.Description,
		book.Author,
		book.Price,
		string(book.Category),
		time.Now(),
	)
	if err != nil {
		return oops.Code("BOOK_UPDATE_FAILED").
			With("operation", "update book").
			With("id", book.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("BOOK_NOT_FOUND").
			With("id", book.ID.String()).
			Wrap(catalog.ErrNotFound)
	}
	return nil
}

// Delete removes a book.
func (r *BookRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM books WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("BOOK_DELETE_FAILED").
			With("operation", "delete book").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("BOOK_NOT_FOUND").
			With("id", id.String()).
			Wrap(catalog.ErrNotFound)
	}
	return nil
}

func scanBook(row pgx.Row) (*catalog.Book, error) {
	var book catalog.Book
	var idStr, categoryStr string

	err := row.Scan(
		&idStr,
		&book.Title,
		&book.Description,
		&book.Author,
		&book.Price,
		&categoryStr,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	book.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("BOOK_CORRUPT_ID").
			With("id", idStr).
			Wrap(err)
	}
	book.Category = catalog.Category(categoryStr)
	return &book, nil
}
