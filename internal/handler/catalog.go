// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/keygate/keygate/internal/catalog"
)

// CatalogService is the slice of the catalog service the HTTP layer uses.
type CatalogService interface {
	List(ctx context.Context, keyword string) ([]*catalog.Book, error)
	Create(ctx context.Context, title, description, author string, price float64, category catalog.Category) (*catalog.Book, error)
	Get(ctx context.Context, id ulid.ULID) (*catalog.Book, error)
	Update(ctx context.Context, book *catalog.Book) error
	Delete(ctx context.Context, id ulid.ULID) error
}

// BookRequest is the create/update payload for a book.
type BookRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Author      string  `json:"author" binding:"required"`
	Price       float64 `json:"price"`
	Category    string  `json:"category" binding:"required"`
}

// BookResponse is the JSON shape of a catalog entry.
type BookResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Author      string  `json:"author"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
}

// BookHandler serves the catalog routes.
type BookHandler struct {
	svc CatalogService
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(svc CatalogService) *BookHandler {
	return &BookHandler{svc: svc}
}

// List returns books, optionally filtered by the "keyword" query parameter
// matched against authors.
func (h *BookHandler) List(c *gin.Context) {
	books, err := h.svc.List(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]BookResponse, 0, len(books))
	for _, book := range books {
		out = append(out, toBookResponse(book))
	}
	c.JSON(http.StatusOK, out)
}

// Create stores a new book.
func (h *BookHandler) Create(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	book, err := h.svc.Create(c.Request.Context(), req.Title, req.Description, req.Author, req.Price, catalog.Category(req.Category))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookResponse(book))
}

// Get retrieves a book by ID.
func (h *BookHandler) Get(c *gin.Context) {
	id, err := ulid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid book id"})
		return
	}

	book, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookResponse(book))
}

// Update replaces the mutable fields of a book.
func (h *BookHandler) Update(c *gin.Context) {
	id, err := ulid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid book id"})
		return
	}

	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	book := &catalog.Book{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Author:      req.Author,
		Price:       req.Price,
		Category:    catalog.Category(req.Category),
	}
	if err := h.svc.Update(c.Request.Context(), book); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookResponse(book))
}

// Delete removes a book.
func (h *BookHandler) Delete(c *gin.Context) {
	id, err := ulid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid book id"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toBookResponse(book *catalog.Book) BookResponse {
	return BookResponse{
		ID:          book.ID.String(),
		Title:       book.Title,
		Description: book.Description,
		Author:      book.Author,
		Price:       book.Price,
		Category:    string(book.Category),
	}
}
