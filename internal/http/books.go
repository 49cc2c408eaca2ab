package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"booknest/internal/auth"
	"booknest/internal/database/books"
	"booknest/internal/entities"
)

// BookStore is the subset of the books repository the controller needs.
type BookStore interface {
	List(ctx context.Context, q books.ListQuery) ([]entities.BookView, entities.Pagination, error)
	Get(ctx context.Context, id string) (*entities.BookDetail, error)
	Create(ctx context.Context, ownerID string, f books.Fields) (*entities.BookView, error)
	Update(ctx context.Context, id, ownerID string, p books.Patch) (*entities.BookView, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// BooksController handles the book catalogue endpoints.
type BooksController struct {
	store  BookStore
	tokens auth.TokenService
}

func NewBooksController(store BookStore, tokens auth.TokenService) *BooksController {
	return &BooksController{store: store, tokens: tokens}
}

// RegisterRoutes sets up the book endpoints. Reads are public,
// writes require a session.
func (bc *BooksController) RegisterRoutes(router *gin.Engine) {
	router.GET("/books", bc.List)
	router.GET("/books/:id", bc.Get)

	protected := router.Group("/books")
	protected.Use(auth.RequireSession(bc.tokens))
	{
		protected.POST("", bc.Create)
		protected.PUT("/:id", bc.Update)
		protected.DELETE("/:id", bc.Delete)
	}
}

type bookRequest struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Description   string `json:"description"`
	Genre         string `json:"genre"`
	PublishedYear int    `json:"publishedYear"`
}

func (r bookRequest) fields() books.Fields {
	return books.Fields{
		Title:         r.Title,
		Author:        r.Author,
		Description:   r.Description,
		Genre:         r.Genre,
		PublishedYear: r.PublishedYear,
	}
}

// bookPatchRequest distinguishes absent fields from zero values so an
// update only touches what the body provides.
type bookPatchRequest struct {
	Title         *string `json:"title"`
	Author        *string `json:"author"`
	Description   *string `json:"description"`
	Genre         *string `json:"genre"`
	PublishedYear *int    `json:"publishedYear"`
}

func (r bookPatchRequest) patch() books.Patch {
	return books.Patch{
		Title:         r.Title,
		Author:        r.Author,
		Description:   r.Description,
		Genre:         r.Genre,
		PublishedYear: r.PublishedYear,
	}
}

type bookListResponse struct {
	Books      []entities.BookView `json:"books"`
	Pagination entities.Pagination `json:"pagination"`
}

// List returns a paginated, filtered page of the catalogue.
func (bc *BooksController) List(c *gin.Context) {
	query := books.ListQuery{
		Search:    c.Query("search"),
		Genre:     c.Query("genre"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Page:      queryInt(c, "page", 1),
		Limit:     queryInt(c, "limit", 0),
	}

	views, pagination, err := bc.store.List(c.Request.Context(), query)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	c.JSON(http.StatusOK, bookListResponse{Books: views, Pagination: pagination})
}

// Get returns a single book with its reviews, newest first.
func (bc *BooksController) Get(c *gin.Context) {
	detail, err := bc.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, books.ErrNotFound) {
			respondNotFound(c, "Book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	c.JSON(http.StatusOK, detail)
}

// Create adds a book owned by the authenticated user.
func (bc *BooksController) Create(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	view, err := bc.store.Create(c.Request.Context(), GetUserID(c), req.fields())
	if err != nil {
		if errors.Is(err, books.ErrTitleAuthorRequired) {
			respondBadRequest(c, err.Error())
			return
		}
		respondInternalError(c, err, "create book")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Book created successfully", "book": view})
}

// Update overwrites the provided fields of a book the user owns;
// fields absent from the body are preserved.
func (bc *BooksController) Update(c *gin.Context) {
	var req bookPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	view, err := bc.store.Update(c.Request.Context(), c.Param("id"), GetUserID(c), req.patch())
	if err != nil {
		switch {
		case errors.Is(err, books.ErrNotFound):
			respondNotFound(c, "Book")
		case errors.Is(err, books.ErrNotOwner):
			respondForbidden(c, "you can only update your own books")
		default:
			respondInternalError(c, err, "update book")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Book updated successfully", "book": view})
}

// Delete removes a book the user owns along with its reviews.
func (bc *BooksController) Delete(c *gin.Context) {
	err := bc.store.Delete(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, books.ErrNotFound):
			respondNotFound(c, "Book")
		case errors.Is(err, books.ErrNotOwner):
			respondForbidden(c, "you can only delete your own books")
		default:
			respondInternalError(c, err, "delete book")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Book deleted successfully"})
}
