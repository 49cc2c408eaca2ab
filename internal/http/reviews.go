package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"booknest/internal/auth"
	"booknest/internal/database/reviews"
	"booknest/internal/entities"
)

// ReviewStore is the subset of the reviews repository the controller needs.
type ReviewStore interface {
	List(ctx context.Context, q reviews.ListQuery) ([]entities.ReviewView, error)
	Create(ctx context.Context, userID, bookID string, rating int, text string) (*entities.ReviewView, error)
	Update(ctx context.Context, id, userID string, rating *int, text *string) (*entities.ReviewView, error)
	Delete(ctx context.Context, id, userID string) error
}

// ReviewsController handles the review endpoints.
type ReviewsController struct {
	store  ReviewStore
	tokens auth.TokenService
}

func NewReviewsController(store ReviewStore, tokens auth.TokenService) *ReviewsController {
	return &ReviewsController{store: store, tokens: tokens}
}

// RegisterRoutes sets up the review endpoints. Listing is public,
// writes require a session.
func (rc *ReviewsController) RegisterRoutes(router *gin.Engine) {
	router.GET("/reviews", rc.List)

	protected := router.Group("/reviews")
	protected.Use(auth.RequireSession(rc.tokens))
	{
		protected.POST("", rc.Create)
		protected.PUT("/:id", rc.Update)
		protected.DELETE("/:id", rc.Delete)
	}
}

type reviewRequest struct {
	BookID     string `json:"bookId"`
	Rating     int    `json:"rating"`
	ReviewText string `json:"reviewText"`
}

// reviewPatchRequest distinguishes absent fields from zero values so
// an update only touches what the body provides.
type reviewPatchRequest struct {
	Rating     *int    `json:"rating"`
	ReviewText *string `json:"reviewText"`
}

// List returns reviews, optionally filtered by book and/or reviewer.
func (rc *ReviewsController) List(c *gin.Context) {
	query := reviews.ListQuery{
		BookID: c.Query("bookId"),
		UserID: c.Query("userId"),
	}

	views, err := rc.store.List(c.Request.Context(), query)
	if err != nil {
		respondInternalError(c, err, "list reviews")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": views})
}

// Create adds a review by the authenticated user. A user can review
// a given book at most once.
func (rc *ReviewsController) Create(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, reviews.ErrInvalidRating.Error())
		return
	}

	view, err := rc.store.Create(c.Request.Context(), GetUserID(c), req.BookID, req.Rating, req.ReviewText)
	if err != nil {
		switch {
		case errors.Is(err, reviews.ErrInvalidRating), errors.Is(err, reviews.ErrDuplicate):
			respondBadRequest(c, err.Error())
		case errors.Is(err, reviews.ErrBookNotFound):
			respondNotFound(c, "Book")
		default:
			respondInternalError(c, err, "create review")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review added successfully", "review": view})
}

// Update changes the rating or text of a review the user owns;
// fields absent from the body are preserved.
func (rc *ReviewsController) Update(c *gin.Context) {
	var req reviewPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, reviews.ErrInvalidRating.Error())
		return
	}

	view, err := rc.store.Update(c.Request.Context(), c.Param("id"), GetUserID(c), req.Rating, req.ReviewText)
	if err != nil {
		switch {
		case errors.Is(err, reviews.ErrNotFound):
			respondNotFound(c, "Review")
		case errors.Is(err, reviews.ErrNotOwner):
			respondForbidden(c, "you can only update your own reviews")
		case errors.Is(err, reviews.ErrInvalidRating):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, err, "update review")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review updated successfully", "review": view})
}

// Delete removes a review the user owns.
func (rc *ReviewsController) Delete(c *gin.Context) {
	err := rc.store.Delete(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, reviews.ErrNotFound):
			respondNotFound(c, "Review")
		case errors.Is(err, reviews.ErrNotOwner):
			respondForbidden(c, "you can only delete your own reviews")
		default:
			respondInternalError(c, err, "delete review")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review deleted successfully"})
}
