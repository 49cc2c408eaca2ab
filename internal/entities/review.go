package entities

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is the persisted document in the "reviews" collection.
// At most one review exists per (bookId, userId) pair, enforced by a
// unique compound index.
type Review struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	BookID     primitive.ObjectID `bson:"bookId"`
	UserID     primitive.ObjectID `bson:"userId"`
	Rating     int                `bson:"rating"`
	ReviewText string             `bson:"reviewText,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
}

// ReviewView is the API representation of a review, joined with its
// reviewer and book summaries.
type ReviewView struct {
	ID         string          `json:"id"`
	BookID     string          `json:"bookId"`
	UserID     string          `json:"userId"`
	Rating     int             `json:"rating"`
	ReviewText string          `json:"reviewText,omitempty"`
	User       ReviewerSummary `json:"user"`
	Book       BookSummary     `json:"book"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// View converts the stored document to its API shape. The caller fills
// in the reviewer and book summaries.
func (r *Review) View() ReviewView {
	return ReviewView{
		ID:         r.ID.Hex(),
		BookID:     r.BookID.Hex(),
		UserID:     r.UserID.Hex(),
		Rating:     r.Rating,
		ReviewText: r.ReviewText,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
