// Package reviews provides document store operations for book reviews,
// enforcing one review per user per book and ownership on mutation.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"booknest/internal/database"
	"booknest/internal/entities"
)

var (
	ErrNotFound      = errors.New("review not found")
	ErrBookNotFound  = errors.New("book not found")
	ErrNotOwner      = errors.New("review belongs to another user")
	ErrInvalidRating = errors.New("valid book ID and rating (1-5) are required")
	ErrDuplicate     = errors.New("you have already reviewed this book")
)

// ListQuery filters the review listing; both fields are optional.
type ListQuery struct {
	BookID string
	UserID string
}

// Repository handles all review document operations.
type Repository struct {
	db *database.Database
}

// NewRepository creates a new reviews repository.
func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// List returns reviews matching the filters, newest first, each joined
// with reviewer and book summaries.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]entities.ReviewView, error) {
	filter := bson.M{}
	if q.BookID != "" {
		oid, err := primitive.ObjectIDFromHex(q.BookID)
		if err != nil {
			return []entities.ReviewView{}, nil
		}
		filter["bookId"] = oid
	}
	if q.UserID != "" {
		oid, err := primitive.ObjectIDFromHex(q.UserID)
		if err != nil {
			return []entities.ReviewView{}, nil
		}
		filter["userId"] = oid
	}

	cur, err := r.db.Reviews().Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	var docs []entities.Review
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}

	return r.decorate(ctx, docs)
}

// Create inserts a review after validating the rating range, the book's
// existence, and that the user has not already reviewed the book. The
// unique (bookId, userId) index backstops the duplicate pre-check.
func (r *Repository) Create(ctx context.Context, userID, bookID string, rating int, text string) (*entities.ReviewView, error) {
	if bookID == "" || rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	bookOID, err := primitive.ObjectIDFromHex(bookID)
	if err != nil {
		return nil, ErrBookNotFound
	}
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	count, err := r.db.Books().CountDocuments(ctx, bson.M{"_id": bookOID})
	if err != nil {
		return nil, fmt.Errorf("check book exists: %w", err)
	}
	if count == 0 {
		return nil, ErrBookNotFound
	}

	existing := r.db.Reviews().FindOne(ctx, bson.M{"bookId": bookOID, "userId": userOID})
	if existing.Err() == nil {
		return nil, ErrDuplicate
	}
	if !errors.Is(existing.Err(), mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("check existing review: %w", existing.Err())
	}

	now := time.Now().UTC()
	review := entities.Review{
		BookID:     bookOID,
		UserID:     userOID,
		Rating:     rating,
		ReviewText: text,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	res, err := r.db.Reviews().InsertOne(ctx, review)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert review: %w", err)
	}
	review.ID = res.InsertedID.(primitive.ObjectID)

	views, err := r.decorate(ctx, []entities.Review{review})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Update overwrites the provided fields after the ownership check;
// a nil rating or text leaves the stored value in place.
func (r *Repository) Update(ctx context.Context, id, userID string, rating *int, text *string) (*entities.ReviewView, error) {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, ErrInvalidRating
	}

	review, err := r.getDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.UserID.Hex() != userID {
		return nil, ErrNotOwner
	}

	now := time.Now().UTC()
	set := bson.M{"updatedAt": now}
	if rating != nil {
		review.Rating = *rating
		set["rating"] = *rating
	}
	if text != nil {
		review.ReviewText = *text
		set["reviewText"] = *text
	}
	if _, err := r.db.Reviews().UpdateByID(ctx, review.ID, bson.M{"$set": set}); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	review.UpdatedAt = now

	views, err := r.decorate(ctx, []entities.Review{*review})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Delete hard-deletes the review after the ownership check.
func (r *Repository) Delete(ctx context.Context, id, userID string) error {
	review, err := r.getDoc(ctx, id)
	if err != nil {
		return err
	}
	if review.UserID.Hex() != userID {
		return ErrNotOwner
	}

	if _, err := r.db.Reviews().DeleteOne(ctx, bson.M{"_id": review.ID}); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}

func (r *Repository) getDoc(ctx context.Context, id string) (*entities.Review, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var review entities.Review
	err = r.db.Reviews().FindOne(ctx, bson.M{"_id": oid}).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find review: %w", err)
	}
	return &review, nil
}

// decorate joins reviewer {id,name} and book {id,title,author}
// summaries onto a batch of review documents. Reviews whose book has
// been deleted keep an empty book embed until the reconciliation sweep
// collects them.
func (r *Repository) decorate(ctx context.Context, docs []entities.Review) ([]entities.ReviewView, error) {
	if len(docs) == 0 {
		return []entities.ReviewView{}, nil
	}

	userIDs := make([]primitive.ObjectID, 0, len(docs))
	bookIDs := make([]primitive.ObjectID, 0, len(docs))
	for _, rev := range docs {
		userIDs = append(userIDs, rev.UserID)
		bookIDs = append(bookIDs, rev.BookID)
	}

	reviewers := make(map[primitive.ObjectID]entities.ReviewerSummary)
	userCur, err := r.db.Users().Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, fmt.Errorf("find reviewers: %w", err)
	}
	var users []entities.User
	if err := userCur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode reviewers: %w", err)
	}
	for i := range users {
		reviewers[users[i].ID] = users[i].ReviewerView()
	}

	summaries := make(map[primitive.ObjectID]entities.BookSummary)
	bookCur, err := r.db.Books().Find(ctx, bson.M{"_id": bson.M{"$in": bookIDs}})
	if err != nil {
		return nil, fmt.Errorf("find reviewed books: %w", err)
	}
	var bookDocs []entities.Book
	if err := bookCur.All(ctx, &bookDocs); err != nil {
		return nil, fmt.Errorf("decode reviewed books: %w", err)
	}
	for i := range bookDocs {
		summaries[bookDocs[i].ID] = bookDocs[i].Summary()
	}

	views := make([]entities.ReviewView, 0, len(docs))
	for _, rev := range docs {
		view := rev.View()
		view.User = reviewers[rev.UserID]
		view.Book = summaries[rev.BookID]
		views = append(views, view)
	}
	return views, nil
}
