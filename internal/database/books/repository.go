// Package books provides document store operations for the book
// catalog, including the rating aggregates computed on read.
package books

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"booknest/internal/database"
	"booknest/internal/entities"
)

var (
	ErrNotFound            = errors.New("book not found")
	ErrNotOwner            = errors.New("book belongs to another user")
	ErrTitleAuthorRequired = errors.New("title and author are required")
)

// Sort keys accepted by List. avgRating is not a stored field, so it
// is sorted in memory after the aggregates are computed.
var sortFields = map[string]string{
	"createdAt":     "createdAt",
	"title":         "title",
	"author":        "author",
	"publishedYear": "publishedYear",
}

const defaultLimit = 5

// ListQuery captures the filter, sort, and pagination parameters of a
// catalog listing.
type ListQuery struct {
	Search    string // case-insensitive substring match on title/author
	Genre     string // substring match; empty or "all" disables
	SortBy    string // createdAt|title|author|publishedYear|avgRating
	SortOrder string // asc|desc
	Page      int
	Limit     int
}

// Fields holds the caller-provided book attributes for create.
type Fields struct {
	Title         string
	Author        string
	Description   string
	Genre         string
	PublishedYear int
}

// Patch holds optional replacements for an update. Nil fields keep
// the stored value.
type Patch struct {
	Title         *string
	Author        *string
	Description   *string
	Genre         *string
	PublishedYear *int
}

// Repository handles all book document operations.
type Repository struct {
	db *database.Database
}

// NewRepository creates a new books repository.
func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// List returns one page of the catalog with owner summaries and rating
// aggregates, plus the pagination envelope.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]entities.BookView, entities.Pagination, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}

	filter := buildFilter(q)

	total, err := r.db.Books().CountDocuments(ctx, filter)
	if err != nil {
		return nil, entities.Pagination{}, fmt.Errorf("count books: %w", err)
	}

	pagination := entities.Pagination{
		Page:  q.Page,
		Limit: q.Limit,
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(q.Limit))),
	}

	var docs []entities.Book
	byRating := q.SortBy == "avgRating"

	opts := options.Find()
	if !byRating {
		opts.SetSort(bson.D{{Key: sortField(q.SortBy), Value: sortDirection(q.SortOrder)}})
		opts.SetSkip(int64((q.Page - 1) * q.Limit))
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := r.db.Books().Find(ctx, filter, opts)
	if err != nil {
		return nil, entities.Pagination{}, fmt.Errorf("list books: %w", err)
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, entities.Pagination{}, fmt.Errorf("decode books: %w", err)
	}

	views, err := r.decorate(ctx, docs)
	if err != nil {
		return nil, entities.Pagination{}, err
	}

	// Rating sort happens after aggregation since avgRating is derived,
	// so the whole filtered set is paginated in memory.
	if byRating {
		asc := sortDirection(q.SortOrder) == 1
		sort.SliceStable(views, func(i, j int) bool {
			if asc {
				return views[i].AvgRating < views[j].AvgRating
			}
			return views[i].AvgRating > views[j].AvgRating
		})
		views = pageSlice(views, q.Page, q.Limit)
	}

	return views, pagination, nil
}

// Get returns one book with its owner summary, all reviews newest
// first, and aggregates.
func (r *Repository) Get(ctx context.Context, id string) (*entities.BookDetail, error) {
	book, err := r.getDoc(ctx, id)
	if err != nil {
		return nil, err
	}

	view, err := r.decorate(ctx, []entities.Book{*book})
	if err != nil {
		return nil, err
	}

	reviews, err := r.reviewsForBook(ctx, book)
	if err != nil {
		return nil, err
	}

	return &entities.BookDetail{BookView: view[0], Reviews: reviews}, nil
}

// Create inserts a book owned by ownerID.
func (r *Repository) Create(ctx context.Context, ownerID string, f Fields) (*entities.BookView, error) {
	if strings.TrimSpace(f.Title) == "" || strings.TrimSpace(f.Author) == "" {
		return nil, ErrTitleAuthorRequired
	}

	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id %q: %w", ownerID, err)
	}

	now := time.Now().UTC()
	book := entities.Book{
		Title:         strings.TrimSpace(f.Title),
		Author:        strings.TrimSpace(f.Author),
		Description:   f.Description,
		Genre:         f.Genre,
		PublishedYear: f.PublishedYear,
		AddedBy:       owner,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	res, err := r.db.Books().InsertOne(ctx, book)
	if err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}
	book.ID = res.InsertedID.(primitive.ObjectID)

	views, err := r.decorate(ctx, []entities.Book{book})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Update overwrites the provided attributes after the ownership
// check; fields absent from the patch are preserved.
func (r *Repository) Update(ctx context.Context, id, ownerID string, p Patch) (*entities.BookView, error) {
	book, err := r.getDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	if book.AddedBy.Hex() != ownerID {
		return nil, ErrNotOwner
	}

	now := time.Now().UTC()
	set := bson.M{"updatedAt": now}
	if p.Title != nil {
		book.Title = *p.Title
		set["title"] = *p.Title
	}
	if p.Author != nil {
		book.Author = *p.Author
		set["author"] = *p.Author
	}
	if p.Description != nil {
		book.Description = *p.Description
		set["description"] = *p.Description
	}
	if p.Genre != nil {
		book.Genre = *p.Genre
		set["genre"] = *p.Genre
	}
	if p.PublishedYear != nil {
		book.PublishedYear = *p.PublishedYear
		set["publishedYear"] = *p.PublishedYear
	}

	if _, err := r.db.Books().UpdateByID(ctx, book.ID, bson.M{"$set": set}); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	book.UpdatedAt = now

	views, err := r.decorate(ctx, []entities.Book{*book})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Delete removes the book and then its reviews. The cascade is two
// explicit steps without a transaction; a crash in between leaves
// orphaned reviews for the reconciliation sweep to collect.
func (r *Repository) Delete(ctx context.Context, id, ownerID string) error {
	book, err := r.getDoc(ctx, id)
	if err != nil {
		return err
	}
	if book.AddedBy.Hex() != ownerID {
		return ErrNotOwner
	}

	if _, err := r.db.Books().DeleteOne(ctx, bson.M{"_id": book.ID}); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	res, err := r.db.Reviews().DeleteMany(ctx, bson.M{"bookId": book.ID})
	if err != nil {
		return fmt.Errorf("delete book reviews: %w", err)
	}
	if res.DeletedCount > 0 {
		log.Printf("Books: deleted %d reviews cascading from book %s", res.DeletedCount, id)
	}

	return nil
}

func (r *Repository) getDoc(ctx context.Context, id string) (*entities.Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var book entities.Book
	err = r.db.Books().FindOne(ctx, bson.M{"_id": oid}).Decode(&book)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find book: %w", err)
	}
	return &book, nil
}

// decorate joins owner summaries and computes rating aggregates for a
// batch of book documents.
func (r *Repository) decorate(ctx context.Context, docs []entities.Book) ([]entities.BookView, error) {
	if len(docs) == 0 {
		return []entities.BookView{}, nil
	}

	ownerIDs := make([]primitive.ObjectID, 0, len(docs))
	bookIDs := make([]primitive.ObjectID, 0, len(docs))
	for _, b := range docs {
		ownerIDs = append(ownerIDs, b.AddedBy)
		bookIDs = append(bookIDs, b.ID)
	}

	owners, err := r.ownersByID(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}

	ratings, err := r.ratingsByBook(ctx, bookIDs)
	if err != nil {
		return nil, err
	}

	views := make([]entities.BookView, 0, len(docs))
	for _, b := range docs {
		view := b.View()
		view.User = owners[b.AddedBy]
		view.AvgRating, view.ReviewCount = Aggregate(ratings[b.ID])
		views = append(views, view)
	}
	return views, nil
}

func (r *Repository) ownersByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]entities.UserSummary, error) {
	cur, err := r.db.Users().Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find book owners: %w", err)
	}

	var users []entities.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode book owners: %w", err)
	}

	owners := make(map[primitive.ObjectID]entities.UserSummary, len(users))
	for i := range users {
		owners[users[i].ID] = users[i].Summary()
	}
	return owners, nil
}

func (r *Repository) ratingsByBook(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID][]int, error) {
	cur, err := r.db.Reviews().Find(ctx, bson.M{"bookId": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"bookId": 1, "rating": 1}))
	if err != nil {
		return nil, fmt.Errorf("find book ratings: %w", err)
	}

	var reviews []entities.Review
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("decode book ratings: %w", err)
	}

	ratings := make(map[primitive.ObjectID][]int)
	for _, rev := range reviews {
		ratings[rev.BookID] = append(ratings[rev.BookID], rev.Rating)
	}
	return ratings, nil
}

func (r *Repository) reviewsForBook(ctx context.Context, book *entities.Book) ([]entities.ReviewView, error) {
	cur, err := r.db.Reviews().Find(ctx, bson.M{"bookId": book.ID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find book reviews: %w", err)
	}

	var docs []entities.Review
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode book reviews: %w", err)
	}

	reviewerIDs := make([]primitive.ObjectID, 0, len(docs))
	for _, rev := range docs {
		reviewerIDs = append(reviewerIDs, rev.UserID)
	}

	reviewers := make(map[primitive.ObjectID]entities.ReviewerSummary)
	if len(reviewerIDs) > 0 {
		cur, err := r.db.Users().Find(ctx, bson.M{"_id": bson.M{"$in": reviewerIDs}})
		if err != nil {
			return nil, fmt.Errorf("find reviewers: %w", err)
		}
		var users []entities.User
		if err := cur.All(ctx, &users); err != nil {
			return nil, fmt.Errorf("decode reviewers: %w", err)
		}
		for i := range users {
			reviewers[users[i].ID] = users[i].ReviewerView()
		}
	}

	views := make([]entities.ReviewView, 0, len(docs))
	for _, rev := range docs {
		view := rev.View()
		view.User = reviewers[rev.UserID]
		view.Book = book.Summary()
		views = append(views, view)
	}
	return views, nil
}

// Aggregate computes the arithmetic mean of the ratings rounded to one
// decimal place, and the review count. Both are zero with no reviews.
func Aggregate(ratings []int) (avg float64, count int) {
	if len(ratings) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	avg = float64(sum) / float64(len(ratings))
	return math.Round(avg*10) / 10, len(ratings)
}

func buildFilter(q ListQuery) bson.M {
	filter := bson.M{}

	if s := strings.TrimSpace(q.Search); s != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"author": re},
		}
	}

	if g := strings.TrimSpace(q.Genre); g != "" && g != "all" {
		filter["genre"] = primitive.Regex{Pattern: regexp.QuoteMeta(g), Options: "i"}
	}

	return filter
}

func sortField(sortBy string) string {
	if field, ok := sortFields[sortBy]; ok {
		return field
	}
	return "createdAt"
}

func sortDirection(order string) int {
	if order == "asc" {
		return 1
	}
	return -1
}

func pageSlice(views []entities.BookView, page, limit int) []entities.BookView {
	start := (page - 1) * limit
	if start >= len(views) {
		return []entities.BookView{}
	}
	end := start + limit
	if end > len(views) {
		end = len(views)
	}
	return views[start:end]
}
