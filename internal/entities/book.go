package entities

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Book is the persisted document in the "books" collection.
type Book struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Title         string             `bson:"title"`
	Author        string             `bson:"author"`
	Description   string             `bson:"description,omitempty"`
	Genre         string             `bson:"genre,omitempty"`
	PublishedYear int                `bson:"publishedYear,omitempty"`
	AddedBy       primitive.ObjectID `bson:"addedBy"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

// BookView is the API representation of a book, with its owner summary
// and the rating aggregates computed on read.
type BookView struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Author        string      `json:"author"`
	Description   string      `json:"description,omitempty"`
	Genre         string      `json:"genre,omitempty"`
	PublishedYear int         `json:"publishedYear,omitempty"`
	AddedBy       string      `json:"addedBy"`
	User          UserSummary `json:"user"`
	AvgRating     float64     `json:"avgRating"`
	ReviewCount   int         `json:"reviewCount"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// BookDetail is the single-book response: the book plus all of its
// reviews, newest first.
type BookDetail struct {
	BookView
	Reviews []ReviewView `json:"reviews"`
}

// BookSummary is the book embed on review responses.
type BookSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// Pagination describes an offset-paginated list response.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// View converts the stored document to its API shape. The caller fills
// in the owner summary and aggregates.
func (b *Book) View() BookView {
	return BookView{
		ID:            b.ID.Hex(),
		Title:         b.Title,
		Author:        b.Author,
		Description:   b.Description,
		Genre:         b.Genre,
		PublishedYear: b.PublishedYear,
		AddedBy:       b.AddedBy.Hex(),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

// Summary returns the book embed for review responses.
func (b *Book) Summary() BookSummary {
	return BookSummary{ID: b.ID.Hex(), Title: b.Title, Author: b.Author}
}
