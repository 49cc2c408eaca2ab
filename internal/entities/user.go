package entities

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the persisted document in the "users" collection.
// Password holds the bcrypt hash and is empty for OAuth-only accounts.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// PublicUser is the API representation of a user. The password hash
// never leaves the auth package.
type PublicUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserSummary is the owner embed on book responses.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ReviewerSummary is the user embed on review responses.
type ReviewerSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Public converts the stored document to its API shape.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID.Hex(),
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// Summary returns the owner embed for book responses.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID.Hex(), Name: u.Name, Email: u.Email}
}

// ReviewerView returns the reviewer embed for review responses.
func (u *User) ReviewerView() ReviewerSummary {
	return ReviewerSummary{ID: u.ID.Hex(), Name: u.Name}
}
