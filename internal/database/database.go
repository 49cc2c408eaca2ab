package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"booknest/internal/config"
)

// Collection names
const (
	CollectionUsers   = "users"
	CollectionBooks   = "books"
	CollectionReviews = "reviews"
)

// Database holds the single client shared across all repositories.
// The connection is established once at startup, not per request.
type Database struct {
	Client *mongo.Client
	DB     *mongo.Database
}

func NewDatabase(ctx context.Context, cfg config.Mongo) (*Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	database := &Database{
		Client: client,
		DB:     client.Database(cfg.Database),
	}

	if err := database.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	// The URL can embed credentials, so only the database name is logged
	log.Printf("Database initialized successfully (database %q)", cfg.Database)

	return database, nil
}

func (d *Database) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}

// Ping verifies the connection is still alive, used by the health endpoint.
func (d *Database) Ping(ctx context.Context) error {
	return d.Client.Ping(ctx, nil)
}

func (d *Database) Users() *mongo.Collection   { return d.DB.Collection(CollectionUsers) }
func (d *Database) Books() *mongo.Collection   { return d.DB.Collection(CollectionBooks) }
func (d *Database) Reviews() *mongo.Collection { return d.DB.Collection(CollectionReviews) }

// ensureIndexes creates the uniqueness constraints the application
// relies on: one account per email and one review per (book, user)
// pair. The review index closes the race between the existence check
// and the insert.
func (d *Database) ensureIndexes(ctx context.Context) error {
	_, err := d.Users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users email index: %w", err)
	}

	_, err = d.Reviews().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "bookId", Value: 1}, {Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("reviews bookId+userId index: %w", err)
	}

	_, err = d.Reviews().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("reviews createdAt index: %w", err)
	}

	return nil
}
