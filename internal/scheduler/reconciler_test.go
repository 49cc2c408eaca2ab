package scheduler

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"booknest/internal/config"
	"booknest/internal/database"
	"booknest/internal/entities"
)

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()

	url := os.Getenv("BOOKNEST_TEST_MONGO_URL")
	if url == "" {
		t.Skip("BOOKNEST_TEST_MONGO_URL not set")
	}

	name := "booknest_test_" + strings.ToLower(strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.NewDatabase(context.Background(), config.Mongo{URL: url, Database: name})
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx := context.Background()
		_ = db.DB.Drop(ctx)
		_ = db.Close(ctx)
	})

	return db
}

func insertReview(t *testing.T, db *database.Database, bookID primitive.ObjectID) {
	t.Helper()
	_, err := db.Reviews().InsertOne(context.Background(), entities.Review{
		BookID:    bookID,
		UserID:    primitive.NewObjectID(),
		Rating:    4,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestReviewReconciler_Sweep(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// One live book with a review, plus two reviews pointing at books
	// that were never written (the interrupted-cascade case).
	res, err := db.Books().InsertOne(ctx, entities.Book{
		Title:     "Dune",
		Author:    "Frank Herbert",
		AddedBy:   primitive.NewObjectID(),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	liveBook := res.InsertedID.(primitive.ObjectID)

	insertReview(t, db, liveBook)
	insertReview(t, db, primitive.NewObjectID())
	insertReview(t, db, primitive.NewObjectID())

	reconciler := NewReviewReconciler(db, config.Reconcile{Enabled: true, Schedule: "* * * * *"})

	removed, err := reconciler.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	left, err := db.Reviews().CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), left)

	t.Run("second sweep finds nothing", func(t *testing.T) {
		removed, err := reconciler.Sweep(ctx)
		require.NoError(t, err)
		assert.Zero(t, removed)
	})
}

func TestReviewReconciler_Sweep_EmptyCollections(t *testing.T) {
	db := setupTestDB(t)

	reconciler := NewReviewReconciler(db, config.Reconcile{})
	removed, err := reconciler.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestReviewReconciler_Lifecycle(t *testing.T) {
	db := setupTestDB(t)

	t.Run("disabled reconciler does not start", func(t *testing.T) {
		reconciler := NewReviewReconciler(db, config.Reconcile{Enabled: false})
		require.NoError(t, reconciler.Start(context.Background()))
		assert.False(t, reconciler.IsRunning())
	})

	t.Run("start and stop", func(t *testing.T) {
		reconciler := NewReviewReconciler(db, config.Reconcile{Enabled: true, Schedule: "*/30 * * * *"})
		require.NoError(t, reconciler.Start(context.Background()))
		assert.True(t, reconciler.IsRunning())
		assert.NotNil(t, reconciler.GetNextRunTime())

		reconciler.Stop()
		assert.False(t, reconciler.IsRunning())
	})

	t.Run("stop is idempotent and allows restart", func(t *testing.T) {
		reconciler := NewReviewReconciler(db, config.Reconcile{Enabled: true, Schedule: "*/30 * * * *"})
		require.NoError(t, reconciler.Start(context.Background()))
		reconciler.Stop()
		reconciler.Stop()
		assert.False(t, reconciler.IsRunning())

		require.NoError(t, reconciler.Start(context.Background()))
		assert.True(t, reconciler.IsRunning())
		reconciler.Stop()
	})

	t.Run("invalid schedule is an error", func(t *testing.T) {
		reconciler := NewReviewReconciler(db, config.Reconcile{Enabled: true, Schedule: "not a schedule"})
		assert.Error(t, reconciler.Start(context.Background()))
	})
}
