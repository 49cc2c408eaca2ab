package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"booknest/internal/config"
	"booknest/internal/database"
)

// ReviewReconciler periodically removes reviews whose book no longer
// exists. Book deletion removes the book document first and its reviews
// second, so a crash between the two steps can leave orphans behind.
type ReviewReconciler struct {
	db     *database.Database
	config config.Reconcile

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSweeping bool
	cancelFunc context.CancelFunc
}

// NewReviewReconciler creates a new reconciler instance
func NewReviewReconciler(db *database.Database, cfg config.Reconcile) *ReviewReconciler {
	return &ReviewReconciler{
		db:     db,
		config: cfg,
		cron:   cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the reconciler if it is enabled
func (s *ReviewReconciler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		log.Printf("Review reconciler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runSweep()
	})
	if err != nil {
		return fmt.Errorf("invalid reconcile schedule '%s': %w", s.config.Schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Review reconciler: started with schedule '%s'", s.config.Schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the reconciler
func (s *ReviewReconciler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for a running sweep to complete
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron.Remove(s.entryID)

	// Release the watcher goroutine and the derived context
	if s.cancelFunc != nil {
		s.cancelFunc()
	}

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Review reconciler: stopped")
}

// RunNow triggers an immediate sweep
func (s *ReviewReconciler) RunNow() error {
	go s.runSweep()
	return nil
}

// IsRunning returns whether the reconciler is active
func (s *ReviewReconciler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSweeping returns whether a sweep is currently in progress
func (s *ReviewReconciler) IsSweeping() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSweeping
}

// GetNextRunTime returns when the next sweep will occur
func (s *ReviewReconciler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runSweep performs the actual orphan cleanup
func (s *ReviewReconciler) runSweep() {
	s.mu.Lock()
	if s.isSweeping {
		s.mu.Unlock()
		log.Printf("Review reconciler: sweep skipped (already in progress)")
		return
	}
	s.isSweeping = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSweeping = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	removed, err := s.Sweep(ctx)
	if err != nil {
		log.Printf("Review reconciler: sweep failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Review reconciler: removed %d orphaned review(s)", removed)
	}
}

// Sweep deletes every review that references a missing book and
// returns the number of reviews removed.
func (s *ReviewReconciler) Sweep(ctx context.Context) (int64, error) {
	rawIDs, err := s.db.Reviews().Distinct(ctx, "bookId", bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to collect review book IDs: %w", err)
	}
	if len(rawIDs) == 0 {
		return 0, nil
	}

	referenced := make([]primitive.ObjectID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		if id, ok := raw.(primitive.ObjectID); ok {
			referenced = append(referenced, id)
		}
	}

	cursor, err := s.db.Books().Find(ctx,
		bson.M{"_id": bson.M{"$in": referenced}},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to look up referenced books: %w", err)
	}

	existing := make(map[primitive.ObjectID]bool, len(referenced))
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			cursor.Close(ctx)
			return 0, fmt.Errorf("failed to decode book ID: %w", err)
		}
		existing[doc.ID] = true
	}
	if err := cursor.Err(); err != nil {
		cursor.Close(ctx)
		return 0, fmt.Errorf("failed to iterate books: %w", err)
	}
	cursor.Close(ctx)

	var orphaned []primitive.ObjectID
	for _, id := range referenced {
		if !existing[id] {
			orphaned = append(orphaned, id)
		}
	}
	if len(orphaned) == 0 {
		return 0, nil
	}

	result, err := s.db.Reviews().DeleteMany(ctx, bson.M{"bookId": bson.M{"$in": orphaned}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphaned reviews: %w", err)
	}
	return result.DeletedCount, nil
}
