package siteindex

import (
	"context"
	"sync"
	"time"

	"github.com/hyperjump/blogsearch/internal/models"
	"go.uber.org/zap"
)

// PageLoader receives freshly loaded pages.
type PageLoader interface {
	Load(ctx context.Context, pages []*models.Page) error
}

// Syncer reloads the index from its source into a PageLoader.
// Concurrent calls to Sync are serialized.
type Syncer struct {
	loader *Loader
	target PageLoader
	logger *zap.Logger

	mu       sync.Mutex
	lastSync time.Time
	lastErr  error
}

// NewSyncer creates a syncer that loads from loader into target.
func NewSyncer(loader *Loader, target PageLoader, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{loader: loader, target: target, logger: logger}
}

// Source returns the index source.
func (s *Syncer) Source() string {
	return s.loader.Source()
}

// Sync loads the index and hands the pages to the target. It returns the page count.
// On failure the target keeps whatever it had.
func (s *Syncer) Sync(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pages, err := s.loader.Load(ctx)
	if err == nil {
		err = s.target.Load(ctx, pages)
	}
	s.lastErr = err
	if err != nil {
		s.logger.Error("index sync failed", zap.String("source", s.loader.Source()), zap.Error(err))
		return 0, err
	}
	s.lastSync = time.Now()
	return len(pages), nil
}

// LastSync returns when the last successful Sync finished. Zero before the first one.
func (s *Syncer) LastSync() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

// LastError returns the error of the most recent Sync, or nil.
func (s *Syncer) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
