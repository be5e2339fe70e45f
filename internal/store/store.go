// Package store owns the mutable slot holding the entity document. Commands
// are pure snapshot transitions; Store serializes them and commits each result
// as a whole-document compare-and-swap.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edutask-api/internal/models"
	appErrors "github.com/noah-isme/edutask-api/pkg/errors"
)

// ErrVersionConflict is returned by repositories when the stored version moved.
var ErrVersionConflict = errors.New("document version conflict")

// DocumentRepository persists the document under an id together with a
// monotonically increasing version. Load returns version 0 when nothing is stored.
type DocumentRepository interface {
	Load(ctx context.Context, id string) (models.Document, int64, error)
	CompareAndSwap(ctx context.Context, id string, expected int64, doc models.Document) error
}

// Observer receives store level measurements.
type Observer interface {
	ObserveStoreMutation(outcome string, attempts int, duration time.Duration)
	ObserveStoreRead(duration time.Duration)
}

// Snapshot is a committed document and its version.
type Snapshot struct {
	Document models.Document
	Version  int64
}

// MutateFunc turns the current document into the next one. It must not keep
// references to the document it receives.
type MutateFunc func(doc models.Document) (models.Document, error)

// Options tune a Store.
type Options struct {
	DocumentID string
	MaxRetries int
	Logger     *zap.Logger
	Observer   Observer
}

// Store serializes writers within the process and uses versioned swaps so
// that writers in other processes sharing the repository never overwrite each
// other.
type Store struct {
	repo       DocumentRepository
	documentID string
	maxRetries int
	logger     *zap.Logger
	observer   Observer

	mu sync.Mutex
}

// New constructs a Store.
func New(repo DocumentRepository, opts Options) *Store {
	if opts.DocumentID == "" {
		opts.DocumentID = "default"
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Store{
		repo:       repo,
		documentID: opts.DocumentID,
		maxRetries: opts.MaxRetries,
		logger:     opts.Logger,
		observer:   opts.Observer,
	}
}

// Snapshot returns a private copy of the committed document.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	start := time.Now()
	doc, version, err := s.repo.Load(ctx, s.documentID)
	if s.observer != nil {
		s.observer.ObserveStoreRead(time.Since(start))
	}
	if err != nil {
		return Snapshot{}, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to load document")
	}
	return Snapshot{Document: doc.Clone(), Version: version}, nil
}

// Mutate applies fn to the latest document and commits the result. Errors
// returned by fn are passed through unchanged and nothing is written. When
// another writer commits first the mutation is re-applied to the new document.
func (s *Store) Mutate(ctx context.Context, fn MutateFunc) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		doc, version, err := s.repo.Load(ctx, s.documentID)
		if err != nil {
			s.observe("error", attempt, start)
			return Snapshot{}, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to load document")
		}

		next, err := fn(doc.Clone())
		if err != nil {
			s.observe("rejected", attempt, start)
			return Snapshot{}, err
		}

		err = s.repo.CompareAndSwap(ctx, s.documentID, version, next)
		if err == nil {
			s.observe("committed", attempt, start)
			return Snapshot{Document: next.Clone(), Version: version + 1}, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			s.observe("error", attempt, start)
			return Snapshot{}, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to commit document")
		}
		s.logger.Debug("document version moved, retrying",
			zap.String("document_id", s.documentID),
			zap.Int64("version", version),
			zap.Int("attempt", attempt),
		)
	}

	s.observe("conflict", s.maxRetries, start)
	s.logger.Warn("document commit retries exhausted", zap.String("document_id", s.documentID), zap.Int("attempts", s.maxRetries))
	return Snapshot{}, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("document changed concurrently, gave up after %d attempts", s.maxRetries))
}

// Replace overwrites the document regardless of its current content. It is
// used to load fixtures.
func (s *Store) Replace(ctx context.Context, doc models.Document) (Snapshot, error) {
	return s.Mutate(ctx, func(models.Document) (models.Document, error) {
		return doc.Clone(), nil
	})
}

// Ping reports whether the backing repository is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.Snapshot(ctx)
	return err
}

func (s *Store) observe(outcome string, attempts int, start time.Time) {
	if s.observer != nil {
		s.observer.ObserveStoreMutation(outcome, attempts, time.Since(start))
	}
}
