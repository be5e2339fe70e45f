// Package bootstrap opens the configured document store and loads fixtures
// into it. It is shared by the API server and the seed command.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/edutask-api/internal/domain"
	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/internal/repository"
	"github.com/noah-isme/edutask-api/internal/store"
	"github.com/noah-isme/edutask-api/pkg/config"
	"github.com/noah-isme/edutask-api/pkg/database"
)

// OpenDocumentRepository returns the repository selected by cfg.Store.Driver
// together with the SQL handle behind it. The handle is nil for the memory
// driver.
func OpenDocumentRepository(ctx context.Context, cfg *config.Config, observer repository.QueryObserver) (store.DocumentRepository, *sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		return repository.NewMemoryDocumentRepository(), nil, nil
	case config.StoreDriverPostgres:
		db, err = database.NewPostgres(ctx, cfg.Database)
	case config.StoreDriverSQLite:
		db, err = database.NewSQLite(ctx, cfg.SQLite)
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", cfg.Store.Driver, err)
	}

	repo := repository.NewDocumentRepository(db, observer)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return repo, db, nil
}

type seedTarget interface {
	Snapshot(ctx context.Context) (store.Snapshot, error)
	Replace(ctx context.Context, doc models.Document) (store.Snapshot, error)
}

// Seed loads the fixture at path into s. Unless force is set, a store that
// already holds a committed document is left untouched and Seed reports false.
func Seed(ctx context.Context, s seedTarget, path string, force bool, logger *zap.Logger) (store.Snapshot, bool, error) {
	doc, err := repository.ReadDocumentFile(path)
	if err != nil {
		return store.Snapshot{}, false, err
	}
	return SeedDocument(ctx, s, doc, force, logger)
}

// SeedDocument commits doc as the whole document under the same rules as Seed.
// A document breaking the cross-entity rules is rejected before anything is
// written.
func SeedDocument(ctx context.Context, s seedTarget, doc models.Document, force bool, logger *zap.Logger) (store.Snapshot, bool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := domain.ValidateDocument(doc); err != nil {
		return store.Snapshot{}, false, fmt.Errorf("invalid seed document: %w", err)
	}
	current, err := s.Snapshot(ctx)
	if err != nil {
		return store.Snapshot{}, false, err
	}
	if current.Version > 0 && !force {
		logger.Info("store already seeded", zap.Int64("version", current.Version))
		return current, false, nil
	}

	snap, err := s.Replace(ctx, doc)
	if err != nil {
		return current, false, fmt.Errorf("replace document: %w", err)
	}
	logger.Info("store seeded",
		zap.Int64("version", snap.Version),
		zap.Int("schools", len(doc.Schools)),
		zap.Int("users", len(doc.Users)),
		zap.Int("tasks", len(doc.Tasks)),
	)
	return snap, true, nil
}

// HashMissingPasswords gives every user without a password hash the bcrypt
// hash of password and returns how many users were changed.
func HashMissingPasswords(doc *models.Document, password string, cost int) (int, error) {
	if password == "" {
		return 0, nil
	}
	var hash []byte
	changed := 0
	for i := range doc.Users {
		if doc.Users[i].PasswordHash != "" {
			continue
		}
		if hash == nil {
			var err error
			hash, err = bcrypt.GenerateFromPassword([]byte(password), cost)
			if err != nil {
				return 0, fmt.Errorf("hash password: %w", err)
			}
		}
		doc.Users[i].PasswordHash = string(hash)
		changed++
	}
	return changed, nil
}
