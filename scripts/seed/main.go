package main

import (
	"context"
	"flag"
	"log"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/edutask-api/internal/bootstrap"
	"github.com/noah-isme/edutask-api/internal/repository"
	"github.com/noah-isme/edutask-api/internal/store"
	"github.com/noah-isme/edutask-api/pkg/config"
	"github.com/noah-isme/edutask-api/pkg/logger"
)

func main() {
	var (
		file     string
		force    bool
		password string
	)
	flag.StringVar(&file, "file", filepath.Join("scripts", "seed", "fixtures", "demo.json"), "Path to the JSON document fixture")
	flag.BoolVar(&force, "force", false, "Replace the document even when the store already holds one")
	flag.StringVar(&password, "password", "", "Password given to fixture users that carry no password_hash")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	repo, db, err := bootstrap.OpenDocumentRepository(ctx, cfg, nil)
	if err != nil {
		logr.Fatal("failed to open document store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	if db != nil {
		defer db.Close()
	}
	if cfg.Store.Driver == config.StoreDriverMemory {
		logr.Warn("memory store selected, the seeded document is lost when this command exits")
	}

	doc, err := repository.ReadDocumentFile(file)
	if err != nil {
		logr.Fatal("failed to read fixture", zap.Error(err))
	}
	hashed, err := bootstrap.HashMissingPasswords(&doc, password, bcrypt.DefaultCost)
	if err != nil {
		logr.Fatal("failed to hash passwords", zap.Error(err))
	}
	if hashed > 0 {
		logr.Info("assigned passwords", zap.Int("users", hashed))
	}

	docStore := store.New(repo, store.Options{
		DocumentID: cfg.Store.DocumentID,
		MaxRetries: cfg.Store.MaxRetries,
		Logger:     logr,
	})
	snap, seeded, err := bootstrap.SeedDocument(ctx, docStore, doc, force, logr)
	if err != nil {
		logr.Fatal("seed failed", zap.Error(err))
	}
	if !seeded {
		logr.Info("nothing to do, pass -force to replace the stored document", zap.Int64("version", snap.Version))
		return
	}
	logr.Info("seed complete", zap.String("file", file), zap.String("driver", cfg.Store.Driver), zap.Int64("version", snap.Version))
}
