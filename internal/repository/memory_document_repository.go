package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/internal/store"
)

type memoryEntry struct {
	version int64
	payload []byte
}

// MemoryDocumentRepository keeps documents in process memory. Documents are
// stored serialized so no caller can alias committed state.
type MemoryDocumentRepository struct {
	mu   sync.RWMutex
	docs map[string]memoryEntry
}

// NewMemoryDocumentRepository constructs an empty repository.
func NewMemoryDocumentRepository() *MemoryDocumentRepository {
	return &MemoryDocumentRepository{docs: make(map[string]memoryEntry)}
}

// Load returns the document and its version, or an empty document at version 0.
func (r *MemoryDocumentRepository) Load(ctx context.Context, id string) (models.Document, int64, error) {
	r.mu.RLock()
	entry, ok := r.docs[id]
	r.mu.RUnlock()
	if !ok {
		return models.NewDocument(), 0, nil
	}
	doc, err := decodeDocument(entry.payload)
	if err != nil {
		return models.Document{}, 0, fmt.Errorf("decode document %s: %w", id, err)
	}
	return doc, entry.version, nil
}

// CompareAndSwap stores doc when the current version equals expected.
func (r *MemoryDocumentRepository) CompareAndSwap(ctx context.Context, id string, expected int64, doc models.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", id, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.docs[id].version != expected {
		return store.ErrVersionConflict
	}
	r.docs[id] = memoryEntry{version: expected + 1, payload: payload}
	return nil
}

func decodeDocument(payload []byte) (models.Document, error) {
	doc := models.NewDocument()
	if err := json.Unmarshal(payload, &doc); err != nil {
		return models.Document{}, err
	}
	normalizeDocument(&doc)
	return doc, nil
}

// normalizeDocument replaces nil collections left by older payloads.
func normalizeDocument(doc *models.Document) {
	empty := models.NewDocument()
	if doc.Schools == nil {
		doc.Schools = empty.Schools
	}
	if doc.Users == nil {
		doc.Users = empty.Users
	}
	if doc.Tasks == nil {
		doc.Tasks = empty.Tasks
	}
	if doc.Materials == nil {
		doc.Materials = empty.Materials
	}
	if doc.Quizzes == nil {
		doc.Quizzes = empty.Quizzes
	}
	if doc.Announcements == nil {
		doc.Announcements = empty.Announcements
	}
	if doc.Fees == nil {
		doc.Fees = empty.Fees
	}
	for i := range doc.Tasks {
		if doc.Tasks[i].Submissions == nil {
			doc.Tasks[i].Submissions = []models.Submission{}
		}
	}
}
