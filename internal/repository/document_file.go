package repository

import (
	"fmt"
	"os"

	"github.com/noah-isme/edutask-api/internal/models"
)

// ReadDocumentFile decodes a JSON document fixture from disk.
func ReadDocumentFile(path string) (models.Document, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("read document file %s: %w", path, err)
	}
	doc, err := decodeDocument(payload)
	if err != nil {
		return models.Document{}, fmt.Errorf("decode document file %s: %w", path, err)
	}
	return doc, nil
}
