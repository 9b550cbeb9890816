package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

const (
	storeDirPermissions  = 0750
	storeFilePermissions = 0600
)

// Store persists the directory document.
//
// Replace must be atomic: after a crash the next Load sees either the old
// document or the new one, never a partial write.
type Store interface {
	// Load returns the stored document, or an empty one if nothing is stored yet.
	// Returns ErrCorruptDocument if stored data cannot be parsed.
	Load(ctx context.Context) (*Document, error)

	// Replace durably overwrites the stored document.
	Replace(ctx context.Context, doc *Document) error
}

// FileStore keeps the document as an indented JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the JSON file at path.
// The file and its directory are created on the first Replace.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the canonical file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and parses the document file.
func (s *FileStore) Load(_ context.Context) (*Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return decodeDocument(data)
}

// Replace writes doc next to the canonical path, syncs it and renames it
// into place, so a crash leaves either the old file or the new one.
func (s *FileStore) Replace(_ context.Context, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, storeDirPermissions); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	if err := renameio.WriteFile(s.path, data, storeFilePermissions, renameio.WithTempDir(dir)); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	return nil
}

func decodeDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	doc.normalise()
	return &doc, nil
}
