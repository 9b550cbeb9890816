package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	directoryBucket = []byte("directory")
	documentKey     = []byte("document")
)

// BoltStore keeps the document under one key in a bbolt bucket.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBoltStore opens (or creates) the bbolt file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, storeFilePermissions, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(directoryBucket); err != nil {
			return fmt.Errorf("creating directory bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close releases the bbolt file lock.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Load reads the document key.
func (s *BoltStore) Load(_ context.Context) (*Document, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(directoryBucket)
		if bucket == nil {
			return fmt.Errorf("directory bucket not found")
		}
		// Bytes are only valid for the life of the transaction.
		if v := bucket.Get(documentKey); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return NewDocument(), nil
	}
	return decodeDocument(data)
}

// Replace writes the document key in one update transaction.
func (s *BoltStore) Replace(_ context.Context, doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(directoryBucket)
		if bucket == nil {
			return fmt.Errorf("directory bucket not found")
		}
		return bucket.Put(documentKey, data)
	})
}
