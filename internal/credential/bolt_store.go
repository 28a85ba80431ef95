package credential

import (
	"context"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var (
	boltBucket = []byte("credential")
	boltKey    = []byte("record")
)

// BoltStore persists the credential record in an embedded bbolt database on
// the device. The single-key write inside one transaction gives the atomic
// credential+identity replacement the state machine relies on.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (or creates) the database file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create credential bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Load(ctx context.Context) (*Record, error) {
	var record *Record
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(boltBucket).Get(boltKey)
		if raw == nil {
			return nil
		}
		record = &Record{}
		return json.Unmarshal(raw, record)
	})
	if err != nil {
		return nil, fmt.Errorf("load credential record: %w", err)
	}
	return record, nil
}

func (s *BoltStore) Save(ctx context.Context, record Record) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal credential record: %w", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put(boltKey, raw)
	})
	if err != nil {
		return fmt.Errorf("save credential record: %w", err)
	}
	return nil
}

var _ Store = (*BoltStore)(nil)
