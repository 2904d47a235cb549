package store

import (
	"context"
	"encoding/json"
	"time"

	bolt "github.com/boltdb/bolt"

	"cxls/internal/domain"
)

const (
	bucketName  = "ledger"
	snapshotKey = "snapshot"
)

// Bolt keeps the whole snapshot under a single key in an embedded
// BoltDB file. Bolt transactions give us the atomic whole-document
// replace the serializer relies on, with no external database process.
type Bolt struct {
	db *bolt.DB
}

func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{db: db}, nil
}

func (s *Bolt) Load() (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketName)).Get([]byte(snapshotKey))
		if v == nil {
			return nil
		}
		snap = &domain.Snapshot{}
		return json.Unmarshal(v, snap)
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Bolt) Replace(ctx context.Context, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(snapshotKey), data)
	})
}

func (s *Bolt) Close() error { return s.db.Close() }
