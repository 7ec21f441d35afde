package sink

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/danielpatrickdp/latch/internal/symbol"
)

var boltBucket = []byte("binding_attempts")

// #region bolt-sink
// Bolt stores attempts in a Bolt key/value file under sequential
// big-endian keys, so iteration order is write order. Every write is
// its own transaction.
type Bolt struct {
	db *bolt.DB
}

// NewBolt opens a Bolt-backed sink at path.
func NewBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Bolt{db: db}, nil
}

func (s *Bolt) Write(a symbol.BindingAttempt) error {
	blob, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return b.Put(key, blob)
	})
}

// Flush is a no-op; writes commit immediately.
func (s *Bolt) Flush() error { return nil }

func (s *Bolt) Close() error {
	return s.db.Close()
}

// #endregion bolt-sink

// #region bolt-reader
// ReadBolt loads a trail written by Bolt, in write order.
func ReadBolt(path string) ([]symbol.BindingAttempt, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}
	defer db.Close()

	var attempts []symbol.BindingAttempt
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var a symbol.BindingAttempt
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("parse attempt: %w", err)
			}
			attempts = append(attempts, a)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

// #endregion bolt-reader
