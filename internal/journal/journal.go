// Package journal keeps a local history of vault persistence operations in a
// bbolt database under the configuration root.
//
// The journal is advisory: a failure to record an operation never changes the
// outcome of the operation itself.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/crownix/vault/internal/domain"
)

// OperationsBucket holds one JSON record per operation keyed by sequence.
var OperationsBucket = []byte("operations")

// ErrClosed is returned when the journal has been closed.
var ErrClosed = errors.New("journal is closed")

// Recorder accepts operation records.
type Recorder interface {
	Record(op domain.Operation) error
}

// Nop discards every record.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(domain.Operation) error { return nil }

// Journal is a bbolt-backed Recorder.
type Journal struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens or creates the journal database at path.
func Open(path string, timeout time.Duration) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(OperationsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize journal: %w", err)
	}

	return &Journal{db: db, now: time.Now}, nil
}

// Record appends op. A zero timestamp is set to the current UTC time.
func (j *Journal) Record(op domain.Operation) error {
	if j == nil || j.db == nil {
		return ErrClosed
	}
	if op.Timestamp.IsZero() {
		op.Timestamp = j.now().UTC()
	}

	return j.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(OperationsBucket)
		if bucket == nil {
			return fmt.Errorf("journal bucket not found")
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate journal sequence: %w", err)
		}
		op.Seq = seq

		payload, err := json.Marshal(op)
		if err != nil {
			return fmt.Errorf("failed to encode journal entry: %w", err)
		}

		return bucket.Put(seqKey(seq), payload)
	})
}

// List returns up to limit records, newest first. A limit of zero or less
// returns every record.
func (j *Journal) List(limit int) ([]domain.Operation, error) {
	if j == nil || j.db == nil {
		return nil, ErrClosed
	}

	var ops []domain.Operation
	err := j.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(OperationsBucket)
		if bucket == nil {
			return fmt.Errorf("journal bucket not found")
		}

		c := bucket.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(ops) >= limit {
				break
			}

			var op domain.Operation
			if err := json.Unmarshal(v, &op); err != nil {
				return fmt.Errorf("failed to decode journal entry %d: %w", binary.BigEndian.Uint64(k), err)
			}
			ops = append(ops, op)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ops, nil
}

// Close releases the database file.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
