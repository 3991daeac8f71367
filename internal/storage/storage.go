// Package storage provides the ingestion archive for the exoplanet classifier.
// It uses BoltDB as the underlying storage engine and keeps one bucket per
// mission dataset. Every accepted ingestion batch is stored as a single
// record keyed by arrival time, so batches can be listed in time order.
//
// The archive is an acknowledgement log. Records are stored exactly as they
// were echoed to the caller and are never read back into the prediction path.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

// FileName is the archive file created under the data path.
const FileName = "exoclass-ingest.db"

// ErrUnknownDataset is returned for a dataset without a bucket.
var ErrUnknownDataset = errors.New("unknown dataset")

// Batch is one archived ingestion request.
type Batch struct {
	ID         string          `json:"id"`
	Dataset    string          `json:"dataset"`
	ReceivedAt time.Time       `json:"received_at"`
	Count      int             `json:"count"`
	Records    json.RawMessage `json:"records"`
}

// Store persists ingestion batches using BoltDB.
type Store struct {
	db       *bbolt.DB
	datasets []string
}

// New opens (or creates) the archive under dataPath with a bucket for every
// dataset name.
func New(dataPath string, datasets ...string) (*Store, error) {
	dbPath := filepath.Join(dataPath, FileName)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range datasets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, datasets: append([]string(nil), datasets...)}, nil
}

// Close closes the database. It is safe to call more than once.
func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Path returns the archive file path.
func (s *Store) Path() string {
	if s.db == nil {
		return ""
	}
	return s.db.Path()
}

// Archive stores records as a new batch of dataset. records must marshal to
// a JSON array; count is recorded as given.
func (s *Store) Archive(dataset string, records any, count int) (Batch, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return Batch{}, fmt.Errorf("marshal records: %w", err)
	}

	batch := Batch{
		ID:         uuid.NewString(),
		Dataset:    dataset,
		ReceivedAt: time.Now().UTC(),
		Count:      count,
		Records:    data,
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(dataset))
		if b == nil {
			return fmt.Errorf("%w: %s", ErrUnknownDataset, dataset)
		}

		value, err := json.Marshal(batch)
		if err != nil {
			return fmt.Errorf("marshal batch: %w", err)
		}
		return b.Put(batchKey(batch.ReceivedAt, batch.ID), value)
	})
	if err != nil {
		return Batch{}, err
	}
	return batch, nil
}

// Batches returns the batches of dataset received within [start, end], in
// arrival order.
func (s *Store) Batches(dataset string, start, end time.Time) ([]Batch, error) {
	var batches []Batch

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(dataset))
		if b == nil {
			return fmt.Errorf("%w: %s", ErrUnknownDataset, dataset)
		}
		c := b.Cursor()

		startKey := timeKey(start)
		endKey := timeKey(end)

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k[:len(endKey)], endKey) <= 0; k, v = c.Next() {
			var batch Batch
			if err := json.Unmarshal(v, &batch); err != nil {
				continue // Skip malformed records
			}
			batches = append(batches, batch)
		}
		return nil
	})

	return batches, err
}

// Stats returns the number of archived batches per dataset.
func (s *Store) Stats() (map[string]int, error) {
	stats := make(map[string]int, len(s.datasets))
	err := s.db.View(func(tx *bbolt.Tx) error {
		for _, name := range s.datasets {
			b := tx.Bucket([]byte(name))
			if b == nil {
				continue
			}
			stats[name] = b.Stats().KeyN
		}
		return nil
	})
	return stats, err
}

// timeKey is the fixed-width, lexically ordered prefix of a batch key.
// Times before the Unix epoch map to the epoch.
func timeKey(t time.Time) []byte {
	ns := int64(0)
	if t.After(time.Unix(0, 0)) {
		ns = t.UnixNano()
	}
	return []byte(fmt.Sprintf("%020d", ns))
}

func batchKey(t time.Time, id string) []byte {
	return append(timeKey(t), []byte("_"+id)...)
}
