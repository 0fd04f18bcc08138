package volunteering

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned when no opportunity carries the requested id.
var ErrNotFound = errors.New("volunteering: act not found")

// Store persists the opportunity catalogue.
type Store interface {
	List(ctx context.Context) ([]Opportunity, error)
	Get(ctx context.Context, id uint64) (Opportunity, error)
	// Update loads the record, lets fn mutate it and persists the result
	// atomically. An error from fn aborts without writing.
	Update(ctx context.Context, id uint64, fn func(*Opportunity) error) (Opportunity, error)
	// Put inserts or replaces records by id.
	Put(ctx context.Context, ops ...Opportunity) error
	Close() error
}

// FileStore keeps the catalogue as one indented JSON array, the layout the
// web front end reads.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore opens path, creating an empty catalogue when it is missing.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("volunteering: store path required")
	}
	s := &FileStore{path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		if err := s.write([]Opportunity{}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) List(ctx context.Context) ([]Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) Get(ctx context.Context, id uint64) (Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops, err := s.read()
	if err != nil {
		return Opportunity{}, err
	}
	idx := indexOf(ops, id)
	if idx < 0 {
		return Opportunity{}, ErrNotFound
	}
	return ops[idx], nil
}

func (s *FileStore) Update(ctx context.Context, id uint64, fn func(*Opportunity) error) (Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops, err := s.read()
	if err != nil {
		return Opportunity{}, err
	}
	idx := indexOf(ops, id)
	if idx < 0 {
		return Opportunity{}, ErrNotFound
	}
	updated := ops[idx]
	if err := fn(&updated); err != nil {
		return Opportunity{}, err
	}
	updated.ID = id
	ops[idx] = updated
	if err := s.write(ops); err != nil {
		return Opportunity{}, err
	}
	return updated, nil
}

func (s *FileStore) Put(ctx context.Context, records ...Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops, err := s.read()
	if err != nil {
		return err
	}
	for _, rec := range records {
		if idx := indexOf(ops, rec.ID); idx >= 0 {
			ops[idx] = rec
		} else {
			ops = append(ops, rec)
		}
	}
	return s.write(ops)
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) read() ([]Opportunity, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var ops []Opportunity
	if err := json.Unmarshal(raw, &ops); err != nil {
		return nil, fmt.Errorf("volunteering: decode %s: %w", s.path, err)
	}
	if ops == nil {
		ops = []Opportunity{}
	}
	return ops, nil
}

// write replaces the file through a rename so readers never see a partial
// document.
func (s *FileStore) write(ops []Opportunity) error {
	raw, err := json.MarshalIndent(ops, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".opportunities-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func indexOf(ops []Opportunity, id uint64) int {
	for i := range ops {
		if ops[i].ID == id {
			return i
		}
	}
	return -1
}

var bucketOpportunities = []byte("opportunities")

// BoltStore keeps one JSON record per opportunity keyed by big-endian id.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (and migrates) the Bolt database at path.
func NewBoltStore(path string, options *bolt.Options) (*BoltStore, error) {
	if options == nil {
		options = &bolt.Options{Timeout: time.Second}
	} else if options.Timeout == 0 {
		options.Timeout = time.Second
	}
	db, err := bolt.Open(path, 0o600, options)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketOpportunities)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) List(ctx context.Context) ([]Opportunity, error) {
	// Keys are big-endian so ForEach yields id order.
	ops := []Opportunity{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketOpportunities).ForEach(func(_, v []byte) error {
			var op Opportunity
			if err := json.Unmarshal(v, &op); err != nil {
				return err
			}
			ops = append(ops, op)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ops, nil
}

func (s *BoltStore) Get(ctx context.Context, id uint64) (Opportunity, error) {
	var op Opportunity
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketOpportunities).Get(boltKey(id))
		if raw == nil {
			return ErrNotFound
		}
		return json.Unmarshal(raw, &op)
	})
	return op, err
}

func (s *BoltStore) Update(ctx context.Context, id uint64, fn func(*Opportunity) error) (Opportunity, error) {
	var op Opportunity
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketOpportunities)
		raw := bucket.Get(boltKey(id))
		if raw == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(raw, &op); err != nil {
			return err
		}
		if err := fn(&op); err != nil {
			return err
		}
		op.ID = id
		encoded, err := json.Marshal(op)
		if err != nil {
			return err
		}
		return bucket.Put(boltKey(id), encoded)
	})
	if err != nil {
		return Opportunity{}, err
	}
	return op, nil
}

func (s *BoltStore) Put(ctx context.Context, records ...Opportunity) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketOpportunities)
		for _, rec := range records {
			encoded, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := bucket.Put(boltKey(rec.ID), encoded); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close releases the underlying Bolt database handle.
func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func boltKey(id uint64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], id)
	return key[:]
}

// Seed imports the JSON catalogue at path into store when store is empty and
// reports how many records were written.
func Seed(ctx context.Context, store Store, path string) (int, error) {
	existing, err := store.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var ops []Opportunity
	if err := json.Unmarshal(raw, &ops); err != nil {
		return 0, fmt.Errorf("volunteering: decode seed %s: %w", path, err)
	}
	if len(ops) == 0 {
		return 0, nil
	}
	if err := store.Put(ctx, ops...); err != nil {
		return 0, err
	}
	return len(ops), nil
}
