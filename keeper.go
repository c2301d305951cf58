// Package keeper is a small keyed record store backed by a single JSON
// file. Each record is a JSON object stored under a string primary key;
// every committed transaction re-reads the file, merges its changes in
// and rewrites it.
package keeper

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// InMemory opens a store that never touches the disk.
const InMemory = ":memory:"

var ErrStoreClosed = errors.New("store already closed")

type UserCallback func(tx *Tx) error

type Closer func() error

func NullCloser() error { return nil }

type Store struct {
	mu      sync.RWMutex
	path    string
	e       *engine
	p       *persistence
	warning error
	closed  bool
}

func Open(path string, cfgs ...*Config) (*Store, Closer, error) {
	cfg := resolveConfig(cfgs)

	s := &Store{
		path: path,
		e:    newEngine(cfg.Unique),
	}

	if path != InMemory {
		p, err := newPersistence(path, cfg)
		if err != nil {
			return nil, NullCloser, err
		}

		snap, err := p.load()
		if err != nil {
			return nil, NullCloser, err
		}

		s.p = p
		s.warning = snap.warning
		s.e.hydrate(snap.records)
	}

	return s, s.close, nil
}

func (s *Store) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	s.closed = true
	return nil
}

// LoadWarning is non-nil when the backing file was missing or corrupted
// at open time and the store started empty.
func (s *Store) LoadWarning() error {
	return s.warning
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Begin(ctx context.Context, readOnly bool) (*Tx, error) {
	if readOnly {
		s.mu.RLock()
	} else {
		s.mu.Lock()
	}

	if s.closed {
		if readOnly {
			s.mu.RUnlock()
		} else {
			s.mu.Unlock()
		}
		return nil, ErrStoreClosed
	}

	tx := Tx{
		s:        s,
		ctx:      ctx,
		readOnly: readOnly,
		cs: changeset{
			upserts: make(map[string][]byte),
			removes: make(map[string]struct{}),
		},
	}

	return &tx, nil
}

func (s *Store) View(ctx context.Context, cb UserCallback) error {
	tx, err := s.Begin(ctx, true)
	if err != nil {
		return err
	}
	defer tx.rollbackUnlessDone()

	err = cb(tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrap(err, rbErr.Error())
		}

		return err
	}

	return tx.Commit()
}

// Update runs cb in a writable transaction. Errors returned by cb are
// passed through unchanged after the rollback so callers can match them.
func (s *Store) Update(ctx context.Context, cb UserCallback) error {
	tx, err := s.Begin(ctx, false)
	if err != nil {
		return err
	}
	defer tx.rollbackUnlessDone()

	err = cb(tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrap(err, rbErr.Error())
		}

		return err
	}

	return tx.Commit()
}

func (s *Store) Get(key string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ent, err := s.e.get(key)
	if err != nil {
		return nil, err
	}

	return newDocument(ent), nil
}

func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.e.has(key)
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.e.count()
}

// Find collects every document matching q.
func (s *Store) Find(ctx context.Context, q *QueryOptions) ([]*Document, error) {
	var docs []*Document
	err := s.View(ctx, func(tx *Tx) error {
		return tx.Scan(ctx, q, func(d *Document) bool {
			docs = append(docs, d)
			return true
		})
	})

	return docs, err
}
