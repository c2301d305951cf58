package keeper

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

var ErrTxIsReadOnly = errors.New("transaction is read only")
var ErrTxDone = errors.New("transaction has already been committed or rolled back")

// Tx applies mutations to the in-memory engine immediately and keeps an
// undo log. Commit pushes the changeset through the persister; a failed
// persist rolls the engine back.
type Tx struct {
	s        *Store
	ctx      context.Context
	readOnly bool
	done     bool
	cs       changeset
	undo     []func()
}

func (x *Tx) Get(key string) (*Document, error) {
	if x.done {
		return nil, ErrTxDone
	}

	ent, err := x.s.e.get(key)
	if err != nil {
		return nil, err
	}

	return newDocument(ent), nil
}

func (x *Tx) Has(key string) bool {
	if x.done {
		return false
	}

	return x.s.e.has(key)
}

// Lookup returns the key owning value under a unique field.
// Reads on a finished transaction find nothing.
func (x *Tx) Lookup(field, value string) (string, bool) {
	if x.done {
		return "", false
	}

	return x.s.e.unique.lookup(field, value)
}

func (x *Tx) Insert(key string, data interface{}) error {
	return x.put(key, data, false)
}

func (x *Tx) InsertOrReplace(key string, data interface{}) error {
	return x.put(key, data, true)
}

// Replace overwrites an existing record and fails when key is absent.
func (x *Tx) Replace(key string, data interface{}) error {
	if err := x.writable(); err != nil {
		return err
	}

	if !x.s.e.has(key) {
		return errors.Wrapf(ErrKeyDoesNotExist, "key %s", key)
	}

	return x.put(key, data, true)
}

func (x *Tx) put(key string, data interface{}, replace bool) error {
	if err := x.writable(); err != nil {
		return err
	}

	v, err := serializeToValue(data)
	if err != nil {
		return err
	}

	ent := newEntry(key, v)
	prev, err := x.s.e.put(ent, replace)
	if err != nil {
		return err
	}

	x.record(key, v)
	x.undo = append(x.undo, func() {
		_, _ = x.s.e.remove(key)
		if prev != nil {
			_, _ = x.s.e.put(prev, true)
		}
	})

	return nil
}

func (x *Tx) Remove(keys ...string) error {
	if err := x.writable(); err != nil {
		return err
	}

	for _, k := range keys {
		prev, err := x.s.e.remove(k)
		if err != nil {
			return err
		}

		delete(x.cs.upserts, k)
		x.cs.removes[k] = struct{}{}
		x.undo = append(x.undo, func() {
			_, _ = x.s.e.put(prev, true)
		})
	}

	return nil
}

// Scan walks records in key order, stopping when fn returns false.
func (x *Tx) Scan(ctx context.Context, q *QueryOptions, fn func(d *Document) bool) error {
	if x.done {
		return ErrTxDone
	}

	return x.s.e.scan(ctx, q, func(ent *entry) bool {
		return fn(newDocument(ent))
	})
}

func (x *Tx) Count() int {
	if x.done {
		return 0
	}

	return x.s.e.count()
}

func (x *Tx) Commit() error {
	if x.done {
		return ErrTxDone
	}
	defer x.release()

	if x.readOnly || x.cs.empty() || x.s.p == nil {
		return nil
	}

	if err := x.ctx.Err(); err != nil {
		x.rollbackUnderLock()
		return errors.Wrap(err, "commit aborted")
	}

	if err := x.s.p.merge(&x.cs, x.s.e.snapshot()); err != nil {
		x.rollbackUnderLock()
		return errors.Wrap(err, "commit failed, rolled back")
	}

	return nil
}

func (x *Tx) Rollback() error {
	if x.done {
		return ErrTxDone
	}
	defer x.release()

	x.rollbackUnderLock()
	return nil
}

// rollbackUnlessDone undoes and unlocks a transaction left open by a
// panicking callback.
func (x *Tx) rollbackUnlessDone() {
	if !x.done {
		_ = x.Rollback()
	}
}

func (x *Tx) rollbackUnderLock() {
	for i := len(x.undo) - 1; i >= 0; i-- {
		x.undo[i]()
	}
	x.undo = nil
	x.cs = changeset{}
}

func (x *Tx) release() {
	x.done = true
	if x.readOnly {
		x.s.mu.RUnlock()
	} else {
		x.s.mu.Unlock()
	}
}

func (x *Tx) writable() error {
	if x.done {
		return ErrTxDone
	}

	if x.readOnly {
		return ErrTxIsReadOnly
	}

	return nil
}

func (x *Tx) record(key string, v []byte) {
	delete(x.cs.removes, key)
	x.cs.upserts[key] = v
}

func serializeToValue(d interface{}) ([]byte, error) {
	switch typedValue := d.(type) {
	case []byte:
		return append([]byte(nil), typedValue...), nil
	case json.RawMessage:
		return append([]byte(nil), typedValue...), nil
	case string:
		return []byte(typedValue), nil
	}

	b, err := json.Marshal(d)
	if err != nil {
		return nil, errors.Wrapf(err, "could not marshal data %+v value", d)
	}

	return b, nil
}
