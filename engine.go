package keeper

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tidwall/btree"
	"github.com/tidwall/gjson"
)

var ErrKeyAlreadyExists = errors.New("key already exists")
var ErrKeyDoesNotExist = errors.New("key does not exist")
var ErrInvalidRecord = errors.New("record must be a json object")

const castPanic = "how could primary keys item not be of type *entry"

type entryIterator func(ent *entry) bool

type engine struct {
	pks    *btree.BTree
	unique *uniqueIndex
}

func newEngine(uniqueFields []string) *engine {
	return &engine{
		pks:    btree.NewNonConcurrent(byPrimaryKeys),
		unique: newUniqueIndex(uniqueFields),
	}
}

// hydrate fills an empty engine from decoded file contents. Unique
// collisions already present in the file are tolerated; every holder is
// indexed so the value stays taken until the last of them lets go.
func (e *engine) hydrate(records map[string]json.RawMessage) {
	for k, v := range records {
		e.pks.Set(newEntry(k, []byte(v)))
	}

	e.pks.Ascend(nil, func(i interface{}) bool {
		e.unique.add(mustEntry(i))
		return true
	})
}

func (e *engine) get(key string) (*entry, error) {
	found := e.pks.Get(&entry{key: newPK(key)})
	if found == nil {
		return nil, errors.Wrapf(ErrKeyDoesNotExist, "key %s", key)
	}

	return mustEntry(found), nil
}

func (e *engine) has(key string) bool {
	return e.pks.Get(&entry{key: newPK(key)}) != nil
}

// put returns the replaced entry, if any, so a transaction can undo it.
func (e *engine) put(ent *entry, replace bool) (*entry, error) {
	if !gjson.ValidBytes(ent.value) || !gjson.ParseBytes(ent.value).IsObject() {
		return nil, errors.Wrapf(ErrInvalidRecord, "key %s", ent.key.String())
	}

	var existing *entry
	if found := e.pks.Get(ent); found != nil {
		if !replace {
			return nil, errors.Wrapf(ErrKeyAlreadyExists, "key %s", ent.key.String())
		}
		existing = mustEntry(found)
	}

	if err := e.unique.conflict(ent); err != nil {
		return nil, err
	}

	if existing != nil {
		e.unique.removeEntry(existing)
	}

	e.pks.Set(ent)
	e.unique.add(ent)

	return existing, nil
}

func (e *engine) remove(key string) (*entry, error) {
	found := e.pks.Delete(&entry{key: newPK(key)})
	if found == nil {
		return nil, errors.Wrapf(ErrKeyDoesNotExist, "key %s", key)
	}

	ent := mustEntry(found)
	e.unique.removeEntry(ent)

	return ent, nil
}

func (e *engine) count() int {
	return e.pks.Len()
}

func (e *engine) snapshot() map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, e.pks.Len())
	e.pks.Ascend(nil, func(i interface{}) bool {
		ent := mustEntry(i)
		out[ent.key.String()] = ent.value
		return true
	})

	return out
}

func (e *engine) scan(ctx context.Context, q *QueryOptions, ir entryIterator) error {
	if q == nil {
		q = Q()
	}

	it := filteringBTreeIterator(ctx, q, ir)

	switch {
	case q.keyRange != nil && q.order == Descend:
		lower := newPK(q.keyRange.From)
		e.pks.Descend(&entry{key: newPK(q.keyRange.To)}, func(i interface{}) bool {
			if mustEntry(i).key.Less(lower) {
				return false
			}
			return it(i)
		})
	case q.keyRange != nil:
		upper := newPK(q.keyRange.To)
		e.pks.Ascend(&entry{key: newPK(q.keyRange.From)}, func(i interface{}) bool {
			if upper.Less(mustEntry(i).key) {
				return false
			}
			return it(i)
		})
	case q.order == Descend:
		e.pks.Descend(nil, it)
	default:
		e.pks.Ascend(nil, it)
	}

	return ctx.Err()
}

func filteringBTreeIterator(ctx context.Context, q *QueryOptions, ir entryIterator) func(item interface{}) bool {
	return func(item interface{}) bool {
		if ctx.Err() != nil {
			return false
		}

		ent := mustEntry(item)
		if !q.match(ent) {
			return true
		}

		return ir(ent)
	}
}

func mustEntry(i interface{}) *entry {
	ent, ok := i.(*entry)
	if !ok {
		panic(castPanic)
	}

	return ent
}
