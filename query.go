package keeper

import (
	"github.com/tidwall/gjson"
)

type KeyRange struct {
	From, To string
}

type Order string

const (
	Ascend  Order = "ASC"
	Descend Order = "DESC"
)

type fieldFilter struct {
	path string
	fn   func(v gjson.Result) bool
}

// QueryOptions narrows a scan. Build one with Q().
type QueryOptions struct {
	order    Order
	keyRange *KeyRange
	prefix   string
	filters  []fieldFilter
}

func (fo *QueryOptions) Order(o Order) *QueryOptions {
	fo.order = o
	return fo
}

func (fo *QueryOptions) KeyRange(from, to string) *QueryOptions {
	fo.keyRange = &KeyRange{From: from, To: to}
	return fo
}

func (fo *QueryOptions) Prefix(p string) *QueryOptions {
	fo.prefix = p
	return fo
}

// Where keeps only records whose value at path satisfies fn. A missing
// path is passed to fn as a zero gjson.Result.
func (fo *QueryOptions) Where(path string, fn func(v gjson.Result) bool) *QueryOptions {
	fo.filters = append(fo.filters, fieldFilter{path: path, fn: fn})
	return fo
}

func (fo *QueryOptions) match(ent *entry) bool {
	if fo.prefix != "" && !ent.key.HasPrefix(fo.prefix) {
		return false
	}

	for _, f := range fo.filters {
		if !f.fn(gjson.GetBytes(ent.value, f.path)) {
			return false
		}
	}

	return true
}

func Q() *QueryOptions {
	return &QueryOptions{order: Ascend}
}
