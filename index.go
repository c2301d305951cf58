package keeper

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

var ErrUniqueViolation = errors.New("unique value already taken")

// uniqueIndex maps a normalized field value to the keys holding it, one
// map per indexed json path. A value has more than one holder only when
// the backing file already carried duplicates; the first holder owns it.
type uniqueIndex struct {
	data map[string]map[string][]string
}

func newUniqueIndex(fields []string) *uniqueIndex {
	ui := &uniqueIndex{data: make(map[string]map[string][]string, len(fields))}
	for _, f := range fields {
		ui.data[f] = make(map[string][]string)
	}

	return ui
}

func normalizeUniqueValue(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// valuesOf skips missing and blank fields, those never collide.
func (ui *uniqueIndex) valuesOf(ent *entry) map[string]string {
	values := make(map[string]string, len(ui.data))
	for field := range ui.data {
		r := gjson.GetBytes(ent.value, field)
		if !r.Exists() {
			continue
		}

		v := normalizeUniqueValue(r.String())
		if v == "" {
			continue
		}

		values[field] = v
	}

	return values
}

// conflict reports the first indexed field whose value is held by keys
// other than ent's own.
func (ui *uniqueIndex) conflict(ent *entry) error {
	key := ent.key.String()
	for field, v := range ui.valuesOf(ent) {
		holders := ui.data[field][v]
		if len(holders) > 0 && indexOf(holders, key) < 0 {
			return errors.Wrapf(ErrUniqueViolation, "%s %q is used by key %s", field, v, holders[0])
		}
	}

	return nil
}

func (ui *uniqueIndex) add(ent *entry) {
	key := ent.key.String()
	for field, v := range ui.valuesOf(ent) {
		if indexOf(ui.data[field][v], key) >= 0 {
			continue
		}

		ui.data[field][v] = append(ui.data[field][v], key)
	}
}

func (ui *uniqueIndex) removeEntry(ent *entry) {
	key := ent.key.String()
	for field, v := range ui.valuesOf(ent) {
		holders := ui.data[field][v]
		i := indexOf(holders, key)
		if i < 0 {
			continue
		}

		if len(holders) == 1 {
			delete(ui.data[field], v)
			continue
		}

		ui.data[field][v] = append(holders[:i:i], holders[i+1:]...)
	}
}

func (ui *uniqueIndex) lookup(field, value string) (string, bool) {
	values, ok := ui.data[field]
	if !ok {
		return "", false
	}

	holders := values[normalizeUniqueValue(value)]
	if len(holders) == 0 {
		return "", false
	}

	return holders[0], true
}

func (ui *uniqueIndex) indexed(field string) bool {
	_, ok := ui.data[field]
	return ok
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}

	return -1
}
