package keeper

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

var ErrJsonCouldNotBeUnmarshalled = errors.New("json contents could not be unmarshalled, probably is invalid")
var ErrJsonPathInvalid = errors.New("json path is invalid")

// Document is a read-only copy of a stored record.
type Document struct {
	key   string
	value []byte
}

func newDocument(ent *entry) *Document {
	cp := ent.clone()
	return &Document{key: cp.key.String(), value: cp.value}
}

func (d *Document) Key() string {
	return d.key
}

func (d *Document) Value() []byte {
	return d.value
}

func (d *Document) RawString() string {
	return string(d.value)
}

func (d *Document) Unmarshal(dest interface{}) error {
	if err := json.Unmarshal(d.value, dest); err != nil {
		return errors.Wrap(ErrJsonCouldNotBeUnmarshalled, err.Error())
	}

	return nil
}

func (d *Document) M() (M, error) {
	m := make(M)
	if err := d.Unmarshal(&m); err != nil {
		return nil, err
	}

	return m, nil
}

func (d *Document) Get(path string) gjson.Result {
	return gjson.GetBytes(d.value, path)
}

func (d *Document) String(path string) (string, error) {
	raw := gjson.GetBytes(d.value, path)
	if !raw.Exists() {
		return "", errors.Wrapf(ErrJsonPathInvalid, "%s", path)
	}
	return raw.String(), nil
}

func (d *Document) StringOrDefault(path, def string) string {
	if v, err := d.String(path); err != nil {
		return def
	} else {
		return v
	}
}

func (d *Document) Bool(path string) (bool, error) {
	get := gjson.GetBytes(d.value, path)
	if !get.Exists() {
		return false, errors.Wrapf(ErrJsonPathInvalid, "%s", path)
	}

	return get.Bool(), nil
}

func (d *Document) BoolOrDefault(path string, def bool) bool {
	if v, err := d.Bool(path); err != nil {
		return def
	} else {
		return v
	}
}
