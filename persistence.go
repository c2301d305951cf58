package keeper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

var ErrFileNotFound = errors.New("backing file not found")
var ErrFileCorrupted = errors.New("backing file is corrupted")
var ErrDbFileWriteFailed = errors.New("backing file write failed")

const defaultFilePerm = 0644

// snapshot is the decoded state of the backing file. warning is set
// when the file was missing or undecodable and records is empty.
type snapshot struct {
	records map[string]json.RawMessage
	warning error
}

type changeset struct {
	upserts map[string][]byte
	removes map[string]struct{}
}

func (cs *changeset) empty() bool {
	return len(cs.upserts) == 0 && len(cs.removes) == 0
}

type persistence struct {
	path    string
	tmpPath string
	indent  string
	inPlace bool
	log     *zap.Logger
}

func newPersistence(path string, cfg *Config) (*persistence, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "could not create directory %s", dir)
		}
	}

	return &persistence{
		path:    path,
		tmpPath: path + ".tmp",
		indent:  cfg.Indent,
		inPlace: cfg.InPlaceWrite,
		log:     cfg.Logger.With(zap.String("file", path)),
	}, nil
}

func (p *persistence) load() (*snapshot, error) {
	p.log.Info("fetching raw data")

	b, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			p.log.Warn("file not found, starting with an empty collection")
			return &snapshot{
				records: map[string]json.RawMessage{},
				warning: errors.Wrapf(ErrFileNotFound, "%s", p.path),
			}, nil
		}

		return nil, errors.Wrapf(err, "could not read %s", p.path)
	}

	records, err := decodeRecords(b)
	if err != nil {
		p.log.Warn("corrupted file, starting with an empty collection", zap.Error(err))
		return &snapshot{
			records: map[string]json.RawMessage{},
			warning: errors.Wrapf(ErrFileCorrupted, "%s: %v", p.path, err),
		}, nil
	}

	p.log.Info("fetched records", zap.Int("records", len(records)))

	return &snapshot{records: records}, nil
}

// merge re-reads the backing file, applies the changeset on top of it,
// backfills any resident record the file lacks and rewrites the file.
func (p *persistence) merge(cs *changeset, resident map[string]json.RawMessage) error {
	current, err := p.load()
	if err != nil {
		return err
	}

	out := current.records

	for k := range cs.removes {
		delete(out, k)
	}

	for k, v := range cs.upserts {
		out[k] = v
	}

	for k, v := range resident {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}

	b, err := json.MarshalIndent(out, "", p.indent)
	if err != nil {
		return errors.Wrapf(err, "could not encode %s", p.path)
	}
	b = append(b, '\n')

	if p.inPlace {
		err = os.WriteFile(p.path, b, defaultFilePerm)
	} else {
		err = p.writeAndSwap(b)
	}

	if err != nil {
		return errors.Wrap(ErrDbFileWriteFailed, err.Error())
	}

	p.log.Info("saved to file",
		zap.Int("records", len(out)),
		zap.Int("upserts", len(cs.upserts)),
		zap.Int("removes", len(cs.removes)),
		zap.String("xxhash", fmt.Sprintf("%016x", xxhash.Sum64(b))),
	)

	return nil
}

func (p *persistence) writeAndSwap(b []byte) error {
	tmpF, err := os.OpenFile(p.tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, defaultFilePerm)
	if err != nil {
		return errors.Wrapf(err, "could not create tmp file %s", p.tmpPath)
	}

	if _, err := tmpF.Write(b); err != nil {
		_ = tmpF.Close()
		_ = os.Remove(p.tmpPath)
		return errors.Wrapf(err, "could not write to tmp file %s", p.tmpPath)
	}

	if err := tmpF.Sync(); err != nil {
		_ = tmpF.Close()
		_ = os.Remove(p.tmpPath)
		return errors.Wrapf(err, "could not sync tmp file %s", p.tmpPath)
	}

	if err := tmpF.Close(); err != nil {
		_ = os.Remove(p.tmpPath)
		return errors.Wrapf(err, "could not close tmp file %s", p.tmpPath)
	}

	if err := os.Rename(p.tmpPath, p.path); err != nil {
		_ = os.Remove(p.tmpPath)
		return errors.Wrapf(err, "could not replace %s with %s", p.path, p.tmpPath)
	}

	return nil
}

func decodeRecords(b []byte) (map[string]json.RawMessage, error) {
	if !gjson.ValidBytes(b) {
		return nil, errors.New("invalid json")
	}

	if !gjson.ParseBytes(b).IsObject() {
		return nil, errors.New("top level value is not an object")
	}

	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}

	records := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err != nil {
			return nil, errors.Wrapf(err, "key %s", k)
		}
		records[k] = buf.Bytes()
	}

	return records, nil
}
