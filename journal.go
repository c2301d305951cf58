package keeper

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// JournalTimeLayout formats the timestamp part of a journal key.
const JournalTimeLayout = "02-01-2006_15-04-05"

const journalSeparator = "-"

// Journal is an append-only log on top of a Store. Entries are keyed
// <entity-id>-<timestamp> and are never replaced or removed; a second
// entry for the same entity within one second gets a -2, -3... suffix.
type Journal struct {
	s   *Store
	now func() time.Time
}

type JournalOption func(j *Journal)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) JournalOption {
	return func(j *Journal) {
		j.now = now
	}
}

func NewJournal(s *Store, opts ...JournalOption) *Journal {
	j := &Journal{s: s, now: time.Now}
	for _, o := range opts {
		o(j)
	}

	return j
}

func (j *Journal) Now() time.Time {
	return j.now()
}

func (j *Journal) Store() *Store {
	return j.s
}

// Append writes data under a fresh key derived from entityID and at and
// returns that key.
func (j *Journal) Append(ctx context.Context, entityID string, at time.Time, data interface{}) (string, error) {
	var key string
	err := j.s.Update(ctx, func(tx *Tx) error {
		key = j.freeKey(tx, entityID, at)
		return tx.Insert(key, data)
	})

	if err != nil {
		return "", errors.Wrapf(err, "could not append journal entry for %s", entityID)
	}

	return key, nil
}

func (j *Journal) freeKey(tx *Tx, entityID string, at time.Time) string {
	base := JournalKey(entityID, at)
	key := base
	for n := 2; tx.Has(key); n++ {
		key = base + journalSeparator + strconv.Itoa(n)
	}

	return key
}

// Entries returns the entries of one entity oldest first. Keys that do
// not carry a journal timestamp are listed last in key order.
func (j *Journal) Entries(ctx context.Context, entityID string) ([]*Document, error) {
	docs, err := j.s.Find(ctx, Q().Prefix(entityID+journalSeparator))
	if err != nil {
		return nil, err
	}

	stamps := make(map[string]journalStamp, len(docs))
	for _, d := range docs {
		if st, ok := parseJournalStamp(entityID, d.Key()); ok {
			stamps[d.Key()] = st
		}
	}

	sort.SliceStable(docs, func(a, b int) bool {
		sa, okA := stamps[docs[a].Key()]
		sb, okB := stamps[docs[b].Key()]
		if !okA || !okB {
			return okA && !okB
		}

		if !sa.at.Equal(sb.at) {
			return sa.at.Before(sb.at)
		}

		return sa.seq < sb.seq
	})

	return docs, nil
}

type journalStamp struct {
	at  time.Time
	seq int
}

// parseJournalStamp reads the <timestamp>[-N] tail of a journal key.
// The first entry of a second has seq 1.
func parseJournalStamp(entityID, key string) (journalStamp, bool) {
	tail := strings.TrimPrefix(key, entityID+journalSeparator)
	if len(tail) < len(JournalTimeLayout) {
		return journalStamp{}, false
	}

	at, err := time.Parse(JournalTimeLayout, tail[:len(JournalTimeLayout)])
	if err != nil {
		return journalStamp{}, false
	}

	st := journalStamp{at: at, seq: 1}

	rest := tail[len(JournalTimeLayout):]
	if rest == "" {
		return st, true
	}

	if !strings.HasPrefix(rest, journalSeparator) {
		return journalStamp{}, false
	}

	n, err := strconv.Atoi(strings.TrimPrefix(rest, journalSeparator))
	if err != nil || n < 2 {
		return journalStamp{}, false
	}

	st.seq = n

	return st, true
}

func JournalKey(entityID string, at time.Time) string {
	return entityID + journalSeparator + at.Format(JournalTimeLayout)
}
