package keeper

import (
	"strconv"
	"strings"
)

const segmentSeparator = ":"

// PK is a primary key split into segments. Segments holding plain
// integers order numerically and before any non-numeric segment, so
// "2" < "10" < "abc".
type PK struct {
	key      string
	segments []string
}

func newPK(k string) PK {
	return PK{
		key:      k,
		segments: strings.Split(k, segmentSeparator),
	}
}

func (pk *PK) Equal(other *PK) bool {
	return pk.key == other.key
}

func (pk *PK) String() string {
	return pk.key
}

func (pk *PK) HasPrefix(prefix string) bool {
	return strings.HasPrefix(pk.key, prefix)
}

func (pk *PK) Less(other PK) bool {
	l := smallestSegmentLen(pk.segments, other.segments)

	for i := 0; i < l; i++ {
		a, b := pk.segments[i], other.segments[i]
		if a == b {
			continue
		}

		an, aIsInt := segmentToInt(a)
		bn, bIsInt := segmentToInt(b)

		switch {
		case aIsInt && bIsInt:
			return an < bn
		case aIsInt != bIsInt:
			return aIsInt
		default:
			return a < b
		}
	}

	return len(pk.segments) < len(other.segments)
}

func byPrimaryKeys(a, b interface{}) bool {
	i1, i2 := a.(*entry), b.(*entry)
	return i1.key.Less(i2.key)
}

func smallestSegmentLen(a, b []string) int {
	if len(a) > len(b) {
		return len(b)
	}

	return len(a)
}

// segmentToInt treats a segment as numeric only when it round-trips,
// so "007" and "+7" stay strings.
func segmentToInt(s string) (int, bool) {
	if s == "" || (s[0] == '0' && len(s) > 1) || s[0] == '+' || s[0] == '-' {
		return 0, false
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}

	return n, true
}
