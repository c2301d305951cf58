package keeper

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SimpleJsonDocument(t *testing.T) {
	d := newDocument(newEntry(
		"1000001",
		[]byte(`{"holder":"foo bar baz","nickname":null,"balance":345.54,"zeroBalance":0,"pin":4521,"zeroInt":0,"active":true,"frozen":false}`),
	))

	t.Run("str", func(t *testing.T) {
		s, err := d.String("holder")
		require.NoError(t, err)
		assert.Equal(t, "foo bar baz", s)

		sz, err := d.String("nickname")
		require.NoError(t, err)
		assert.Equal(t, "", sz)

		emp, err := d.String("nonExistent")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrJsonPathInvalid))
		assert.Equal(t, "", emp)

		assert.Equal(t, "foo bar baz", d.StringOrDefault("holder", "abc"))
		assert.Equal(t, "", d.StringOrDefault("nickname", "abc"))
		assert.Equal(t, "abc", d.StringOrDefault("nonExistent", "abc"))
	})

	t.Run("bool", func(t *testing.T) {
		b, err := d.Bool("active")
		require.NoError(t, err)
		assert.Equal(t, true, b)

		fb, err := d.Bool("frozen")
		require.NoError(t, err)
		assert.Equal(t, false, fb)

		emp, err := d.Bool("nonExistent")
		require.Error(t, err)
		assert.Equal(t, false, emp)

		assert.Equal(t, true, d.BoolOrDefault("active", false))
		assert.Equal(t, false, d.BoolOrDefault("frozen", true))
		assert.Equal(t, true, d.BoolOrDefault("nonExistent", true))
	})

	t.Run("key and raw paths", func(t *testing.T) {
		assert.Equal(t, "1000001", d.Key())
		assert.Equal(t, 345.54, d.Get("balance").Float())
		assert.True(t, d.Get("nickname").Exists())
		assert.False(t, d.Get("nonExistent").Exists())
	})
}

func Test_DocumentIsACopy(t *testing.T) {
	ent := newEntry("1", []byte(`{"title":"Dune"}`))
	d := newDocument(ent)

	d.Value()[2] = 'X'

	assert.Equal(t, `{"title":"Dune"}`, string(ent.value))
}

func Test_DocumentUnmarshal(t *testing.T) {
	d := newDocument(newEntry("1", []byte(`{"title":"Dune","available":true}`)))

	var dest struct {
		Title     string `json:"title"`
		Available bool   `json:"available"`
	}
	require.NoError(t, d.Unmarshal(&dest))
	assert.Equal(t, "Dune", dest.Title)
	assert.True(t, dest.Available)

	var wrong struct {
		Title int `json:"title"`
	}
	assert.True(t, errors.Is(d.Unmarshal(&wrong), ErrJsonCouldNotBeUnmarshalled))

	m, err := d.M()
	require.NoError(t, err)
	assert.Equal(t, M{"title": "Dune", "available": true}, m)
}

func BenchmarkDocument_Getters(b *testing.B) {
	d := newDocument(newEntry(
		"1000001",
		[]byte(`{"holder":"foo bar baz","nickname":null,"balance":345.54,"zeroBalance":0,"pin":4521,"zeroInt":0,"active":true,"frozen":false}`),
	))

	for i := 0; i < b.N; i++ {
		d.String("holder")
		d.String("nickname")
		d.String("nonExistent")
		d.StringOrDefault("holder", "abc")
		d.StringOrDefault("nonExistent", "abc")

		d.Bool("active")
		d.Bool("nonExistent")
		d.BoolOrDefault("active", false)
		d.BoolOrDefault("nonExistent", true)
	}
}
