package keeper

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_UniqueIndex_AddAndRemove(t *testing.T) {
	t.Parallel()

	e1 := newEntry("1", []byte(`{"title":"Dune","author":"Frank Herbert"}`))
	e2 := newEntry("2", []byte(`{"title":" DUNE ","author":"Someone"}`))
	e3 := newEntry("3", []byte(`{"author":"Nobody"}`))

	ui := newUniqueIndex([]string{"title"})
	require.True(t, ui.indexed("title"))
	require.False(t, ui.indexed("author"))

	t.Run("first owner takes the value", func(t *testing.T) {
		require.NoError(t, ui.conflict(e1))
		ui.add(e1)

		key, ok := ui.lookup("title", "dune")
		assert.True(t, ok)
		assert.Equal(t, "1", key)
	})

	t.Run("normalized duplicate conflicts", func(t *testing.T) {
		err := ui.conflict(e2)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUniqueViolation))
	})

	t.Run("own value does not conflict", func(t *testing.T) {
		assert.NoError(t, ui.conflict(newEntry("1", []byte(`{"title":"dune"}`))))
	})

	t.Run("records without the field are ignored", func(t *testing.T) {
		assert.NoError(t, ui.conflict(e3))
		ui.add(e3)
		assert.Len(t, ui.data["title"], 1)
	})

	t.Run("removing frees the value", func(t *testing.T) {
		ui.removeEntry(e1)
		_, ok := ui.lookup("title", "Dune")
		assert.False(t, ok)
		assert.NoError(t, ui.conflict(e2))
	})

	t.Run("unknown field", func(t *testing.T) {
		_, ok := ui.lookup("isbn", "123")
		assert.False(t, ok)
	})
}

func Test_Engine_UniqueRollbackOnReplace(t *testing.T) {
	e := newEngine([]string{"member_name"})

	_, err := e.put(newEntry("1", []byte(`{"member_name":"Ann"}`)), false)
	require.NoError(t, err)
	_, err = e.put(newEntry("2", []byte(`{"member_name":"Bob"}`)), false)
	require.NoError(t, err)

	_, err = e.put(newEntry("2", []byte(`{"member_name":"ann"}`)), true)
	assert.True(t, errors.Is(err, ErrUniqueViolation))

	key, ok := e.unique.lookup("member_name", "bob")
	assert.True(t, ok)
	assert.Equal(t, "2", key)

	prev, err := e.put(newEntry("2", []byte(`{"member_name":"Robert"}`)), true)
	require.NoError(t, err)
	assert.Equal(t, `{"member_name":"Bob"}`, string(prev.value))

	_, ok = e.unique.lookup("member_name", "bob")
	assert.False(t, ok)
}

func Test_UniqueIndex_BlankValuesNeverCollide(t *testing.T) {
	ui := newUniqueIndex([]string{"member_name"})

	ui.add(newEntry("1", []byte(`{"member_name":"","borrowed_books":[1]}`)))

	assert.NoError(t, ui.conflict(newEntry("2", []byte(`{"member_name":"  ","borrowed_books":[]}`))))

	_, ok := ui.lookup("member_name", "")
	assert.False(t, ok)
}

func Test_Engine_DuplicatesLoadedFromFile(t *testing.T) {
	e := newEngine([]string{"title"})
	e.hydrate(map[string]json.RawMessage{
		"1": json.RawMessage(`{"title":"Dune"}`),
		"2": json.RawMessage(`{"title":"dune"}`),
	})

	key, ok := e.unique.lookup("title", "Dune")
	require.True(t, ok)
	assert.Equal(t, "1", key)

	_, err := e.remove("1")
	require.NoError(t, err)

	key, ok = e.unique.lookup("title", "DUNE")
	require.True(t, ok)
	assert.Equal(t, "2", key)

	_, err = e.put(newEntry("3", []byte(`{"title":"Dune"}`)), false)
	assert.True(t, errors.Is(err, ErrUniqueViolation))

	_, err = e.put(newEntry("2", []byte(`{"title":"Dune","available":false}`)), true)
	require.NoError(t, err)

	_, err = e.put(newEntry("2", []byte(`{"title":"Dune Messiah"}`)), true)
	require.NoError(t, err)

	_, ok = e.unique.lookup("title", "dune")
	assert.False(t, ok)

	_, err = e.put(newEntry("3", []byte(`{"title":"Dune"}`)), false)
	assert.NoError(t, err)
}
