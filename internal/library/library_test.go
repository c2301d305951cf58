package library_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/denismitr/keeper"
	"github.com/denismitr/keeper/internal/library"
	"github.com/denismitr/keeper/internal/validate"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type fixture struct {
	dir     string
	lib     *library.Library
	books   *keeper.Store
	members *keeper.Store
	log     *keeper.Store
}

func openLibrary(t *testing.T, dir string) *fixture {
	t.Helper()

	open := func(name string, unique []string) *keeper.Store {
		s, closer, err := keeper.Open(filepath.Join(dir, name), &keeper.Config{Unique: unique})
		require.NoError(t, err)
		t.Cleanup(func() { _ = closer() })
		return s
	}

	f := &fixture{
		dir:     dir,
		books:   open("books.json", library.BookUniqueFields),
		members: open("members.json", library.MemberUniqueFields),
		log:     open("library_transactions.json", nil),
	}

	at := time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC)
	j := keeper.NewJournal(f.log, keeper.WithClock(func() time.Time { return at }))
	f.lib = library.New(f.books, f.members, j, nil)

	return f
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestBorrowDune(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "books.json"), `{"1": {"title": "Dune", "author": "Frank Herbert", "available": true}}`)
	writeFile(t, filepath.Join(dir, "members.json"), `{"1": {"member_name": "Ann", "borrowed_books": []}}`)

	f := openLibrary(t, dir)
	ctx := context.Background()

	outcome, err := f.lib.Borrow(ctx, "1", "dune")
	require.NoError(t, err)
	assert.Equal(t, library.OutcomeBorrowed, outcome)

	b, err := os.ReadFile(filepath.Join(dir, "books.json"))
	require.NoError(t, err)
	assert.False(t, gjson.GetBytes(b, "1.available").Bool())

	m, err := os.ReadFile(filepath.Join(dir, "members.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[1]`, gjson.GetBytes(m, "1.borrowed_books").Raw)

	entries, err := f.lib.Entries(ctx, "1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, library.StatusBorrowed, entries[0].Status)
	assert.Equal(t, "Dune", entries[0].BookName)
	assert.Equal(t, "1", entries[0].MemberID)
	assert.Equal(t, "18-10-2026_09-30-00", entries[0].Time)

	t.Run("second borrow is a no-op", func(t *testing.T) {
		outcome, err := f.lib.Borrow(ctx, "1", "Dune")
		require.NoError(t, err)
		assert.Equal(t, library.OutcomeUnavailable, outcome)

		after, err := os.ReadFile(filepath.Join(dir, "members.json"))
		require.NoError(t, err)
		assert.Equal(t, m, after)

		entries, err := f.lib.Entries(ctx, "1")
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestReturn(t *testing.T) {
	f := openLibrary(t, t.TempDir())
	ctx := context.Background()

	_, err := f.lib.AddBook(ctx, "Emma", "Jane Austen")
	require.NoError(t, err)
	ann, err := f.lib.AddMember(ctx, "Ann")
	require.NoError(t, err)
	bob, err := f.lib.AddMember(ctx, "Bob")
	require.NoError(t, err)

	outcome, err := f.lib.Return(ctx, "1", "Emma")
	require.NoError(t, err)
	assert.Equal(t, library.OutcomeAlreadyReturned, outcome)

	outcome, err = f.lib.Borrow(ctx, "1", "Emma")
	require.NoError(t, err)
	require.Equal(t, library.OutcomeBorrowed, outcome)

	outcome, err = f.lib.Return(ctx, "2", "Emma")
	require.NoError(t, err)
	assert.Equal(t, library.OutcomeNotBorrowedByMember, outcome)

	book, err := f.lib.BookByTitle(ctx, "emma")
	require.NoError(t, err)
	assert.False(t, book.Available)

	outcome, err = f.lib.Return(ctx, "1", "EMMA")
	require.NoError(t, err)
	assert.Equal(t, library.OutcomeReturned, outcome)

	book, err = f.lib.BookByTitle(ctx, "Emma")
	require.NoError(t, err)
	assert.True(t, book.Available)

	m, err := f.lib.Member("1")
	require.NoError(t, err)
	assert.Equal(t, ann.Name, m.Name)
	assert.Empty(t, m.BorrowedBooks)
	assert.Equal(t, "None", m.Borrowed())

	m, err = f.lib.Member("2")
	require.NoError(t, err)
	assert.Equal(t, bob.Name, m.Name)

	entries, err := f.lib.Entries(ctx, "1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, library.StatusBorrowed, entries[0].Status)
	assert.Equal(t, library.StatusReturned, entries[1].Status)
}

func TestBorrowUnknown(t *testing.T) {
	f := openLibrary(t, t.TempDir())
	ctx := context.Background()

	_, err := f.lib.AddBook(ctx, "Dune", "Frank Herbert")
	require.NoError(t, err)
	_, err = f.lib.AddMember(ctx, "Ann")
	require.NoError(t, err)

	_, err = f.lib.Borrow(ctx, "7", "Dune")
	assert.True(t, errors.Is(err, library.ErrMemberNotFound))

	_, err = f.lib.Borrow(ctx, "1", "Emma")
	assert.True(t, errors.Is(err, library.ErrBookNotFound))

	_, err = f.lib.Return(ctx, "1", "Emma")
	assert.True(t, errors.Is(err, library.ErrBookNotFound))

	// both stores must be unlocked again
	book, err := f.lib.BookByTitle(ctx, "Dune")
	require.NoError(t, err)
	assert.True(t, book.Available)
}

func TestAddBookAndMember(t *testing.T) {
	f := openLibrary(t, t.TempDir())
	ctx := context.Background()

	dune, err := f.lib.AddBook(ctx, " Dune ", "Frank Herbert")
	require.NoError(t, err)
	assert.Equal(t, 1, dune.ID)
	assert.Equal(t, "Dune", dune.Title)
	assert.True(t, dune.Available)

	_, err = f.lib.AddBook(ctx, "dUNE", "Someone Else")
	assert.True(t, validate.HasCode(err, validate.CodeDuplicate))

	_, err = f.lib.AddBook(ctx, "  ", "Nobody")
	assert.True(t, validate.HasCode(err, validate.CodeRequired))

	for i, title := range []string{"Emma", "Ulysses", "Beloved", "Middlemarch", "Persuasion", "Hamlet", "Walden", "Ivanhoe", "Lolita"} {
		b, err := f.lib.AddBook(ctx, title, "")
		require.NoError(t, err)
		assert.Equal(t, i+2, b.ID)
	}

	books, err := f.lib.Books(ctx)
	require.NoError(t, err)
	require.Len(t, books, 10)
	for i, b := range books {
		assert.Equal(t, i+1, b.ID, "books list in numeric id order")
	}

	_, err = f.lib.AddMember(ctx, "Ann")
	require.NoError(t, err)
	_, err = f.lib.AddMember(ctx, "ann ")
	assert.True(t, validate.HasCode(err, validate.CodeDuplicate))

	members, err := f.lib.Members(ctx)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, []int{}, members[0].BorrowedBooks)
}

func TestIdsContinueFromExistingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "books.json"), `{"3": {"title": "Dune", "author": "", "available": true}, "12": {"title": "Emma", "author": "", "available": false}}`)

	f := openLibrary(t, dir)

	b, err := f.lib.AddBook(context.Background(), "Walden", "Thoreau")
	require.NoError(t, err)
	assert.Equal(t, 13, b.ID)
}

func TestBookIsRevertedWhenMemberCommitFails(t *testing.T) {
	dir := t.TempDir()
	f := openLibrary(t, dir)
	ctx := context.Background()

	_, err := f.lib.AddBook(ctx, "Dune", "Frank Herbert")
	require.NoError(t, err)
	_, err = f.lib.AddMember(ctx, "Ann")
	require.NoError(t, err)

	// a directory in place of the tmp file makes the members persist fail
	require.NoError(t, os.Mkdir(filepath.Join(dir, "members.json.tmp"), 0755))

	_, err = f.lib.Borrow(ctx, "1", "Dune")
	require.Error(t, err)
	assert.True(t, errors.Is(err, keeper.ErrDbFileWriteFailed))

	book, err := f.lib.BookByTitle(ctx, "Dune")
	require.NoError(t, err)
	assert.True(t, book.Available)

	b, err := os.ReadFile(filepath.Join(dir, "books.json"))
	require.NoError(t, err)
	assert.True(t, gjson.GetBytes(b, "1.available").Bool())

	m, err := f.lib.Member("1")
	require.NoError(t, err)
	assert.Empty(t, m.BorrowedBooks)

	entries, err := f.lib.Entries(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMemberBorrowed(t *testing.T) {
	m := library.Member{BorrowedBooks: []int{3, 10}}
	assert.True(t, m.Has(10))
	assert.False(t, m.Has(4))
	assert.Equal(t, "3, 10", m.Borrowed())
}

func TestMembersWithoutNamesBorrowIndependently(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "books.json"), `{
		"1": {"title": "Dune", "author": "Frank Herbert", "available": true},
		"2": {"title": "Emma", "author": "Jane Austen", "available": true}
	}`)
	writeFile(t, filepath.Join(dir, "members.json"), `{"1": {"borrowed_books": []}, "2": {"borrowed_books": []}}`)

	f := openLibrary(t, dir)
	ctx := context.Background()

	outcome, err := f.lib.Borrow(ctx, "1", "Dune")
	require.NoError(t, err)
	assert.Equal(t, library.OutcomeBorrowed, outcome)

	outcome, err = f.lib.Borrow(ctx, "2", "Emma")
	require.NoError(t, err)
	assert.Equal(t, library.OutcomeBorrowed, outcome)

	outcome, err = f.lib.Return(ctx, "2", "Emma")
	require.NoError(t, err)
	assert.Equal(t, library.OutcomeReturned, outcome)

	m, err := os.ReadFile(filepath.Join(dir, "members.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[1]`, gjson.GetBytes(m, "1.borrowed_books").Raw)
	assert.JSONEq(t, `[]`, gjson.GetBytes(m, "2.borrowed_books").Raw)
}
