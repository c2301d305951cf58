// Package library tracks books and members in two keeper stores and
// moves books between them on borrow and return.
package library

import (
	"context"
	"strconv"
	"strings"

	"github.com/denismitr/keeper"
	"github.com/denismitr/keeper/internal/validate"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

var ErrMemberNotFound = errors.New("member with this id does not exist")
var ErrBookNotFound = errors.New("book with this name does not exist")

type Library struct {
	books   *keeper.Store
	members *keeper.Store
	journal *keeper.Journal
	log     *zap.Logger
}

func New(books, members *keeper.Store, journal *keeper.Journal, lg *zap.Logger) *Library {
	if lg == nil {
		lg = zap.NewNop()
	}

	return &Library{
		books:   books,
		members: members,
		journal: journal,
		log:     lg.Named("library"),
	}
}

func (l *Library) AddBook(ctx context.Context, title, author string) (*Book, error) {
	title, err := validate.Required("Title", title)
	if err != nil {
		return nil, err
	}

	b := &Book{Title: title, Author: strings.TrimSpace(author), Available: true}
	if err := validate.Struct(b); err != nil {
		return nil, err
	}

	err = l.books.Update(ctx, func(tx *keeper.Tx) error {
		taken := func(v string) bool {
			_, ok, _ := findByField(ctx, tx, "title", v)
			return ok
		}

		if err := validate.Unique("Book", title, taken); err != nil {
			return err
		}

		id, err := nextID(ctx, tx)
		if err != nil {
			return err
		}

		b.ID = id
		return tx.Insert(strconv.Itoa(id), b)
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("book added", zap.Int("book", b.ID), zap.String("title", b.Title))

	return b, nil
}

func (l *Library) AddMember(ctx context.Context, name string) (*Member, error) {
	name, err := validate.Required("Member name", name)
	if err != nil {
		return nil, err
	}

	m := &Member{Name: name, BorrowedBooks: []int{}}

	err = l.members.Update(ctx, func(tx *keeper.Tx) error {
		taken := func(v string) bool {
			_, ok, _ := findByField(ctx, tx, "member_name", v)
			return ok
		}

		if err := validate.Unique("Member", name, taken); err != nil {
			return err
		}

		id, err := nextID(ctx, tx)
		if err != nil {
			return err
		}

		m.ID = id
		return tx.Insert(strconv.Itoa(id), m)
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("member added", zap.Int("member", m.ID), zap.String("name", m.Name))

	return m, nil
}

func (l *Library) Member(memberID string) (*Member, error) {
	doc, err := l.members.Get(strings.TrimSpace(memberID))
	if err != nil {
		if errors.Is(err, keeper.ErrKeyDoesNotExist) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	return decodeMember(doc)
}

// BookByTitle matches the title case-insensitively.
func (l *Library) BookByTitle(ctx context.Context, title string) (*Book, error) {
	var b *Book
	err := l.books.View(ctx, func(tx *keeper.Tx) error {
		doc, ok, err := findByField(ctx, tx, "title", title)
		if err != nil {
			return err
		}

		if !ok {
			return ErrBookNotFound
		}

		b, err = decodeBook(doc)
		return err
	})

	return b, err
}

// Borrow checks a book out to a member. A checked out book yields
// OutcomeUnavailable and leaves both stores untouched.
func (l *Library) Borrow(ctx context.Context, memberID, title string) (Outcome, error) {
	return l.move(ctx, memberID, title, func(b *Book, m *Member) Outcome {
		if !b.Available {
			return OutcomeUnavailable
		}

		b.Available = false
		m.borrow(b.ID)

		return OutcomeBorrowed
	})
}

// Return gives a book back. Only the member holding the book can return
// it.
func (l *Library) Return(ctx context.Context, memberID, title string) (Outcome, error) {
	return l.move(ctx, memberID, title, func(b *Book, m *Member) Outcome {
		if b.Available {
			return OutcomeAlreadyReturned
		}

		if !m.Has(b.ID) {
			return OutcomeNotBorrowedByMember
		}

		b.Available = true
		m.release(b.ID)

		return OutcomeReturned
	})
}

type transition func(b *Book, m *Member) Outcome

// move runs a borrow or return across both stores. The book commit goes
// first; when the member commit then fails the book is put back.
func (l *Library) move(ctx context.Context, memberID, title string, apply transition) (Outcome, error) {
	memberID = strings.TrimSpace(memberID)

	booksTx, err := l.books.Begin(ctx, false)
	if err != nil {
		return "", err
	}

	membersTx, err := l.members.Begin(ctx, false)
	if err != nil {
		_ = booksTx.Rollback()
		return "", err
	}

	rollback := func(err error) (Outcome, error) {
		_ = membersTx.Rollback()
		_ = booksTx.Rollback()
		return "", err
	}

	m, err := memberInTx(membersTx, memberID)
	if err != nil {
		return rollback(err)
	}

	doc, ok, err := findByField(ctx, booksTx, "title", title)
	if err != nil {
		return rollback(err)
	}
	if !ok {
		return rollback(ErrBookNotFound)
	}

	b, err := decodeBook(doc)
	if err != nil {
		return rollback(err)
	}

	var before Book
	if err := copier.Copy(&before, b); err != nil {
		return rollback(errors.Wrap(err, "could not copy book"))
	}

	outcome := apply(b, m)

	var status string
	switch outcome {
	case OutcomeBorrowed:
		status = StatusBorrowed
	case OutcomeReturned:
		status = StatusReturned
	default:
		_ = membersTx.Rollback()
		_ = booksTx.Rollback()
		l.log.Info("book not moved",
			zap.String("member", memberID),
			zap.Int("book", b.ID),
			zap.String("outcome", string(outcome)),
		)
		return outcome, nil
	}

	bookKey := doc.Key()
	if err := booksTx.Replace(bookKey, b); err != nil {
		return rollback(err)
	}

	if err := membersTx.Replace(memberID, m); err != nil {
		return rollback(err)
	}

	if err := booksTx.Commit(); err != nil {
		_ = membersTx.Rollback()
		return "", err
	}

	if err := membersTx.Commit(); err != nil {
		if revertErr := l.books.Update(ctx, func(tx *keeper.Tx) error {
			return tx.Replace(bookKey, &before)
		}); revertErr != nil {
			l.log.Error("could not revert book after member commit failed",
				zap.Int("book", b.ID),
				zap.Error(revertErr),
			)
		}

		return "", err
	}

	l.log.Info("book moved",
		zap.String("member", memberID),
		zap.Int("book", b.ID),
		zap.String("status", status),
	)

	if err := l.record(ctx, memberID, b.Title, status); err != nil {
		return outcome, err
	}

	return outcome, nil
}

func (l *Library) record(ctx context.Context, memberID, bookName, status string) error {
	at := l.journal.Now()
	_, err := l.journal.Append(ctx, memberID, at, Entry{
		ID:       uuid.NewString(),
		Time:     at.Format(keeper.JournalTimeLayout),
		MemberID: memberID,
		BookName: bookName,
		Status:   status,
	})

	return err
}

func (l *Library) Books(ctx context.Context) ([]*Book, error) {
	docs, err := l.books.Find(ctx, keeper.Q())
	if err != nil {
		return nil, err
	}

	books := make([]*Book, 0, len(docs))
	for _, d := range docs {
		b, err := decodeBook(d)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}

	return books, nil
}

func (l *Library) Members(ctx context.Context) ([]*Member, error) {
	docs, err := l.members.Find(ctx, keeper.Q())
	if err != nil {
		return nil, err
	}

	members := make([]*Member, 0, len(docs))
	for _, d := range docs {
		m, err := decodeMember(d)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	return members, nil
}

func (l *Library) Entries(ctx context.Context, memberID string) ([]Entry, error) {
	docs, err := l.journal.Entries(ctx, strings.TrimSpace(memberID))
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(docs))
	for _, d := range docs {
		var e Entry
		if err := d.Unmarshal(&e); err != nil {
			return nil, errors.Wrapf(err, "entry %s", d.Key())
		}
		entries = append(entries, e)
	}

	return entries, nil
}

func memberInTx(tx *keeper.Tx, memberID string) (*Member, error) {
	doc, err := tx.Get(memberID)
	if err != nil {
		if errors.Is(err, keeper.ErrKeyDoesNotExist) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	return decodeMember(doc)
}

// findByField resolves a unique value through the store index, falling
// back to a scan for stores opened without one.
func findByField(ctx context.Context, tx *keeper.Tx, field, value string) (*keeper.Document, bool, error) {
	value = strings.TrimSpace(value)

	if key, ok := tx.Lookup(field, value); ok {
		doc, err := tx.Get(key)
		if err != nil {
			return nil, false, err
		}
		return doc, true, nil
	}

	var found *keeper.Document
	q := keeper.Q().Where(field, func(v gjson.Result) bool {
		return strings.EqualFold(strings.TrimSpace(v.String()), value)
	})

	err := tx.Scan(ctx, q, func(d *keeper.Document) bool {
		found = d
		return false
	})
	if err != nil {
		return nil, false, err
	}

	return found, found != nil, nil
}

// nextID is one past the highest numeric key, starting at 1.
func nextID(ctx context.Context, tx *keeper.Tx) (int, error) {
	highest := 0
	err := tx.Scan(ctx, keeper.Q().Order(keeper.Descend), func(d *keeper.Document) bool {
		n, err := strconv.Atoi(d.Key())
		if err != nil || n < 1 || strconv.Itoa(n) != d.Key() {
			return true
		}

		highest = n
		return false
	})

	return highest + 1, err
}
