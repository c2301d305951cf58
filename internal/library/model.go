package library

import (
	"strconv"
	"strings"

	"github.com/denismitr/keeper"
	"github.com/pkg/errors"
)

// Unique json paths of each store. Open the stores with these so the
// index backs the duplicate checks done here.
var (
	BookUniqueFields   = []string{"title"}
	MemberUniqueFields = []string{"member_name"}
)

type Book struct {
	ID        int    `json:"-"`
	Title     string `json:"title" validate:"required"`
	Author    string `json:"author"`
	Available bool   `json:"available"`
}

type Member struct {
	ID            int    `json:"-"`
	Name          string `json:"member_name" validate:"required"`
	BorrowedBooks []int  `json:"borrowed_books"`
}

func (m *Member) Has(bookID int) bool {
	for _, id := range m.BorrowedBooks {
		if id == bookID {
			return true
		}
	}
	return false
}

func (m *Member) borrow(bookID int) {
	m.BorrowedBooks = append(m.BorrowedBooks, bookID)
}

// release drops the first occurrence of bookID.
func (m *Member) release(bookID int) {
	for i, id := range m.BorrowedBooks {
		if id == bookID {
			m.BorrowedBooks = append(m.BorrowedBooks[:i:i], m.BorrowedBooks[i+1:]...)
			return
		}
	}
}

// Borrowed renders the borrowed ids for listings.
func (m *Member) Borrowed() string {
	if len(m.BorrowedBooks) == 0 {
		return "None"
	}

	ids := make([]string, len(m.BorrowedBooks))
	for i, id := range m.BorrowedBooks {
		ids[i] = strconv.Itoa(id)
	}

	return strings.Join(ids, ", ")
}

// Entry is one borrow or return in the library journal.
type Entry struct {
	ID       string `json:"id"`
	Time     string `json:"transaction_time"`
	MemberID string `json:"member_id"`
	BookName string `json:"book_name"`
	Status   string `json:"status"`
}

const (
	StatusBorrowed = "Borrowed"
	StatusReturned = "Returned"
)

type Outcome string

const (
	OutcomeBorrowed            Outcome = "borrowed"
	OutcomeUnavailable         Outcome = "unavailable"
	OutcomeReturned            Outcome = "returned"
	OutcomeAlreadyReturned     Outcome = "already_returned"
	OutcomeNotBorrowedByMember Outcome = "not_borrowed_by_member"
)

func decodeBook(doc *keeper.Document) (*Book, error) {
	id, err := strconv.Atoi(doc.Key())
	if err != nil {
		return nil, errors.Wrapf(err, "book id %q is not numeric", doc.Key())
	}

	return &Book{
		ID:        id,
		Title:     doc.StringOrDefault("title", ""),
		Author:    doc.StringOrDefault("author", ""),
		Available: doc.BoolOrDefault("available", false),
	}, nil
}

func decodeMember(doc *keeper.Document) (*Member, error) {
	id, err := strconv.Atoi(doc.Key())
	if err != nil {
		return nil, errors.Wrapf(err, "member id %q is not numeric", doc.Key())
	}

	m := Member{ID: id}
	if err := doc.Unmarshal(&m); err != nil {
		return nil, err
	}

	if m.BorrowedBooks == nil {
		m.BorrowedBooks = []int{}
	}

	return &m, nil
}
