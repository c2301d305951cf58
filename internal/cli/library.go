package cli

import (
	"context"
	"strconv"

	"github.com/denismitr/keeper/internal/console"
	"github.com/denismitr/keeper/internal/library"
)

type libraryMenu struct {
	s   *Session
	lib *library.Library
}

func runLibrary(ctx context.Context, s *Session) error {
	books, err := s.Open("books.json", library.BookUniqueFields)
	if err != nil {
		return err
	}

	members, err := s.Open("members.json", library.MemberUniqueFields)
	if err != nil {
		return err
	}

	journal, err := s.Journal("library_transactions.json")
	if err != nil {
		return err
	}

	lm := &libraryMenu{s: s, lib: library.New(books, members, journal, s.Log)}

	m := console.NewMenu("Library Management", s.Prompt, s.Report,
		console.Item{Label: "Add Book", Action: lm.repeat("Do you want to continue", lm.addBook)},
		console.Item{Label: "Add Member", Action: lm.repeat("Do you want to continue", lm.addMember)},
		console.Item{Label: "Borrow Book", Action: lm.repeat("Do you want to checkout another book", lm.borrow)},
		console.Item{Label: "Return Book", Action: lm.repeat("Do you want to return another book", lm.giveBack)},
		console.Item{Label: "View All Books", Action: lm.once(lm.showBooks)},
		console.Item{Label: "View Members", Action: lm.once(lm.showMembers)},
	)
	m.Farewell = "Thank you for choosing us!"

	return m.Run(ctx)
}

func (lm *libraryMenu) repeat(question string, fn console.Action) console.Action {
	return func(ctx context.Context) error {
		return lm.s.repeat(ctx, question, fn)
	}
}

func (lm *libraryMenu) once(fn console.Action) console.Action {
	return func(ctx context.Context) error {
		return lm.s.handle(fn(ctx))
	}
}

func (lm *libraryMenu) addBook(ctx context.Context) error {
	title, err := lm.s.Prompt.Line("Enter title of the book: ")
	if err != nil {
		return err
	}

	author, err := lm.s.Prompt.Line("Enter the author of the book: ")
	if err != nil {
		return err
	}

	b, err := lm.lib.AddBook(ctx, title, author)
	if err != nil {
		return err
	}

	lm.s.Report.Info("Book %d added to library successfully.", b.ID)

	return nil
}

func (lm *libraryMenu) addMember(ctx context.Context) error {
	name, err := lm.s.Prompt.Line("Enter name of the member: ")
	if err != nil {
		return err
	}

	m, err := lm.lib.AddMember(ctx, name)
	if err != nil {
		return err
	}

	lm.s.Report.Info("Member %d saved successfully.", m.ID)

	return nil
}

func (lm *libraryMenu) askMemberAndBook(verb string) (memberID, title string, err error) {
	memberID, err = lm.s.Prompt.Line("Enter member ID: ")
	if err != nil {
		return "", "", err
	}

	if _, err := lm.lib.Member(memberID); err != nil {
		return "", "", err
	}

	title, err = lm.s.Prompt.Line("Enter the book name to be " + verb + ": ")
	if err != nil {
		return "", "", err
	}

	return memberID, title, nil
}

func (lm *libraryMenu) borrow(ctx context.Context) error {
	memberID, title, err := lm.askMemberAndBook("borrowed")
	if err != nil {
		return err
	}

	outcome, err := lm.lib.Borrow(ctx, memberID, title)
	if err != nil {
		return err
	}

	switch outcome {
	case library.OutcomeBorrowed:
		lm.s.Report.Info("Book %s checked out successfully.", title)
	case library.OutcomeUnavailable:
		lm.s.Report.Info("%s is unavailable as it has been checked out.", title)
	}

	return nil
}

func (lm *libraryMenu) giveBack(ctx context.Context) error {
	memberID, title, err := lm.askMemberAndBook("returned")
	if err != nil {
		return err
	}

	outcome, err := lm.lib.Return(ctx, memberID, title)
	if err != nil {
		return err
	}

	switch outcome {
	case library.OutcomeReturned:
		lm.s.Report.Info("Book %s returned successfully.", title)
	case library.OutcomeAlreadyReturned:
		lm.s.Report.Info("%s has already been returned.", title)
	case library.OutcomeNotBorrowedByMember:
		lm.s.Report.Warn("Book %s was not checked out by %s, can't be returned.", title, memberID)
	}

	return nil
}

func (lm *libraryMenu) showBooks(ctx context.Context) error {
	books, err := lm.lib.Books(ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(books))
	for _, b := range books {
		rows = append(rows, []string{strconv.Itoa(b.ID), b.Title, b.Author, strconv.FormatBool(b.Available)})
	}

	lm.s.Println(console.Table([]string{"Book Id", "Name", "Author", "Available"}, rows))
	if len(books) > 0 {
		lm.s.Report.Info("%d books fetched.", len(books))
	}

	return nil
}

func (lm *libraryMenu) showMembers(ctx context.Context) error {
	members, err := lm.lib.Members(ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(members))
	for _, m := range members {
		rows = append(rows, []string{strconv.Itoa(m.ID), m.Name, m.Borrowed()})
	}

	lm.s.Println(console.Table([]string{"Member Id", "Name", "Books borrowed"}, rows))
	if len(members) > 0 {
		lm.s.Report.Info("%d members fetched.", len(members))
	}

	return nil
}
