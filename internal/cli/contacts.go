package cli

import (
	"context"
	"strings"

	"github.com/denismitr/keeper/internal/console"
	"github.com/denismitr/keeper/internal/contacts"
)

var contactHeaders = []string{"Name", "Phone", "Email", "Address"}

type contactsMenu struct {
	s    *Session
	book *contacts.Book
}

func runContacts(ctx context.Context, s *Session) error {
	st, err := s.Open("contacts.json", nil)
	if err != nil {
		return err
	}

	cm := &contactsMenu{
		s: s,
		book: contacts.New(st, contacts.Config{
			Region: s.Config.Contacts.PhoneRegion,
			Logger: s.Log,
		}),
	}

	m := console.NewMenu("Address Manager", s.Prompt, s.Report,
		console.Item{Label: "Add Contact", Action: cm.repeat(cm.add)},
		console.Item{Label: "View All Contacts", Action: cm.once(cm.viewAll)},
		console.Item{Label: "Search Contact", Action: cm.repeat(cm.search)},
		console.Item{Label: "Edit Contact", Action: cm.repeat(cm.edit)},
		console.Item{Label: "Delete Contact", Action: cm.repeat(cm.remove)},
		console.Item{Label: "Export All Contacts to CSV File", Action: cm.once(cm.export)},
	)
	m.Farewell = "Thank you for using this app."

	return m.Run(ctx)
}

func (cm *contactsMenu) repeat(fn console.Action) console.Action {
	return func(ctx context.Context) error {
		return cm.s.repeat(ctx, "Do you want to continue", fn)
	}
}

func (cm *contactsMenu) once(fn console.Action) console.Action {
	return func(ctx context.Context) error {
		return cm.s.handle(fn(ctx))
	}
}

func (cm *contactsMenu) add(ctx context.Context) error {
	cm.s.Println(console.Header("Add Contact"))

	answers := make([]string, 0, 4)
	for _, q := range []string{
		"Enter name of the contact: ",
		"Enter phone number: ",
		"Enter email: ",
		"Enter address: ",
	} {
		a, err := cm.s.Prompt.Line(q)
		if err != nil {
			return err
		}
		answers = append(answers, a)
	}

	c, err := cm.book.Add(ctx, answers[0], answers[1], answers[2], answers[3])
	if err != nil {
		return err
	}

	cm.s.Report.Info("Details of %s added successfully.", c.Name)

	return nil
}

func (cm *contactsMenu) viewAll(ctx context.Context) error {
	all, err := cm.book.All(ctx)
	if err != nil {
		return err
	}

	cm.s.Println(console.Header("All Contacts List"))
	cm.s.Println(console.Table(contactHeaders, contactRows(all)))

	return nil
}

func (cm *contactsMenu) search(ctx context.Context) error {
	cm.s.Println(console.Header("Search Contact"))

	attr, err := cm.s.Prompt.Line("Enter the name of the attribute you want to search (" +
		strings.Join(contacts.SearchAttributes, ", ") + "): ")
	if err != nil {
		return err
	}

	text, err := cm.s.Prompt.Line("Enter the text to search: ")
	if err != nil {
		return err
	}

	found, err := cm.book.Search(ctx, attr, text)
	if err != nil {
		return err
	}

	if len(found) == 0 {
		cm.s.Report.Warn("No results found.")
		return nil
	}

	cm.s.Println(console.Table(contactHeaders, contactRows(found)))

	return nil
}

func (cm *contactsMenu) edit(ctx context.Context) error {
	cm.s.Println(console.Header("Edit Contact"))

	name, err := cm.s.Prompt.Line("Enter the name of the contact that you want to edit: ")
	if err != nil {
		return err
	}

	c, err := cm.book.Get(name)
	if err != nil {
		return err
	}

	cm.s.Println(console.Table(contactHeaders, contactRows([]*contacts.Contact{c})))

	attr, err := cm.s.Prompt.Line("Enter the name of the attribute you want to edit (" +
		strings.Join(contacts.EditAttributes, ", ") + "): ")
	if err != nil {
		return err
	}

	value, err := cm.s.Prompt.Line("Enter the new value: ")
	if err != nil {
		return err
	}

	if _, err := cm.book.Edit(ctx, c.Name, attr, value); err != nil {
		return err
	}

	cm.s.Report.Info("Contact %s edited.", c.Name)

	return nil
}

func (cm *contactsMenu) remove(ctx context.Context) error {
	cm.s.Println(console.Header("Delete Contact"))

	name, err := cm.s.Prompt.Line("Enter the name of the contact that you want to delete: ")
	if err != nil {
		return err
	}

	if err := cm.book.Delete(ctx, name); err != nil {
		return err
	}

	cm.s.Report.Info("Contact %s deleted.", contacts.NormalizeName(name))

	return nil
}

func (cm *contactsMenu) export(ctx context.Context) error {
	cm.s.Println(console.Header("Export to CSV"))

	path, err := cm.book.ExportFile(ctx, cm.s.Config.DataDir)
	if err != nil {
		return err
	}

	cm.s.Report.Info("CSV file %s created successfully.", path)

	return nil
}

func contactRows(cs []*contacts.Contact) [][]string {
	rows := make([][]string, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, []string{c.Name, c.Phone, c.Email, c.Address})
	}
	return rows
}
