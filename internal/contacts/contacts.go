// Package contacts is an address book keyed by title-cased contact name.
package contacts

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/denismitr/keeper"
	"github.com/denismitr/keeper/internal/validate"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var ErrContactNotFound = errors.New("contact not found by this name")
var ErrNothingToExport = errors.New("no contacts to export")

const DefaultRegion = "IN"

// exportTimeLayout is ddmmYYYYHHMMSS.
const exportTimeLayout = "02012006150405"

var (
	SearchAttributes = []string{"name", "phone", "email", "address"}
	EditAttributes   = []string{"phone", "email", "address"}
)

type Contact struct {
	Name    string `json:"-"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

type Config struct {
	// Region used to parse phone numbers without a country code.
	Region string
	Logger *zap.Logger
	Now    func() time.Time
}

type Book struct {
	s      *keeper.Store
	region string
	now    func() time.Time
	log    *zap.Logger
}

func New(s *keeper.Store, cfg Config) *Book {
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Book{
		s:      s,
		region: cfg.Region,
		now:    cfg.Now,
		log:    cfg.Logger.Named("contacts"),
	}
}

// NormalizeName is the key a contact is stored under.
func NormalizeName(name string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(name))
}

func (b *Book) Add(ctx context.Context, name, phone, email, address string) (*Contact, error) {
	name, err := validate.Required("Name", name)
	if err != nil {
		return nil, err
	}
	name = NormalizeName(name)

	if err := validate.Unique("Contact", name, b.s.Has); err != nil {
		return nil, err
	}

	c := &Contact{Name: name, Address: strings.TrimSpace(address)}

	if c.Phone, err = validate.Phone(phone, b.region); err != nil {
		return nil, err
	}

	if c.Email, err = validate.Email(email); err != nil {
		return nil, err
	}

	err = b.s.Update(ctx, func(tx *keeper.Tx) error {
		return tx.Insert(name, c)
	})
	if err != nil {
		if errors.Is(err, keeper.ErrKeyAlreadyExists) {
			return nil, validate.Unique("Contact", name, func(string) bool { return true })
		}
		return nil, err
	}

	b.log.Info("contact added", zap.String("name", name))

	return c, nil
}

func (b *Book) Get(name string) (*Contact, error) {
	doc, err := b.s.Get(NormalizeName(name))
	if err != nil {
		if errors.Is(err, keeper.ErrKeyDoesNotExist) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}

	return decodeContact(doc)
}

// All lists every contact sorted by name.
func (b *Book) All(ctx context.Context) ([]*Contact, error) {
	return b.find(ctx, keeper.Q())
}

// Search matches text as a case-insensitive substring of one attribute.
func (b *Book) Search(ctx context.Context, attr, text string) ([]*Contact, error) {
	attr, err := validate.Choice("Search attribute", attr, SearchAttributes...)
	if err != nil {
		return nil, err
	}

	text = strings.ToLower(strings.TrimSpace(text))

	if attr == "name" {
		all, err := b.All(ctx)
		if err != nil {
			return nil, err
		}

		var found []*Contact
		for _, c := range all {
			if strings.Contains(strings.ToLower(c.Name), text) {
				found = append(found, c)
			}
		}

		return found, nil
	}

	return b.find(ctx, keeper.Q().Where(attr, func(v gjson.Result) bool {
		return strings.Contains(strings.ToLower(v.String()), text)
	}))
}

// Edit changes one attribute. Phone and email are validated again,
// address is free text.
func (b *Book) Edit(ctx context.Context, name, attr, value string) (*Contact, error) {
	attr, err := validate.Choice("Edit attribute", attr, EditAttributes...)
	if err != nil {
		return nil, err
	}

	key := NormalizeName(name)

	var c *Contact
	err = b.s.Update(ctx, func(tx *keeper.Tx) error {
		doc, err := tx.Get(key)
		if err != nil {
			if errors.Is(err, keeper.ErrKeyDoesNotExist) {
				return ErrContactNotFound
			}
			return err
		}

		if c, err = decodeContact(doc); err != nil {
			return err
		}

		switch attr {
		case "phone":
			c.Phone, err = validate.Phone(value, b.region)
		case "email":
			c.Email, err = validate.Email(value)
		case "address":
			c.Address = strings.TrimSpace(value)
		}
		if err != nil {
			return err
		}

		return tx.Replace(key, c)
	})
	if err != nil {
		return nil, err
	}

	b.log.Info("contact edited", zap.String("name", key), zap.String("attribute", attr))

	return c, nil
}

func (b *Book) Delete(ctx context.Context, name string) error {
	key := NormalizeName(name)

	err := b.s.Update(ctx, func(tx *keeper.Tx) error {
		if err := tx.Remove(key); err != nil {
			if errors.Is(err, keeper.ErrKeyDoesNotExist) {
				return ErrContactNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	b.log.Info("contact deleted", zap.String("name", key))

	return nil
}

// ExportCSV writes a header row and one row per contact, sorted by name,
// and returns the number of contacts written.
func (b *Book) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	all, err := b.All(ctx)
	if err != nil {
		return 0, err
	}

	if len(all) == 0 {
		return 0, ErrNothingToExport
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Name", "Phone", "Email", "Address"}); err != nil {
		return 0, errors.Wrap(err, "could not write csv header")
	}

	for _, c := range all {
		if err := cw.Write([]string{c.Name, c.Phone, c.Email, c.Address}); err != nil {
			return 0, errors.Wrapf(err, "could not write contact %s", c.Name)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, errors.Wrap(err, "could not flush csv")
	}

	return len(all), nil
}

// ExportFile writes contacts_<ddmmYYYYHHMMSS>.csv into dir and returns
// its path.
func (b *Book) ExportFile(ctx context.Context, dir string) (string, error) {
	if b.s.Count() == 0 {
		return "", ErrNothingToExport
	}

	path := filepath.Join(dir, "contacts_"+b.now().Format(exportTimeLayout)+".csv")

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "could not create %s", path)
	}

	n, err := b.ExportCSV(ctx, f)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}

	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "could not close %s", path)
	}

	b.log.Info("contacts exported", zap.String("file", path), zap.Int("contacts", n))

	return path, nil
}

func (b *Book) find(ctx context.Context, q *keeper.QueryOptions) ([]*Contact, error) {
	docs, err := b.s.Find(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]*Contact, 0, len(docs))
	for _, d := range docs {
		c, err := decodeContact(d)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})

	return out, nil
}

func decodeContact(doc *keeper.Document) (*Contact, error) {
	m, err := doc.M()
	if err != nil {
		return nil, err
	}

	return &Contact{
		Name:    doc.Key(),
		Phone:   m.String("phone"),
		Email:   m.String("email"),
		Address: m.String("address"),
	}, nil
}
