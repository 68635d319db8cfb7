// Package catalog holds the ordered, immutable list of field definitions a
// guided session walks through.
package catalog

import (
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/tbxark/charterflow/types"
)

type Catalog struct {
	fields []types.Field
	index  map[string]int
}

func New(fields ...types.Field) (*Catalog, error) {
	if len(fields) == 0 {
		return nil, eris.New("catalog: no fields")
	}
	c := &Catalog{
		fields: make([]types.Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if err := validateField(f, false); err != nil {
			return nil, err
		}
		if _, dup := c.index[f.ID]; dup {
			return nil, eris.Errorf("catalog: duplicate field id %q", f.ID)
		}
		c.index[f.ID] = len(c.fields)
		c.fields = append(c.fields, f.Clone())
	}
	return c, nil
}

// MustNew is New for static catalogs; it panics on an invalid definition.
func MustNew(fields ...types.Field) *Catalog {
	c, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return c
}

func validateField(f types.Field, child bool) error {
	if strings.TrimSpace(f.ID) == "" {
		return eris.New("catalog: field id is required")
	}
	if !f.Kind.Valid() {
		return eris.Errorf("catalog: field %q has unknown kind %q", f.ID, f.Kind)
	}
	if f.MaxLength < 0 {
		return eris.Errorf("catalog: field %q has negative max length", f.ID)
	}
	if child {
		if f.Kind != types.KindScalar && f.Kind != types.KindDate {
			return eris.Errorf("catalog: child field %q must be scalar or date", f.ID)
		}
		return nil
	}
	if f.Kind != types.KindObjectList {
		if len(f.Children) > 0 {
			return eris.Errorf("catalog: field %q declares children but is %s", f.ID, f.Kind)
		}
		return nil
	}
	if len(f.Children) == 0 {
		return eris.Errorf("catalog: object list %q has no children", f.ID)
	}
	seen := make(map[string]bool, len(f.Children))
	for _, c := range f.Children {
		if err := validateField(c, true); err != nil {
			return eris.Wrapf(err, "catalog: field %q", f.ID)
		}
		if seen[c.ID] {
			return eris.Errorf("catalog: field %q has duplicate child %q", f.ID, c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

func (c *Catalog) Len() int { return len(c.fields) }

// Order returns the field ids in catalog order.
func (c *Catalog) Order() []string {
	out := make([]string, len(c.fields))
	for i, f := range c.fields {
		out[i] = f.ID
	}
	return out
}

func (c *Catalog) Fields() []types.Field {
	out := make([]types.Field, len(c.fields))
	for i, f := range c.fields {
		out[i] = f.Clone()
	}
	return out
}

func (c *Catalog) Field(id string) (types.Field, bool) {
	i, ok := c.index[id]
	if !ok {
		return types.Field{}, false
	}
	return c.fields[i].Clone(), true
}

// Label returns the display label for id, or id itself when unknown.
func (c *Catalog) Label(id string) string {
	if i, ok := c.index[id]; ok {
		return c.fields[i].DisplayName()
	}
	return id
}

// Find resolves a free-form reference to a field by id or label, ignoring case
// and punctuation. An exact match wins, then a unique prefix, then a unique
// substring.
func (c *Catalog) Find(query string) (types.Field, bool) {
	q := Fold(query)
	if q == "" {
		return types.Field{}, false
	}
	for _, f := range c.fields {
		if Fold(f.ID) == q || Fold(f.Label) == q {
			return f.Clone(), true
		}
	}
	match := func(fn func(s string) bool) (types.Field, bool) {
		found := -1
		for i, f := range c.fields {
			if fn(Fold(f.ID)) || fn(Fold(f.Label)) {
				if found >= 0 && found != i {
					return types.Field{}, false
				}
				found = i
			}
		}
		if found < 0 {
			return types.Field{}, false
		}
		return c.fields[found].Clone(), true
	}
	if f, ok := match(func(s string) bool { return strings.HasPrefix(s, q) }); ok {
		return f, true
	}
	return match(func(s string) bool { return strings.Contains(s, q) })
}

// Fold lowercases s and keeps only letters and digits.
func Fold(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
