package types

type Kind string

const (
	KindScalar     Kind = "scalar"
	KindDate       Kind = "date"
	KindStringList Kind = "string_list"
	KindObjectList Kind = "object_list"
)

func (k Kind) Valid() bool {
	switch k {
	case KindScalar, KindDate, KindStringList, KindObjectList:
		return true
	default:
		return false
	}
}

// IsList reports whether values of this kind are ordered collections.
func (k Kind) IsList() bool {
	return k == KindStringList || k == KindObjectList
}

// Field is one static entry of a field catalog. Children are only used by
// object_list fields and describe the keys of each record.
type Field struct {
	ID        string   `json:"id" yaml:"id"`
	Label     string   `json:"label" yaml:"label"`
	Required  bool     `json:"required" yaml:"required"`
	Kind      Kind     `json:"kind" yaml:"kind"`
	Children  []Field  `json:"children,omitempty" yaml:"children,omitempty"`
	Aliases   []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	MaxLength int      `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Help      string   `json:"help,omitempty" yaml:"help,omitempty"`
	Example   string   `json:"example,omitempty" yaml:"example,omitempty"`
}

// DisplayName returns the label, falling back to the id.
func (f Field) DisplayName() string {
	if f.Label != "" {
		return f.Label
	}
	return f.ID
}

func (f Field) Child(id string) (Field, bool) {
	for _, c := range f.Children {
		if c.ID == id {
			return c, true
		}
	}
	return Field{}, false
}

func (f Field) Clone() Field {
	out := f
	if f.Children != nil {
		out.Children = make([]Field, len(f.Children))
		for i, c := range f.Children {
			out.Children[i] = c.Clone()
		}
	}
	if f.Aliases != nil {
		out.Aliases = append([]string(nil), f.Aliases...)
	}
	return out
}
