package types

import (
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rotisserie/eris"
)

type Shape string

const (
	ShapeNone    Shape = ""
	ShapeText    Shape = "text"
	ShapeList    Shape = "list"
	ShapeRecords Shape = "records"
)

// Record maps a child field id to its trimmed value. Empty entries are never
// stored.
type Record map[string]string

func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Value is the tagged union held by a field: a single string, an ordered list
// of strings, or an ordered list of records. The zero Value holds nothing.
type Value struct {
	shape   Shape
	text    string
	list    []string
	records []Record
}

func Text(s string) Value {
	return Value{shape: ShapeText, text: s}
}

func List(items ...string) Value {
	return Value{shape: ShapeList, list: append([]string{}, items...)}
}

func Records(records ...Record) Value {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return Value{shape: ShapeRecords, records: out}
}

func (v Value) Shape() Shape { return v.shape }

func (v Value) IsZero() bool { return v.shape == ShapeNone }

// IsEmpty reports whether the value holds no usable content.
func (v Value) IsEmpty() bool {
	switch v.shape {
	case ShapeText:
		return v.text == ""
	case ShapeList:
		return len(v.list) == 0
	case ShapeRecords:
		return len(v.records) == 0
	default:
		return true
	}
}

func (v Value) Text() string { return v.text }

func (v Value) List() []string {
	if v.shape != ShapeList {
		return nil
	}
	return append([]string{}, v.list...)
}

func (v Value) Records() []Record {
	if v.shape != ShapeRecords {
		return nil
	}
	out := make([]Record, len(v.records))
	for i, r := range v.records {
		out[i] = r.Clone()
	}
	return out
}

// Clone returns a deep copy.
func (v Value) Clone() Value {
	switch v.shape {
	case ShapeList:
		return List(v.list...)
	case ShapeRecords:
		return Records(v.records...)
	default:
		return v
	}
}

func (v Value) Equal(o Value) bool {
	if v.shape != o.shape {
		return false
	}
	switch v.shape {
	case ShapeText:
		return v.text == o.text
	case ShapeList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
		return true
	case ShapeRecords:
		if len(v.records) != len(o.records) {
			return false
		}
		for i := range v.records {
			if len(v.records[i]) != len(o.records[i]) {
				return false
			}
			for k, val := range v.records[i] {
				if other, ok := o.records[i][k]; !ok || other != val {
					return false
				}
			}
		}
		return true
	default:
		return true
	}
}

// String renders the value for display without catalog knowledge. Record keys
// are sorted.
func (v Value) String() string {
	switch v.shape {
	case ShapeText:
		return v.text
	case ShapeList:
		return strings.Join(v.list, "; ")
	case ShapeRecords:
		parts := make([]string, 0, len(v.records))
		for _, r := range v.records {
			keys := make([]string, 0, len(r))
			for k := range r {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			pairs := make([]string, 0, len(keys))
			for _, k := range keys {
				pairs = append(pairs, k+": "+r[k])
			}
			parts = append(parts, strings.Join(pairs, ", "))
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}

// Interface returns the plain JSON-compatible form: string, []string or
// []map[string]string, nil for the zero value.
func (v Value) Interface() any {
	switch v.shape {
	case ShapeText:
		return v.text
	case ShapeList:
		return v.List()
	case ShapeRecords:
		out := make([]map[string]string, len(v.records))
		for i, r := range v.records {
			out[i] = map[string]string(r.Clone())
		}
		return out
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return sonic.ConfigStd.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := sonic.ConfigStd.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "types: decode value")
	}
	switch t := raw.(type) {
	case nil:
		*v = Value{}
	case string:
		*v = Text(t)
	case []any:
		if len(t) == 0 {
			*v = List()
			return nil
		}
		if _, ok := t[0].(map[string]any); ok {
			records := make([]Record, 0, len(t))
			for _, item := range t {
				obj, ok := item.(map[string]any)
				if !ok {
					return eris.New("types: mixed record list")
				}
				rec := make(Record, len(obj))
				for k, val := range obj {
					s, ok := val.(string)
					if !ok {
						return eris.New("types: record values must be strings")
					}
					rec[k] = s
				}
				records = append(records, rec)
			}
			*v = Value{shape: ShapeRecords, records: records}
			return nil
		}
		items := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return eris.New("types: list values must be strings")
			}
			items = append(items, s)
		}
		*v = Value{shape: ShapeList, list: items}
	default:
		return eris.New("types: unsupported value shape")
	}
	return nil
}
