package normalize

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

type shape int

const (
	shapeNone shape = iota
	shapeText
	shapeList
	shapeObject
)

// raw is the decoded form of an arbitrary tool-call value. Every sanitizer
// switches over shape exhaustively instead of probing Go types.
type raw struct {
	shape  shape
	text   string
	list   []any
	object map[string]any
}

func decode(v any) raw {
	switch t := v.(type) {
	case nil:
		return raw{shape: shapeNone}
	case string:
		return raw{shape: shapeText, text: t}
	case json.Number:
		return raw{shape: shapeText, text: t.String()}
	case float64:
		return raw{shape: shapeText, text: strconv.FormatFloat(t, 'f', -1, 64)}
	case float32:
		return raw{shape: shapeText, text: strconv.FormatFloat(float64(t), 'f', -1, 32)}
	case int:
		return raw{shape: shapeText, text: strconv.Itoa(t)}
	case int64:
		return raw{shape: shapeText, text: strconv.FormatInt(t, 10)}
	case bool:
		return raw{shape: shapeText, text: strconv.FormatBool(t)}
	case []any:
		return raw{shape: shapeList, list: t}
	case []string:
		list := make([]any, len(t))
		for i, s := range t {
			list[i] = s
		}
		return raw{shape: shapeList, list: list}
	case []map[string]any:
		list := make([]any, len(t))
		for i, m := range t {
			list[i] = m
		}
		return raw{shape: shapeList, list: list}
	case map[string]any:
		return raw{shape: shapeObject, object: t}
	case map[string]string:
		obj := make(map[string]any, len(t))
		for k, s := range t {
			obj[k] = s
		}
		return raw{shape: shapeObject, object: obj}
	default:
		return raw{shape: shapeNone}
	}
}

// textKeys are the keys consulted when an object stands in for a plain string.
var textKeys = []string{"value", "text", "name", "title", "label"}

// scalarText reduces a raw value to one string. ok is false when the shape
// cannot represent a string at all.
func scalarText(r raw) (string, bool) {
	switch r.shape {
	case shapeNone:
		return "", true
	case shapeText:
		return r.text, true
	case shapeList:
		if len(r.list) == 0 {
			return "", true
		}
		return scalarText(decode(r.list[0]))
	case shapeObject:
		for _, k := range textKeys {
			if v, ok := r.object[k]; ok {
				if s, ok := scalarText(decode(v)); ok {
					return s, true
				}
			}
		}
		return "", false
	default:
		return "", false
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// splitEntries breaks free text into list entries on line breaks, removing
// bullet and numbering markers.
func splitEntries(s string) []string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, bulletPattern.ReplaceAllString(line, ""))
	}
	return out
}
