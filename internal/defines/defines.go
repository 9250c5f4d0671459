// Package defines flattens preprocessor define lists into a
// symbol lookup table.
package defines

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/shlex"
)

var (
	// ErrUndefinedSymbol is returned when a symbol is absent from a Table.
	ErrUndefinedSymbol = errors.New("undefined preprocessor symbol")
	// ErrMalformedDefine is returned for define entries of an unsupported shape.
	ErrMalformedDefine = errors.New("malformed preprocessor define")
)

// Pair is a two-element define binding, NAME=VALUE.
type Pair struct {
	Name  string
	Value string
}

// Table maps define symbols to their raw values. Bare symbols map to "".
type Table map[string]string

// Extract flattens a mixed-shape define list. Each entry is
// either a bare symbol (string), a Pair, or an ordered list whose first
// element is the symbol and second the value; extra list elements are
// ignored. When a symbol repeats, the later binding wins.
func Extract(raw []any) (Table, error) {
	table := make(Table, len(raw))
	for i, entry := range raw {
		name, value, err := flatten(entry)
		if err != nil {
			return nil, fmt.Errorf("define #%d: %w", i, err)
		}
		table[name] = value
	}
	return table, nil
}

func flatten(entry any) (string, string, error) {
	switch v := entry.(type) {
	case string:
		name := strings.TrimSpace(v)
		if name == "" {
			return "", "", fmt.Errorf("%w: empty symbol", ErrMalformedDefine)
		}
		return name, "", nil
	case Pair:
		if strings.TrimSpace(v.Name) == "" {
			return "", "", fmt.Errorf("%w: empty symbol", ErrMalformedDefine)
		}
		return strings.TrimSpace(v.Name), v.Value, nil
	case []string:
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		return flattenList(items)
	case []any:
		return flattenList(v)
	default:
		return "", "", fmt.Errorf("%w: unsupported entry %v (%T)", ErrMalformedDefine, entry, entry)
	}
}

func flattenList(items []any) (string, string, error) {
	if len(items) < 2 {
		return "", "", fmt.Errorf("%w: list needs a symbol and a value, got %v", ErrMalformedDefine, items)
	}
	name, ok := items[0].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return "", "", fmt.Errorf("%w: list symbol must be a non-empty string, got %v", ErrMalformedDefine, items[0])
	}
	value := ""
	if items[1] != nil {
		value = fmt.Sprintf("%v", items[1])
	}
	return strings.TrimSpace(name), value, nil
}

// Lookup returns the raw value bound to name.
func (t Table) Lookup(name string) (string, error) {
	value, ok := t[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUndefinedSymbol, name)
	}
	return value, nil
}

// Unquoted returns the value bound to name with surrounding quotes and
// their escapes removed, so `"x"` and `\"x\"` both yield x.
func (t Table) Unquoted(name string) (string, error) {
	value, err := t.Lookup(name)
	if err != nil {
		return "", err
	}
	return Unquote(value), nil
}

// Symbols returns the table keys in sorted order.
func (t Table) Symbols() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Quote wraps value in escaped double quotes so it survives the compiler
// command line and reaches the preprocessor as a string literal.
func Quote(value string) string {
	return `\"` + value + `\"`
}

// Unquote strips one layer of (optionally escaped) double quotes.
func Unquote(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, `\"`)
	value = strings.TrimSuffix(value, `\"`)
	return strings.Trim(value, `"`)
}

// Flag renders a -D build flag binding name to a quoted string value,
// single-quoted so the build tool's own flag splitting keeps the inner
// double quotes.
func Flag(name, value string) string {
	return fmt.Sprintf(`'-D%s="%s"'`, name, value)
}

// ParseFlags extracts the define entries from raw build flag strings.
// -DNAME yields a bare symbol, -DNAME=VALUE and -D NAME=VALUE yield a
// Pair. Every other flag is ignored.
func ParseFlags(flags []string) ([]any, error) {
	var tokens []string
	for _, flag := range flags {
		parts, err := shlex.Split(flag)
		if err != nil {
			return nil, fmt.Errorf("split build flags %q: %w", flag, err)
		}
		tokens = append(tokens, parts...)
	}

	var out []any
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !strings.HasPrefix(tok, "-D") {
			continue
		}
		body := strings.TrimPrefix(tok, "-D")
		if body == "" {
			if i+1 >= len(tokens) {
				return nil, fmt.Errorf("%w: -D without a symbol", ErrMalformedDefine)
			}
			i++
			body = tokens[i]
		}
		name, value, hasValue := strings.Cut(body, "=")
		if name == "" {
			return nil, fmt.Errorf("%w: %q", ErrMalformedDefine, tok)
		}
		if hasValue {
			out = append(out, Pair{Name: name, Value: value})
		} else {
			out = append(out, name)
		}
	}
	return out, nil
}
