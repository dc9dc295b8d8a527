// Package field models one report column: where its value comes from
// and how it is resolved against raw platform response data.
package field

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hargabyte/capreport/internal/expr"
)

// ErrLookup is returned when a path segment or row reference does not
// resolve. Callers decide whether it is fatal; report assembly maps it
// to a null cell.
var ErrLookup = errors.New("lookup failed")

// Kind identifies how a field's value is produced.
type Kind string

const (
	// KindString is a literal value copied into every row.
	KindString Kind = "string"

	// KindProperty resolves a colon-delimited path in the entity record.
	KindProperty Kind = "property"

	// KindCommodity resolves a named stat from an entity stats query.
	KindCommodity Kind = "commodity"

	// KindTemplate resolves a named resource from a capacity template.
	KindTemplate Kind = "template"

	// KindComputed evaluates a sandboxed expression over other fields.
	KindComputed Kind = "computed"
)

// ParseKind parses a field kind from configuration text.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindString:
		return KindString, nil
	case KindProperty:
		return KindProperty, nil
	case KindCommodity:
		return KindCommodity, nil
	case KindTemplate:
		return KindTemplate, nil
	case KindComputed:
		return KindComputed, nil
	default:
		return "", fmt.Errorf("unknown field type %q (expected string, property, commodity, template, or computed)", s)
	}
}

// Field is one report column definition. Name is set only for
// commodity and template fields and holds the platform-side stat or
// resource name, which is case sensitive. Value holds the literal, the
// lookup path, or the computed expression depending on Kind. Fields
// without a Label are intermediate: usable by computed expressions but
// dropped from the final output.
type Field struct {
	ID    string
	Kind  Kind
	Name  string
	Value string
	Label string
}

// Config is the raw field definition as it appears in a report file.
type Config struct {
	ID    string `yaml:"id"`
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
	Label string `yaml:"label,omitempty"`
}

// New builds a Field from its configuration entry. Commodity and
// template values are split on the first colon into the platform name
// and the value path within each observation record.
func New(cfg Config) (*Field, error) {
	if cfg.ID == "" {
		return nil, errors.New("field is missing an id")
	}

	kind, err := ParseKind(cfg.Type)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", cfg.ID, err)
	}

	f := &Field{ID: cfg.ID, Kind: kind, Label: cfg.Label}

	switch kind {
	case KindCommodity, KindTemplate:
		name, path, found := strings.Cut(cfg.Value, ":")
		if !found || name == "" {
			return nil, fmt.Errorf("field %q: %s value must be name:path, got %q", cfg.ID, kind, cfg.Value)
		}
		f.Name = name
		f.Value = path
	case KindString, KindProperty, KindComputed:
		f.Value = cfg.Value
	}

	return f, nil
}

// TreeGet descends a colon-delimited path into nested response data:
// "a:b:c" resolves data["a"]["b"]["c"]. A missing segment or a
// non-mapping midway fails with ErrLookup.
func TreeGet(data any, path string) (any, error) {
	key, rest, more := strings.Cut(path, ":")

	m, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a mapping", ErrLookup, key)
	}

	v, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing key %q", ErrLookup, key)
	}

	if more {
		return TreeGet(v, rest)
	}
	return v, nil
}

// Get resolves the field's own value path against data.
func (f *Field) Get(data any) (any, error) {
	return TreeGet(data, f.Value)
}

var refPattern = regexp.MustCompile(`\$(\w+)`)

// Compute resolves a computed field against a row of already-resolved
// values. Each $id token is replaced with the textual form of row[id]
// and the substituted expression is evaluated in the sandbox. Two
// failures are expected and mapped to neutral values: a reference to a
// field absent from the row yields nil, and division by zero yields 0.
// Sandbox violations are never masked.
func (f *Field) Compute(row map[string]any) (any, error) {
	text := f.Value
	var missing error

	text = refPattern.ReplaceAllStringFunc(text, func(tok string) string {
		id := tok[1:]
		v, ok := row[id]
		if !ok {
			if missing == nil {
				missing = fmt.Errorf("%w: no field %q in row", ErrLookup, id)
			}
			return tok
		}
		return expr.FormatValue(v)
	})

	if missing != nil {
		return nil, missing
	}

	v, err := expr.Evaluate(text)
	if errors.Is(err, expr.ErrDivisionByZero) {
		return float64(0), nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
