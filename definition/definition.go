// Package definition holds the mode definition tables that describe how each
// external compression, decompression or listing program is run.
//
// A definition row is an ordered list of values that follows a field Schema:
//
//	key: [func, cmd, args, id, extensions, binaries]
//	"tar": ["common", "tar", ["-cpf", "%(filename)s", "-C", "%(basedir)s", "%(source)s"], "TAR", ["tar"], ["tar"]]
//
//  1. func - the handler that runs the program, common, rsync, squashfs or a registered function name
//  2. cmd - the external program
//  3. args - the argument template, see the placeholders below
//  4. id - the label that identifies the program in logs and errors
//  5. extensions - the file extensions handled by the mode, in order of preference
//  6. binaries - the programs that must be installed for the mode to be usable
//
// Argument templates may contain the named placeholders
// %(source)s, %(destination)s, %(basedir)s, %(filename)s, %(arch)s,
// %(comp_prog)s, %(decomp_opt)s and %(list_xattrs_opt)s,
// plus the other_options token which is replaced with any extra
// options given by the caller, or removed when there are none.
package definition

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Defacto2/decomp/command"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrKind   = errors.New("unknown definitions type")
	ErrSchema = errors.New("definition does not match the field schema")
	ErrSource = errors.New("could not read the definitions")
)

// TypeKey is the reserved definition key that names the Kind of a table,
// followed by a description.
const TypeKey = "Type"

// Kind is the purpose of a definition table.
type Kind int

const (
	Unknown       Kind = iota // Unknown is an unset table kind.
	Compression               // Compression tables create archives.
	Decompression             // Decompression tables extract archives.
	Listing                   // Listing tables print the content of archives.
)

func (k Kind) String() string {
	switch k {
	case Compression:
		return "Compression"
	case Decompression:
		return "Decompression"
	case Listing:
		return "Contents"
	case Unknown:
	}
	return "Unknown"
}

// ParseKind returns the Kind for the named type, the match is case-insensitive.
// Both "Contents" and "Listing" are accepted for the Listing kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "compression", "compress":
		return Compression, nil
	case "decompression", "decompress", "extract":
		return Decompression, nil
	case "contents", "listing", "list":
		return Listing, nil
	}
	return Unknown, errors.Errorf("%w: %q", ErrKind, name)
}

// Type is the value type of a definition field.
type Type int

const (
	String Type = iota // String fields hold a single value.
	List               // List fields hold an ordered list of values.
)

// Field is a named and typed position in a definition row.
type Field struct {
	Name string // Name of the field, func, cmd, args, id, extensions or binaries.
	Type Type   // Type of the value.
	Null bool   // Null is true if the value may be empty or null.
}

// Fields is an ordered field schema.
type Fields []Field

// Names returns the field names in order.
func (f Fields) Names() []string {
	names := make([]string, len(f))
	for i, field := range f {
		names[i] = field.Name
	}
	return names
}

// Schema is the complete six field schema used by the builtin tables.
var Schema = Fields{
	{Name: "func", Type: String},
	{Name: "cmd", Type: String},
	{Name: "args", Type: List},
	{Name: "id", Type: String},
	{Name: "extensions", Type: List, Null: true},
	{Name: "binaries", Type: List, Null: true},
}

// Legacy is the five field schema without the binaries field.
// Tables built with it require only the cmd program of each mode.
var Legacy = slices.Clip(Schema[:5])

// Row is a single, untyped definition as read from a source.
type Row struct {
	Key    string // Key is the mode name, such as "tar" or "squashfs_xz".
	Values []any  // Values are strings, lists of strings or nil.
}

// Source is the raw content of a definition table.
type Source struct {
	Kind        Kind   // Kind is the table purpose.
	Description string // Description is a human readable summary of the table.
	Rows        []Row  // Rows are the definitions in their declared order.
}

// SchemaError reports a definition row that does not match the field schema.
type SchemaError struct {
	Key    string // Key is the mode name of the row.
	Field  string // Field is the name of the mismatched field, if any.
	Want   int    // Want is the number of fields in the schema.
	Got    int    // Got is the number of values in the row.
	Reason string // Reason describes the mismatch.
}

func (e *SchemaError) Error() string {
	s := fmt.Sprintf("%s: mode %q", ErrSchema, e.Key)
	if e.Field != "" {
		s += fmt.Sprintf(" field %q", e.Field)
	}
	if e.Reason != "" {
		s += ": " + e.Reason
	}
	return s
}

func (e *SchemaError) Unwrap() error {
	return ErrSchema
}

// Definition describes how a mode runs its external program.
// The Table only hands out copies, so changing a Definition
// never changes the table it came from.
type Definition struct {
	Key        string   // Key is the mode name.
	Handler    string   // Handler is the name of the routine that runs the program.
	Command    string   // Command is the external program.
	Args       []string // Args is the argument template.
	Label      string   // Label identifies the program in logs and errors.
	Extensions []string // Extensions are the handled file extensions, the first is the default.
	Binaries   []string // Binaries are the programs required by the mode.
}

// Enabled returns true if every binary required by the mode is in the available set.
func (d Definition) Enabled(available command.Set) bool {
	return available.All(d.Binaries...)
}

// Extension returns the default, first, file extension of the mode or an empty string.
func (d Definition) Extension() string {
	if len(d.Extensions) == 0 {
		return ""
	}
	return d.Extensions[0]
}

func (d Definition) clone() Definition {
	d.Args = slices.Clone(d.Args)
	d.Extensions = slices.Clone(d.Extensions)
	d.Binaries = slices.Clone(d.Binaries)
	return d
}

// Build validates every source row against the field schema and returns the immutable table.
//
// Each row must supply exactly one value per schema field, in schema order,
// of the field type. The schema must name at least the func, cmd, args, id
// and extensions fields. When the schema has no binaries field, or the
// binaries value is null, the mode requires only its cmd program.
//
// A mismatched row returns a *SchemaError.
func Build(src Source, schema Fields) (*Table, error) {
	for _, name := range Legacy.Names() {
		if !slices.Contains(schema.Names(), name) {
			return nil, errors.Errorf("build %w: the schema has no %q field", ErrSchema, name)
		}
	}
	t := &Table{
		kind: src.Kind,
		desc: src.Description,
		keys: make([]string, 0, len(src.Rows)),
		defs: make(map[string]Definition, len(src.Rows)),
	}
	for _, row := range src.Rows {
		if row.Key == "" || row.Key == TypeKey {
			return nil, errors.WithStack(&SchemaError{Key: row.Key, Reason: "invalid mode key"})
		}
		if _, dupe := t.defs[row.Key]; dupe {
			return nil, errors.WithStack(&SchemaError{Key: row.Key, Reason: "duplicate mode key"})
		}
		def, err := build(row, schema)
		if err != nil {
			return nil, err
		}
		t.keys = append(t.keys, row.Key)
		t.defs[row.Key] = def
	}
	return t, nil
}

func build(row Row, schema Fields) (Definition, error) {
	if len(row.Values) != len(schema) {
		return Definition{}, errors.WithStack(&SchemaError{
			Key: row.Key, Want: len(schema), Got: len(row.Values),
			Reason: fmt.Sprintf("has %d values, the schema has %d fields", len(row.Values), len(schema)),
		})
	}
	def := Definition{Key: row.Key}
	binaries := false
	for i, field := range schema {
		val := row.Values[i]
		fail := func(reason string) error {
			return errors.WithStack(&SchemaError{
				Key: row.Key, Field: field.Name,
				Want: len(schema), Got: len(row.Values), Reason: reason,
			})
		}
		switch field.Type {
		case String:
			s, ok := val.(string)
			if !ok {
				return Definition{}, fail(fmt.Sprintf("want a string, not %T", val))
			}
			if s == "" && !field.Null {
				return Definition{}, fail("is empty")
			}
			switch field.Name {
			case "func":
				def.Handler = s
			case "cmd":
				def.Command = s
			case "id":
				def.Label = s
			}
		case List:
			list, ok := strs(val)
			if !ok {
				return Definition{}, fail(fmt.Sprintf("want a list of strings, not %T", val))
			}
			if list == nil && !field.Null {
				return Definition{}, fail("is null")
			}
			switch field.Name {
			case "args":
				def.Args = list
			case "extensions":
				def.Extensions = list
			case "binaries":
				def.Binaries = list
				binaries = true
			}
		}
	}
	if !binaries || def.Binaries == nil {
		def.Binaries = []string{def.Command}
	}
	return def, nil
}

// strs converts a list value to strings, a nil value returns a nil list.
func strs(val any) ([]string, bool) {
	switch v := val.(type) {
	case nil:
		return nil, true
	case []string:
		return slices.Clone(v), true
	case []any:
		list := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			list = append(list, s)
		}
		return list, true
	}
	return nil, false
}
