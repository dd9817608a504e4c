package definition

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Package file load.go contains the definition file readers.

// Format is the encoding of a definition source.
type Format string

const (
	YAML Format = "yaml"
	HCL  Format = "hcl"
	JSON Format = "json"
)

// FormatOf returns the format of the named file using its extension.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".hcl":
		return HCL, nil
	case ".json":
		return JSON, nil
	}
	return "", errors.Errorf("%w: unsupported file extension %q", ErrSource, filepath.Ext(name))
}

// LoadFile reads the named definitions file and builds its table using the Schema.
// The format is determined by the file extension, .yaml, .yml, .hcl or .json.
//
//	func Custom() {
//	    tab, err := definition.LoadFile("compress.yaml")
//	    if err != nil {
//	        fmt.Fprintf(os.Stderr, "error: %v\n", err)
//	        return
//	    }
//	    for _, mode := range tab.Modes() {
//	        fmt.Println(mode, tab.Extension(mode))
//	    }
//	}
func LoadFile(name string) (*Table, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Errorf("definition load file: %w", err)
	}
	src, err := Parse(data, format, name)
	if err != nil {
		return nil, err
	}
	tab, err := Build(src, Schema)
	if err != nil {
		return nil, errors.Errorf("definition load %s: %w", filepath.Base(name), err)
	}
	return tab, nil
}

// Parse decodes the definitions data into a Source that keeps the declared order of the modes.
// The filename is only used in the error messages.
//
// Every format uses a reserved "Type" entry with the table kind and a description.
// YAML and JSON sources are a mapping of the mode key to a list of values.
// HCL sources use a block per mode:
//
//	type        = "Compression"
//	description = "Compression definitions loaded"
//
//	mode "tar" {
//	  definition = ["common", "tar", ["-cpf", "%(filename)s", "-C", "%(basedir)s", "%(source)s"], "TAR", ["tar"], ["tar"]]
//	}
func Parse(data []byte, format Format, filename string) (Source, error) {
	switch format {
	case YAML:
		return parseYAML(data)
	case HCL:
		return parseHCL(data, filename)
	case JSON:
		return parseJSON(data)
	}
	return Source{}, errors.Errorf("%w: unsupported format %q", ErrSource, format)
}

// typeRow sets the kind and description of the source using the reserved Type values.
func typeRow(src *Source, vals []any) error {
	if len(vals) == 0 {
		return errors.Errorf("%w: the %s entry is empty", ErrSource, TypeKey)
	}
	name, ok := vals[0].(string)
	if !ok {
		return errors.Errorf("%w: the %s entry must start with a string", ErrSource, TypeKey)
	}
	kind, err := ParseKind(name)
	if err != nil {
		return err
	}
	src.Kind = kind
	if len(vals) > 1 {
		if desc, ok := vals[1].(string); ok {
			src.Description = desc
		}
	}
	return nil
}

func parseYAML(data []byte) (Source, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Source{}, errors.Errorf("%w: parsing YAML: %v", ErrSource, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return Source{}, errors.Errorf("%w: the YAML document is empty", ErrSource)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return Source{}, errors.Errorf("%w: line %d: the YAML document is not a mapping", ErrSource, root.Line)
	}
	src := Source{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, node := root.Content[i], root.Content[i+1]
		val, err := yamlValue(node)
		if err != nil {
			return Source{}, err
		}
		vals, ok := val.([]any)
		if !ok {
			return Source{}, errors.Errorf("%w: line %d: %q is not a list", ErrSource, node.Line, key.Value)
		}
		if key.Value == TypeKey {
			if err := typeRow(&src, vals); err != nil {
				return Source{}, err
			}
			continue
		}
		src.Rows = append(src.Rows, Row{Key: key.Value, Values: vals})
	}
	return src, nil
}

func yamlValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
		return node.Value, nil
	case yaml.SequenceNode:
		vals := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			val, err := yamlValue(item)
			if err != nil {
				return nil, err
			}
			vals = append(vals, val)
		}
		return vals, nil
	case yaml.AliasNode:
		return yamlValue(node.Alias)
	case yaml.DocumentNode, yaml.MappingNode:
	}
	return nil, errors.Errorf("%w: line %d: unexpected YAML value", ErrSource, node.Line)
}

func parseHCL(data []byte, filename string) (Source, error) {
	type hclMode struct {
		Key        string         `hcl:"key,label"`
		Definition hcl.Expression `hcl:"definition"`
	}
	type hclSource struct {
		Type        string    `hcl:"type"`
		Description string    `hcl:"description,optional"`
		Modes       []hclMode `hcl:"mode,block"`
	}
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return Source{}, errors.Errorf("%w: parsing HCL: %s", ErrSource, diags.Error())
	}
	var cfg hclSource
	diags = gohcl.DecodeBody(file.Body, &hcl.EvalContext{Variables: map[string]cty.Value{}}, &cfg)
	if diags.HasErrors() {
		return Source{}, errors.Errorf("%w: decoding HCL: %s", ErrSource, diags.Error())
	}
	src := Source{}
	if err := typeRow(&src, []any{cfg.Type, cfg.Description}); err != nil {
		return Source{}, err
	}
	for _, mode := range cfg.Modes {
		v, diags := mode.Definition.Value(nil)
		if diags.HasErrors() {
			return Source{}, errors.Errorf("%w: mode %q: %s", ErrSource, mode.Key, diags.Error())
		}
		val, err := ctyValue(v)
		if err != nil {
			return Source{}, errors.Errorf("mode %q: %w", mode.Key, err)
		}
		vals, ok := val.([]any)
		if !ok {
			return Source{}, errors.Errorf("%w: mode %q definition is not a list", ErrSource, mode.Key)
		}
		src.Rows = append(src.Rows, Row{Key: mode.Key, Values: vals})
	}
	return src, nil
}

func ctyValue(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() {
		return nil, errors.Errorf("%w: unknown HCL value", ErrSource)
	}
	t := v.Type()
	switch {
	case t == cty.String:
		return v.AsString(), nil
	case t == cty.Number:
		return v.AsBigFloat().Text('f', -1), nil
	case t.IsTupleType(), t.IsListType():
		vals := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, item := it.Element()
			val, err := ctyValue(item)
			if err != nil {
				return nil, err
			}
			vals = append(vals, val)
		}
		return vals, nil
	}
	return nil, errors.Errorf("%w: unexpected HCL value of %s", ErrSource, t.FriendlyName())
}

// parseJSON decodes the JSON object token by token, as encoding/json maps do not keep the key order.
func parseJSON(data []byte) (Source, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return Source{}, errors.Errorf("%w: parsing JSON: %v", ErrSource, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return Source{}, errors.Errorf("%w: the JSON document is not an object", ErrSource)
	}
	src := Source{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Source{}, errors.Errorf("%w: parsing JSON: %v", ErrSource, err)
		}
		key, ok := tok.(string)
		if !ok {
			return Source{}, errors.Errorf("%w: unexpected JSON key %v", ErrSource, tok)
		}
		var vals []any
		if err := dec.Decode(&vals); err != nil {
			return Source{}, errors.Errorf("%w: JSON %q is not a list: %v", ErrSource, key, err)
		}
		if key == TypeKey {
			if err := typeRow(&src, vals); err != nil {
				return Source{}, err
			}
			continue
		}
		src.Rows = append(src.Rows, Row{Key: key, Values: vals})
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return Source{}, errors.Errorf("%w: parsing JSON: %v", ErrSource, err)
	}
	return src, nil
}
