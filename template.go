package decomp

import (
	"regexp"
	"slices"
	"strings"

	"github.com/Defacto2/decomp/definition"
	"gitlab.com/tozd/go/errors"
	"mvdan.cc/sh/v3/syntax"
)

// Package file template.go contains the argument template substitution.

// OtherOptions is the argument template token that is replaced by the Options of the Params.
const OtherOptions = "other_options"

var placeholder = regexp.MustCompile(`%\(([A-Za-z0-9_]+)\)s`)

// Args returns the arguments of the definition with the placeholders replaced by the values.
// The definition is not modified.
//
// A placeholder such as %(source)s is replaced by the value of the named key,
// and a key that is missing from values returns an error wrapping ErrSubstitute.
// The path values source, destination, basedir, filename and arch are shell quoted,
// while option values such as comp_prog are shell text and are used as they are.
// A token holding only an empty placeholder is dropped.
//
// The other_options token is replaced by the non-blank options joined with single spaces,
// or removed when there are none. Options are shell text and are not quoted.
//
//	def := definition.Definition{Command: "tar", Args: []string{"other_options", "-xpf", "%(source)s"}}
//	args, _ := decomp.Args(def, map[string]string{"source": "my file.tar"}, []string{"-v"})
//	fmt.Println(decomp.Line(def.Command, args)) // tar -v -xpf 'my file.tar'
func Args(def definition.Definition, values map[string]string, options []string) ([]string, error) {
	args := make([]string, 0, len(def.Args))
	for _, token := range def.Args {
		if token == OtherOptions {
			if opts := joinOptions(options); opts != "" {
				args = append(args, opts)
			}
			continue
		}
		s, err := substitute(token, values)
		if err != nil {
			return nil, errors.Errorf("mode %q: %w", def.Key, err)
		}
		if s == "" {
			continue
		}
		args = append(args, s)
	}
	return slices.Clip(args), nil
}

func substitute(token string, values map[string]string) (string, error) {
	var err error
	s := placeholder.ReplaceAllStringFunc(token, func(match string) string {
		if err != nil {
			return ""
		}
		name := placeholder.FindStringSubmatch(match)[1]
		val, ok := values[name]
		if !ok {
			err = errors.Errorf("%w: %%(%s)s", ErrSubstitute, name)
			return ""
		}
		if val == "" || !quoted(name) {
			return val
		}
		q, qerr := syntax.Quote(val, syntax.LangBash)
		if qerr != nil {
			err = errors.Errorf("%w: %%(%s)s: %v", ErrSubstitute, name, qerr)
			return ""
		}
		return q
	})
	if err != nil {
		return "", err
	}
	return s, nil
}

// quoted returns true for the placeholders that hold a path or a name,
// the other placeholders hold program options.
func quoted(name string) bool {
	switch name {
	case SourceKey, DestinationKey, BasedirKey, FilenameKey, ArchKey:
		return true
	}
	return false
}

// joinOptions joins the options that are not blank with single spaces.
func joinOptions(options []string) string {
	opts := make([]string, 0, len(options))
	for _, opt := range options {
		if opt = strings.TrimSpace(opt); opt != "" {
			opts = append(opts, opt)
		}
	}
	return strings.Join(opts, " ")
}

// Line returns the command line of the program and its arguments.
func Line(cmd string, args []string) string {
	return strings.Join(append([]string{cmd}, args...), " ")
}

// withoutArch returns a copy of the arguments without the -Xbcj filter flag
// and the %(arch)s token, as mksquashfs rejects the flag with an empty value.
func withoutArch(args []string) []string {
	const (
		flag = "-Xbcj"
		arch = "%(" + ArchKey + ")s"
	)
	return slices.DeleteFunc(slices.Clone(args), func(s string) bool {
		return s == flag || s == arch
	})
}
