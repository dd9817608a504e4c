package decomp

import (
	"context"

	"github.com/Defacto2/decomp/definition"
)

// Package file contents.go contains the archive content listing.

// Contents returns the content listing of the Source archive as printed by the program,
// the standard output followed by the standard error.
// The Map must use a Contents listing table.
//
// When the mode is Auto, it is chosen by the extension of the Source.
// When the program exits with a failure code the printed text is
// returned with the error, but when it could not be run the text is empty.
func (m *Map) Contents(ctx context.Context, p Params) (string, error) {
	return m.operate(ctx, definition.Listing, p, p.Source)
}
