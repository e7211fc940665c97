package driven

import (
	"context"
	"io"
)

// GuideSink defines the interface for persisting a finished guide document.
// This is a driven port that will be implemented by concrete adapters (e.g., file writer).
type GuideSink interface {
	// WriteGuide calls render with a writer for the document body. The document is
	// committed only if render returns nil; otherwise nothing is left behind and
	// the render error is returned.
	WriteGuide(ctx context.Context, render func(w io.Writer) error) error
}
