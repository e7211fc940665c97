package driven

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/klauspost/compress/gzip"
)

// GuideFileSink writes the guide document to a file on disk.
// It implements the driven.GuideSink port. The file is replaced atomically:
// readers see either the previous document or the complete new one.
type GuideFileSink struct {
	path     string
	compress bool
	perm     os.FileMode
}

// NewGuideFileSink creates a sink writing to path, gzip-compressed if compress is true.
func NewGuideFileSink(path string, compress bool) *GuideFileSink {
	return &GuideFileSink{
		path:     path,
		compress: compress,
		perm:     0o644,
	}
}

// Path returns the destination file path.
func (s *GuideFileSink) Path() string {
	return s.path
}

// WriteGuide renders the document into a temporary file next to the
// destination and renames it into place once render and compression succeed.
func (s *GuideFileSink) WriteGuide(ctx context.Context, render func(w io.Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	pf, err := renameio.NewPendingFile(s.path, renameio.WithPermissions(s.perm))
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer pf.Cleanup()

	bw := bufio.NewWriter(pf)
	if err := s.render(bw, render); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing guide: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("committing guide file: %w", err)
	}
	return nil
}

func (s *GuideFileSink) render(w io.Writer, render func(w io.Writer) error) error {
	if !s.compress {
		return render(w)
	}

	zw := gzip.NewWriter(w)
	if err := render(zw); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compressing guide: %w", err)
	}
	return nil
}
