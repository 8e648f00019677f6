package source

import (
	"context"
	"fmt"
	"os"

	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/airquality"
)

// FileSource reads a JSON snapshot that another process keeps up to date.
// The window is ignored; the file is taken as-is.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name identifies the source in logs and metrics
func (f *FileSource) Name() string {
	return "file"
}

// Fetch reads and unwraps the snapshot file
func (f *FileSource) Fetch(ctx context.Context, _ Window) (airquality.RawSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}

	raw, err := Unwrap(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	return raw, nil
}
