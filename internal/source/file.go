package source

import (
	"context"
	"os"
)

// FileSource reads the dataset from the local filesystem.
type FileSource struct {
	path string
}

// NewFileSource returns a source for path.
func NewFileSource(path string) *FileSource { return &FileSource{path: path} }

// Fetch reads the whole file.
func (f *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return readLimited(fh)
}

func (f *FileSource) String() string { return f.path }
