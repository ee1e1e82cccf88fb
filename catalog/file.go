package catalog

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gbv/daia/pica"
	"github.com/gbv/daia/pproc"
)

// fileExtensions are tried in order.
var fileExtensions = []string{".pica", ".pica.gz", ".pica.zst"}

// FileSource reads records from files named after the identifier, e.g.
// "<dir>/123456789.pica.gz". A file may hold several records separated by
// blank lines.
type FileSource struct {
	Dir string
	// Encoding of the files, HTTP by default.
	Encoding pica.Variant
}

// Variant implements Source.
func (s *FileSource) Variant() pica.Variant { return s.Encoding }

// Records implements Source. A missing file yields no records.
func (s *FileSource) Records(ctx context.Context, id string) ([]string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, nil
	}
	for _, ext := range fileExtensions {
		filename := filepath.Join(s.Dir, id+ext)
		if _, err := os.Stat(filename); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return readRecords(filename)
	}
	return nil, nil
}

func readRecords(filename string) ([]string, error) {
	r, err := pproc.Open(filename)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var records []string
	for rec, err := range pproc.Records(r) {
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
