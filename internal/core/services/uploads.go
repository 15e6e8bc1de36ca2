package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ReadUploads reads each path into an Upload named by its base name.
// Paths whose extension is not in exts are rejected with ErrInvalidInput;
// an empty exts accepts everything. Readable files are returned even
// when others fail; the failures are joined into the error.
func ReadUploads(paths, exts []string) ([]domain.Upload, error) {
	uploads := make([]domain.Upload, 0, len(paths))
	var errs []error
	for _, path := range paths {
		if !HasExtension(path, exts) {
			errs = append(errs, fmt.Errorf("%w: %s is not a supported document (%s)",
				domain.ErrInvalidInput, filepath.Base(path), strings.Join(exts, ", ")))
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", path, err))
			continue
		}
		uploads = append(uploads, domain.Upload{Name: filepath.Base(path), Data: data})
	}
	return uploads, errors.Join(errs...)
}

// HasExtension reports whether path ends in one of exts, ignoring case.
func HasExtension(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	return slices.Contains(exts, strings.ToLower(filepath.Ext(path)))
}
