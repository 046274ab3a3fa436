// Package render holds what the document renderers share.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ses4j/ebird-statistical-report/pkg/services/layout"
)

// Renderer writes a laid out document to path.
type Renderer interface {
	Extension() string
	WriteFile(ctx context.Context, doc *layout.Document, path string) error
}

// Atomic hands write a temporary path in the directory of path, with the
// same extension, and renames it to path once write returns nil. On failure
// nothing is left at path.
func Atomic(path string, write func(tmp string) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)
	f, err := os.CreateTemp(dir, "."+base+"-*"+ext)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := write(tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("move %s into place: %w", filepath.Base(path), err)
	}
	return nil
}
