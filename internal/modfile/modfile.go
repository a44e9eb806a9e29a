// Package modfile reads kernel module images and extracts the raw
// key/value records from their .modinfo section. Images compressed
// with gzip or zstd are decompressed transparently.
package modfile

import (
	"bytes"
	"debug/elf"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/modscope/modscope/internal/modmeta"
)

// Module is an on-disk module image. The image is read lazily, on the
// first Info call.
type Module struct {
	path string
}

// New returns a handle for the module image at path. The file is not
// touched until Info is called.
func New(path string) *Module {
	return &Module{path: path}
}

// Path returns the module image path.
func (m *Module) Path() string { return m.path }

// Name returns the module name derived from the image path.
func (m *Module) Name() string { return NameOf(m.path) }

// NameOf derives the canonical module name from an image path:
// compression and .ko suffixes stripped, dashes mapped to underscores
// (the kernel treats them as equivalent in module names).
func NameOf(path string) string {
	name := filepath.Base(path)
	for _, ext := range []string{".gz", ".zst", ".xz", ".ko"} {
		name = strings.TrimSuffix(name, ext)
	}
	return strings.ReplaceAll(name, "-", "_")
}

// Info reads the image and returns its .modinfo records in section
// order.
func (m *Module) Info() ([]modmeta.Pair, error) {
	data, err := readImage(m.path)
	if err != nil {
		return nil, err
	}

	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", m.path, err)
	}

	sec := f.Section(".modinfo")
	if sec == nil {
		return nil, fmt.Errorf("%s: no .modinfo section", m.path)
	}
	raw, err := sec.Data()
	if err != nil {
		return nil, fmt.Errorf("reading .modinfo from %s: %w", m.path, err)
	}
	return parseModinfo(raw), nil
}

// parseModinfo splits a .modinfo section payload into its
// NUL-terminated key=value records. Records without '=' are dropped.
func parseModinfo(raw []byte) []modmeta.Pair {
	var pairs []modmeta.Pair
	for _, rec := range bytes.Split(raw, []byte{0}) {
		if len(rec) == 0 {
			continue
		}
		key, value, ok := strings.Cut(string(rec), "=")
		if !ok {
			continue
		}
		pairs = append(pairs, modmeta.Pair{Key: key, Value: value})
	}
	return pairs
}

// readImage loads a module image into memory, decompressing it when
// the file name says so. Modules are small enough that whole-image
// reads are fine.
func readImage(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch filepath.Ext(path) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("decompressing %s: %w", path, err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("decompressing %s: %w", path, err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case ".xz":
		return nil, fmt.Errorf("%s: xz-compressed modules are not supported", path)
	}
	return io.ReadAll(f)
}
