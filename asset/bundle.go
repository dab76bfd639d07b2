// Package asset implements the model-asset bundle: a zip-like container of
// named byte spans (sub-model files, a tokenizer JSON) backed by a
// read-only memory mapping of the bundle file. Every Entry's Data is a
// slice over that mapping; the bundle owns the mapping exclusively and its
// lifetime bounds every entry span handed out from it.
package asset

import (
	"os"
	"sort"

	"golang.org/x/sys/unix"

	"github.com/edgegemma/runtime/kerrors"
)

// Entry is one named byte span inside a bundle.
type Entry struct {
	Name string
	Data []byte
}

// Bundle is an opened, memory-mapped asset bundle.
type Bundle struct {
	Tag string

	file *os.File
	mmap []byte
	dir  map[string]Entry
	// names preserves insertion order so ListFiles is deterministic.
	names []string
}

// Open maps path read-only and parses its central directory. Fails with
// InvalidArgument if the file can't be opened/stat'd/mapped or is empty, and
// with DataLoss if the header or trailing central directory is malformed.
func Open(tag, path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.InvalidArgument, "asset.Open", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, kerrors.Wrap(kerrors.InvalidArgument, "asset.Open", err)
	}
	size := info.Size()
	if size == 0 {
		f.Close()
		return nil, kerrors.New(kerrors.InvalidArgument, "asset.Open", "bundle file is empty")
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, kerrors.Wrap(kerrors.InvalidArgument, "asset.Open", err)
	}

	b := &Bundle{Tag: tag, file: f, mmap: data}

	dir, order, err := parseDirectory(data)
	if err != nil {
		unix.Munmap(data)
		f.Close()
		return nil, kerrors.Wrap(kerrors.DataLoss, "asset.Open", err)
	}
	b.dir = dir
	b.names = order

	return b, nil
}

// GetFile returns the named entry, or NotFound listing the files the bundle
// actually contains.
func (b *Bundle) GetFile(name string) (Entry, error) {
	e, ok := b.dir[name]
	if !ok {
		return Entry{}, kerrors.Newf(kerrors.NotFound, "asset.GetFile", "%q not found (have: %s)", name, joinNames(b.names))
	}
	return e, nil
}

// ListFiles returns every entry name the bundle contains, in the order
// they were written.
func (b *Bundle) ListFiles() []string {
	out := make([]string, len(b.names))
	copy(out, b.names)
	return out
}

// Close unmaps the bundle's backing memory and closes the file. Entry spans
// obtained from this bundle must not be read after Close.
func (b *Bundle) Close() error {
	if b.mmap != nil {
		if err := unix.Munmap(b.mmap); err != nil {
			return err
		}
		b.mmap = nil
	}
	return b.file.Close()
}

func joinNames(names []string) string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	out := ""
	for i, n := range sorted {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
