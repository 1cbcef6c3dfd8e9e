// Package scratch manages the directory the lab writes its example files to.
package scratch

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
)

// File is one entry of a directory listing.
type File struct {
	Name string
	Size int64
}

// Dir is a scratch directory.
type Dir struct {
	root string
}

// Open creates dir if needed and returns a handle to it.
func Open(dir string) (*Dir, error) {
	if dir == "" {
		return nil, errors.New("scratch directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating scratch directory %s", dir)
	}
	return &Dir{root: dir}, nil
}

// Root returns the directory path.
func (d *Dir) Root() string { return d.root }

// Path returns the path of name inside the directory.
func (d *Dir) Path(name string) string {
	return filepath.Join(d.root, name)
}

// Size returns the size in bytes of name.
func (d *Dir) Size(name string) (int64, error) {
	fi, err := os.Stat(d.Path(name))
	if err != nil {
		return 0, errors.Wrapf(err, "stat %s", name)
	}
	return fi.Size(), nil
}

// List returns the regular files in the directory sorted by name.
func (d *Dir) List() ([]File, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", d.root)
	}
	files := make([]File, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, errors.Wrapf(err, "stat %s", e.Name())
		}
		files = append(files, File{Name: e.Name(), Size: info.Size()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Clean removes every regular file in the directory and keeps the directory.
func (d *Dir) Clean() (int, error) {
	files, err := d.List()
	if err != nil {
		return 0, err
	}
	for i, f := range files {
		if err := os.Remove(d.Path(f.Name)); err != nil {
			return i, errors.Wrapf(err, "removing %s", f.Name)
		}
	}
	return len(files), nil
}

// HumanSize formats n bytes for display, e.g. "1.2 MB".
func HumanSize(n int64) string {
	if n < 0 {
		return "-"
	}
	return humanize.Bytes(uint64(n))
}
