// Package shared owns the synchronized folder that two clipshare instances
// use as their only transport.
//
// The folder holds exactly two well-known files. Their names are a contract
// between cooperating instances and must not change independently:
//
//	text.txt  UTF-8 text, created empty at startup, overwritten in full, never deleted
//	img.png   PNG image, absent until first shared, replaced by delete-then-create
package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// File is one of the two shared file identities.
type File int

const (
	TextFile File = iota
	ImageFile
)

// Well-known file names.
const (
	TextName  = "text.txt"
	ImageName = "img.png"
)

// Files lists every shared file identity.
var Files = []File{TextFile, ImageFile}

// Name returns the on-disk base name of f.
func (f File) Name() string {
	if f == ImageFile {
		return ImageName
	}
	return TextName
}

func (f File) String() string { return f.Name() }

// Lookup maps a base name to its File. Names match exactly: Dir always reads
// the lowercase paths, and on a case-sensitive filesystem TEXT.TXT is a
// different file.
func Lookup(name string) (File, bool) {
	switch filepath.Base(name) {
	case TextName:
		return TextFile, true
	case ImageName:
		return ImageFile, true
	}
	return 0, false
}

// ConfigError reports an unusable shared directory. It is fatal at startup.
type ConfigError struct {
	Dir string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("shared directory %q: %v", e.Dir, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Dir is a validated shared directory.
type Dir struct {
	root string
}

// Open validates dir without modifying it. dir must already exist.
func Open(dir string) (*Dir, error) {
	if dir == "" {
		return nil, &ConfigError{Dir: dir, Err: errors.New("no directory configured")}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, &ConfigError{Dir: dir, Err: err}
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, &ConfigError{Dir: abs, Err: err}
	}
	if !fi.IsDir() {
		return nil, &ConfigError{Dir: abs, Err: errors.New("not a directory")}
	}
	return &Dir{root: abs}, nil
}

// Init opens dir and creates an empty text.txt if absent. img.png is never
// pre-created.
func Init(dir string) (*Dir, error) {
	d, err := Open(dir)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(d.Path(TextFile), os.O_RDONLY|os.O_CREATE, 0o644)
	if err != nil {
		return nil, &ConfigError{Dir: d.root, Err: err}
	}
	_ = f.Close()
	return d, nil
}

// Root returns the absolute directory path.
func (d *Dir) Root() string { return d.root }

// Path returns the absolute path of f.
func (d *Dir) Path(f File) string { return filepath.Join(d.root, f.Name()) }

// Read returns the raw contents of f.
func (d *Dir) Read(f File) ([]byte, error) {
	return os.ReadFile(d.Path(f))
}

// WriteText overwrites text.txt with b in full.
func (d *Dir) WriteText(b []byte) error {
	if err := os.WriteFile(d.Path(TextFile), b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", TextName, err)
	}
	return nil
}

// WriteImage replaces img.png with b. The old file is deleted and a fresh one
// created so a concurrent reader never observes a truncated-in-place file.
func (d *Dir) WriteImage(b []byte) error {
	path := d.Path(ImageFile)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", ImageName, err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", ImageName, err)
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", ImageName, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", ImageName, err)
	}
	return nil
}

// FileInfo describes one shared file for status output.
type FileInfo struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Exists  bool      `json:"exists"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time,omitzero"`
}

// Stat returns a snapshot of every shared file.
func (d *Dir) Stat() []FileInfo {
	out := make([]FileInfo, 0, len(Files))
	for _, f := range Files {
		fi := FileInfo{Name: f.Name(), Path: d.Path(f)}
		if st, err := os.Stat(fi.Path); err == nil {
			fi.Exists = true
			fi.Size = st.Size()
			fi.ModTime = st.ModTime()
		}
		out = append(out, fi)
	}
	return out
}
