// Package fsutil provides file system utility functions, including the
// resource finders that module resolution consults instead of touching the
// file system directly.
package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by finders when no resource exists at a path.
var ErrNotFound = errors.New("resource not found")

// Finder locates readable resources by path.
type Finder interface {
	// FindResource opens the resource at name. It returns an error wrapping
	// ErrNotFound when nothing exists there.
	FindResource(name string) (io.ReadCloser, error)
}

// OSFinder opens resources from the operating system's file system, with
// relative paths resolved against the working directory.
type OSFinder struct{}

// FindResource implements Finder.
func (OSFinder) FindResource(name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.FromSlash(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &fs.PathError{Op: "find", Path: name, Err: ErrNotFound}
		}
		return nil, err
	}
	info, err := f.Stat()
	if err == nil && info.IsDir() {
		f.Close()
		return nil, &fs.PathError{Op: "find", Path: name, Err: ErrNotFound}
	}
	return f, nil
}

// FSFinder serves resources from an fs.FS such as embed.FS or fstest.MapFS.
// Paths are cleaned first, so "./lib/a.lua" and "lib/a.lua" name the same
// resource.
type FSFinder struct {
	FS fs.FS
}

// NewFSFinder returns a Finder backed by fsys.
func NewFSFinder(fsys fs.FS) *FSFinder {
	return &FSFinder{FS: fsys}
}

// FindResource implements Finder.
func (f *FSFinder) FindResource(name string) (io.ReadCloser, error) {
	clean := CleanFSPath(name)
	if !fs.ValidPath(clean) {
		return nil, &fs.PathError{Op: "find", Path: name, Err: ErrNotFound}
	}
	file, err := f.FS.Open(clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &fs.PathError{Op: "find", Path: name, Err: ErrNotFound}
		}
		return nil, err
	}
	info, err := file.Stat()
	if err == nil && info.IsDir() {
		file.Close()
		return nil, &fs.PathError{Op: "find", Path: name, Err: ErrNotFound}
	}
	return file, nil
}

// FindFilesByExtension recursively searches the given root path for all files ending
// with the specified extension. It returns a slice of their full paths in
// lexical order.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, p)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// FindFSFilesByExtension is FindFilesByExtension over fsys. root is a slash
// separated path inside fsys and the returned paths are too.
func FindFSFilesByExtension(fsys fs.FS, root string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := fs.WalkDir(fsys, CleanFSPath(root), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// CleanFSPath turns name into the form fs.FS expects: slash separated,
// cleaned, without a leading slash. The empty path becomes ".".
func CleanFSPath(name string) string {
	clean := strings.TrimPrefix(path.Clean(filepath.ToSlash(name)), "/")
	if clean == "" {
		return "."
	}
	return clean
}
