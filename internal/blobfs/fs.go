// Package blobfs manages the directory that holds large clipboard payloads
// (image bytes, copied files). Items of kind image and file reference these
// blobs by absolute path.
package blobfs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// BlobFS is a filesystem rooted at the blobs directory
type BlobFS struct {
	root string
}

// New creates a BlobFS rooted at root, creating the directory if needed.
func New(root string) (*BlobFS, error) {
	if root == "" {
		return nil, fmt.Errorf("blobs directory must not be empty")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve blobs directory: %w", err)
	}

	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blobs directory: %w", err)
	}

	return &BlobFS{root: abs}, nil
}

// Open implements fs.FS
func (b *BlobFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	return os.Open(filepath.Join(b.root, name))
}

// ReadDir implements fs.ReadDirFS
func (b *BlobFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	return os.ReadDir(filepath.Join(b.root, name))
}

// WriteFile writes data to a file relative to the blobs directory
func (b *BlobFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	if !fs.ValidPath(name) {
		return &fs.PathError{Op: "writefile", Path: name, Err: fs.ErrInvalid}
	}

	fullPath := filepath.Join(b.root, name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(fullPath, data, perm)
}

// Remove removes a file relative to the blobs directory
func (b *BlobFS) Remove(name string) error {
	if !fs.ValidPath(name) {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrInvalid}
	}
	return os.Remove(filepath.Join(b.root, name))
}

// Put stores data under a name derived from its SHA-256 and returns the
// absolute path, suitable as an item's content reference. Writing the same
// bytes twice yields the same path, so dedup by reference applies.
func (b *BlobFS) Put(data []byte, ext string) (string, error) {
	sum := sha256.Sum256(data)
	name := hex.EncodeToString(sum[:])
	if ext != "" {
		name += "." + strings.TrimPrefix(ext, ".")
	}

	fullPath := filepath.Join(b.root, name)
	if _, err := os.Stat(fullPath); err == nil {
		return fullPath, nil
	}

	if err := b.WriteFile(name, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return fullPath, nil
}

// Rel returns the name of path relative to the blobs directory, or false
// if path lies outside it.
func (b *BlobFS) Rel(path string) (string, bool) {
	rel, err := filepath.Rel(b.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Root returns the root directory path
func (b *BlobFS) Root() string {
	return b.root
}
