package screenshot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source defines the interface for reading the images of one folder
type Source interface {
	// Root identifies the folder
	Root() string

	// List returns image names in a stable order
	List() ([]string, error)

	// Get reads an image by name
	Get(name string) ([]byte, error)

	// Fingerprint changes whenever an image is added, removed or modified
	Fingerprint() (string, error)
}

// Folder implements the Source interface using a local directory
type Folder struct {
	basePath   string
	extensions map[string]struct{}
}

// NewFolder opens path, accepting files whose lower-cased extension is in
// extensions.
func NewFolder(path string, extensions []string) (*Folder, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving folder path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, path)
	}

	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}

	return &Folder{
		basePath:   abs,
		extensions: exts,
	}, nil
}

// Root returns the absolute folder path
func (f *Folder) Root() string {
	return f.basePath
}

// List returns accepted image names sorted by name
func (f *Folder) List() ([]string, error) {
	entries, err := os.ReadDir(f.basePath)
	if err != nil {
		return nil, fmt.Errorf("reading folder: %w", err)
	}

	// os.ReadDir returns entries sorted by filename.
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !f.accepts(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// Get reads an image from the folder
func (f *Folder) Get(name string) ([]byte, error) {
	if name != filepath.Base(name) || !f.accepts(name) {
		return nil, fmt.Errorf("not an image in this folder: %q", name)
	}

	data, err := os.ReadFile(filepath.Join(f.basePath, name))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Fingerprint hashes the name, size and modification time of every image
func (f *Folder) Fingerprint() (string, error) {
	names, err := f.List()
	if err != nil {
		return "", err
	}

	h := sha256.New()
	for _, name := range names {
		info, err := os.Stat(filepath.Join(f.basePath, name))
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", name, err)
		}
		fmt.Fprintf(h, "%s\x00%d\x00%d\n", name, info.Size(), info.ModTime().UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (f *Folder) accepts(name string) bool {
	_, ok := f.extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}
