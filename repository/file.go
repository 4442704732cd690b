package repository

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/dododo1295/studyroute/model"
)

// FileStore keeps every user in one JSON file that is rewritten on each mutation.
type FileStore struct {
	documentStore
	path string
}

func NewFileStore(path string) *FileStore {
	fs := &FileStore{path: path}
	fs.documentStore.backend = fileBackend{path: path}
	return fs
}

func (s *FileStore) Path() string { return s.path }

type fileBackend struct {
	path string
}

func (fileBackend) name() string { return "file" }

func (b fileBackend) load(context.Context) (*Document, error) {
	f, err := os.Open(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Document{Users: map[string]*model.User{}}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeDocument(f)
}

// save writes to a temp file in the same directory and renames it over the
// original so a crash never leaves a half written document.
func (b fileBackend) save(_ context.Context, doc *Document) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".users-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), b.path)
}

func (b fileBackend) ping(context.Context) error {
	_, err := os.Stat(filepath.Dir(b.path))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
