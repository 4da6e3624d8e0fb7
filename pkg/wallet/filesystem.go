package wallet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const fileSuffix = ".id"

// FileSystemStore keeps one "<label>.id" file per identity.
type FileSystemStore struct {
	Dir string
}

func NewFileSystemStore(dir string) *FileSystemStore {
	return &FileSystemStore{Dir: dir}
}

func (s *FileSystemStore) path(label string) string {
	return filepath.Join(s.Dir, label+fileSuffix)
}

func (s *FileSystemStore) Get(ctx context.Context, label string) (Identity, error) {
	if strings.TrimSpace(label) == "" || strings.ContainsAny(label, `/\`) {
		return Identity{}, fmt.Errorf("%w: %q", ErrNotFound, label)
	}
	b, err := os.ReadFile(s.path(label))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Identity{}, fmt.Errorf("%w: %q", ErrNotFound, label)
		}
		return Identity{}, err
	}
	return decode(label, b)
}

func (s *FileSystemStore) Put(ctx context.Context, id Identity) error {
	if err := id.Validate(); err != nil {
		return err
	}
	b, err := encode(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.Dir, ".identity-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path(id.Label))
}

func (s *FileSystemStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var labels []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		labels = append(labels, strings.TrimSuffix(e.Name(), fileSuffix))
	}
	sort.Strings(labels)
	return labels, nil
}
