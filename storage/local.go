package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type LocalStore struct {
	Root string
}

func NewLocal() (*LocalStore, error) {
	root := viper.GetString("storage.local_path")

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory, %w", err)
	}

	return &LocalStore{Root: root}, nil
}

func (l *LocalStore) Save(_ context.Context, name string, r io.Reader, _ string) error {
	f, err := os.Create(filepath.Join(l.Root, filepath.Base(name)))
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return err
	}

	return nil
}

func (l *LocalStore) Delete(_ context.Context, name string) error {
	err := os.Remove(filepath.Join(l.Root, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

func (l *LocalStore) URL(name string) string {
	return "/images/" + name
}

// Path returns the on-disk location of an object, used when serving
// files directly
func (l *LocalStore) Path(name string) string {
	return filepath.Join(l.Root, filepath.Base(name))
}
