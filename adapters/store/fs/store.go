package storefs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-certgen/certgen"
)

// Store writes artifacts directly into a single output directory.
type Store struct {
	Root string
}

// NewStore creates a filesystem-backed artifact store.
func NewStore(root string) *Store {
	return &Store{Root: root}
}

// Factory adapts NewStore to a certgen.StoreFactory.
func Factory() certgen.StoreFactory {
	return func(dir string) certgen.ArtifactStore {
		return NewStore(dir)
	}
}

// Put writes an artifact through a temp file and renames it into place,
// replacing any previous artifact with the same key.
func (s *Store) Put(ctx context.Context, key string, r io.Reader) (certgen.ArtifactRef, error) {
	_ = ctx
	if s == nil {
		return certgen.ArtifactRef{}, certgen.NewError(certgen.KindInternal, "store is nil", nil)
	}

	pathOnDisk, err := s.resolvePath(key)
	if err != nil {
		return certgen.ArtifactRef{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(pathOnDisk), ".certgen-*")
	if err != nil {
		return certgen.ArtifactRef{}, err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return certgen.ArtifactRef{}, err
	}
	if err := tmp.Sync(); err != nil {
		return certgen.ArtifactRef{}, err
	}
	if err := tmp.Close(); err != nil {
		return certgen.ArtifactRef{}, err
	}

	if err := os.Rename(tmp.Name(), pathOnDisk); err != nil {
		return certgen.ArtifactRef{}, err
	}

	return certgen.ArtifactRef{Key: key, Path: pathOnDisk, Size: size}, nil
}

// Open reads an artifact from disk.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	_ = ctx
	if s == nil {
		return nil, certgen.NewError(certgen.KindInternal, "store is nil", nil)
	}

	pathOnDisk, err := s.resolvePath(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(pathOnDisk)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, certgen.NewError(certgen.KindNotFound, fmt.Sprintf("artifact %q not found", key), err)
		}
		return nil, err
	}
	return file, nil
}

// Delete removes an artifact. Missing artifacts are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_ = ctx
	if s == nil {
		return certgen.NewError(certgen.KindInternal, "store is nil", nil)
	}

	pathOnDisk, err := s.resolvePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(pathOnDisk); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// resolvePath keeps artifacts flat inside Root.
func (s *Store) resolvePath(key string) (string, error) {
	if s.Root == "" {
		return "", certgen.NewError(certgen.KindValidation, "store root is required", nil)
	}
	if key == "" {
		return "", certgen.NewError(certgen.KindValidation, "artifact key is required", nil)
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", certgen.NewError(certgen.KindStorage, fmt.Sprintf("invalid artifact name %q", key), nil)
	}

	root, err := filepath.Abs(s.Root)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, key), nil
}
