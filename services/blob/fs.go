package blobsvc

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/kyalo/darasa/core"
	"github.com/kyalo/darasa/core/course"
)

var errInvalidPath = errors.New("invalid blob path")

// fsStore keeps uploaded files on the local filesystem under Conf.MediaRoot.
type fsStore struct {
	root string
}

var _ course.BlobStore = (*fsStore)(nil)

func NewFilesystemStore() *fsStore {
	return &fsStore{root: core.Conf.MediaRoot}
}

func (s *fsStore) Save(ctx context.Context, path string, r io.Reader) (int64, error) {
	dst, err := s.resolve(path)
	if err != nil {
		return 0, err
	}
	if err = os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, errors.Wrap(err, "creating blob directory")
	}

	f, err := os.Create(dst)
	if err != nil {
		return 0, errors.Wrap(err, "creating blob file")
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		os.Remove(dst)
		return 0, errors.Wrap(err, "writing blob file")
	}
	if err = ctx.Err(); err != nil {
		os.Remove(dst)
		return 0, err
	}
	return n, nil
}

func (s *fsStore) Remove(_ context.Context, path string) error {
	dst, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err = os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing blob file")
	}
	return nil
}

// resolve joins path under the media root and rejects traversal outside it.
func (s *fsStore) resolve(path string) (string, error) {
	dst := filepath.Join(s.root, filepath.FromSlash(path))
	if !strings.HasPrefix(dst, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return "", errInvalidPath
	}
	return dst, nil
}
