// Package local stores uploaded paperwork on the local filesystem. It backs
// development setups and the CLI when no S3 bucket is configured.
package local

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"solarops/internal/domain"
	"solarops/internal/port"
)

type localStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates a filesystem-backed ObjectStorage rooted at dir.
// Presigned URLs are plain links under baseURL.
func NewLocalStore(dir, baseURL string) (port.ObjectStorage, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, eris.Wrapf(err, "storage: create %s", dir)
	}
	return &localStore{root: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *localStore) path(bucket, key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", eris.Wrap(domain.ErrInvalidInput, "storage: empty key")
	}
	return filepath.Join(s.root, bucket, clean), nil
}

func (s *localStore) Upload(_ context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	p, err := s.path(input.Bucket, input.Key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return nil, eris.Wrapf(err, "storage: mkdir for %s", input.Key)
	}
	f, err := os.Create(p)
	if err != nil {
		return nil, eris.Wrapf(err, "storage: create %s", input.Key)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(f, input.Body); err != nil {
		return nil, eris.Wrapf(err, "storage: write %s", input.Key)
	}
	return &port.UploadOutput{Location: p}, nil
}

func (s *localStore) Download(_ context.Context, bucket, key string) ([]byte, error) {
	p, err := s.path(bucket, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, eris.Wrapf(domain.ErrNotFound, "storage: %s", key)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "storage: read %s", key)
	}
	return data, nil
}

func (s *localStore) Delete(_ context.Context, bucket, key string) error {
	p, err := s.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return eris.Wrapf(err, "storage: delete %s", key)
	}
	return nil
}

func (s *localStore) GetPresignedURL(_ context.Context, bucket, key string, _ int64) (string, error) {
	p, err := s.path(bucket, key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(p); err != nil {
		return "", eris.Wrapf(domain.ErrNotFound, "storage: %s", key)
	}
	return s.baseURL + "/files/" + url.PathEscape(bucket) + "/" + url.PathEscape(key), nil
}
