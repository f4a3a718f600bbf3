package filestore

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// localStore keeps objects on disk for development and tests. SignedURL
// returns a plain public URL; the TTL is ignored since there is nothing
// to sign.
type localConfig struct {
	Dir       string `json:"dir"`
	PublicURL string `json:"public_url"`
}

type localStore struct {
	dir       string
	publicURL string
}

func init() {
	Register("local", createLocalStore)
}

func createLocalStore(args interface{}) (Store, error) {
	cfg := &localConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("local store dir is required")
	}
	if cfg.PublicURL == "" {
		return nil, fmt.Errorf("local store public_url is required")
	}
	return &localStore{dir: cfg.Dir, publicURL: strings.TrimSuffix(cfg.PublicURL, "/")}, nil
}

func (s *localStore) Type() string {
	return "local"
}

func (s *localStore) filePath(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	cleaned := filepath.Clean(key)
	if cleaned == "." || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("invalid file key")
	}
	return filepath.Join(s.dir, cleaned), nil
}

func (s *localStore) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_ = ctx
	_ = size
	_ = contentType
	path, err := s.filePath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, r)
	return err
}

func (s *localStore) Delete(ctx context.Context, key string) error {
	_ = ctx
	path, err := s.filePath(key)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

func (s *localStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	_ = ctx
	_ = ttl
	path, err := s.filePath(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("stat object: %w", err)
	}
	escaped := url.PathEscape(strings.TrimPrefix(key, "/"))
	escaped = strings.ReplaceAll(escaped, "%2F", "/")
	return s.publicURL + "/" + escaped, nil
}

func (s *localStore) ContentType(ctx context.Context, key string) (string, error) {
	_ = ctx
	return mime.TypeByExtension(filepath.Ext(key)), nil
}
