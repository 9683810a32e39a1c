package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	fileSuffix      = ".json"
	tmpSuffix       = ".tmp"
	backupSuffix    = ".backup"
	filePermissions = 0644
)

// FileKV stores every key as <dir>/<key>.json.
// Writes go to a temp file first and are renamed into place; the previous
// value is kept as <key>.json.backup.
type FileKV struct {
	dir    string
	logger *zap.Logger
}

// NewFileKV creates dir if needed.
func NewFileKV(dir string, logger *zap.Logger) (*FileKV, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("file store directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileKV{dir: dir, logger: logger}, nil
}

var _ KV = (*FileKV)(nil)

// Dir returns the data directory.
func (f *FileKV) Dir() string { return f.dir }

func (f *FileKV) path(key string) string {
	return filepath.Join(f.dir, fileName(key)+fileSuffix)
}

// fileName maps a key to a file-safe name. Namespaced keys such as
// "dorm:rooms" become "dorm_rooms".
func fileName(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func (f *FileKV) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrMiss
		}
		return "", err
	}
	return string(data), nil
}

func (f *FileKV) Set(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := f.path(key)

	if _, err := os.Stat(target); err == nil {
		if err := copyFile(target, target+backupSuffix); err != nil {
			f.logger.Warn("failed to create backup", zap.String("key", key), zap.Error(err))
		}
	}

	tmp := target + tmpSuffix
	if err := os.WriteFile(tmp, []byte(value), filePermissions); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit %s: %w", key, err)
	}
	return nil
}

func (f *FileKV) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, filePermissions)
}
