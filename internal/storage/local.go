package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore 本地磁盘存储
type LocalStore struct {
	base string
}

// NewLocalStore 创建本地存储，base 为根目录
func NewLocalStore(base string) (*LocalStore, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStore{base: base}, nil
}

// Save 写入附件并返回存储路径
func (s *LocalStore) Save(ctx context.Context, dir, filename string, content io.Reader) (string, error) {
	if err := os.MkdirAll(filepath.Join(s.base, dir), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}

	key := filepath.ToSlash(filepath.Join(dir, filename))
	f, err := os.Create(filepath.Join(s.base, dir, filename))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return key, nil
}

// Delete 删除附件；附件不存在不视为错误
func (s *LocalStore) Delete(ctx context.Context, path string) error {
	err := os.Remove(filepath.Join(s.base, filepath.FromSlash(path)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}
