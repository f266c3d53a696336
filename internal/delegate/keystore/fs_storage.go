package keystore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileSystemStorage 文件系统存储实现，每条记录一个文件
type FileSystemStorage struct {
	basePath string
}

// NewFileSystemStorage 创建文件系统存储实例
func NewFileSystemStorage(basePath string) (*FileSystemStorage, error) {
	if basePath == "" {
		return nil, errors.New("base path is required")
	}

	if err := os.MkdirAll(basePath, 0700); err != nil {
		return nil, errors.Wrap(err, "failed to create base path")
	}

	return &FileSystemStorage{basePath: basePath}, nil
}

func (s *FileSystemStorage) filePath(key string) string {
	return filepath.Join(s.basePath, key+".rec")
}

func (s *FileSystemStorage) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read record")
	}
	return data, nil
}

// Set 写入记录（使用临时文件然后原子重命名）
func (s *FileSystemStorage) Set(_ context.Context, key string, value []byte) error {
	filePath := s.filePath(key)

	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, value, 0600); err != nil {
		return errors.Wrap(err, "failed to write record")
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		return errors.Wrap(err, "failed to rename temp file")
	}

	return nil
}

func (s *FileSystemStorage) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.filePath(key)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "failed to delete record")
	}
	return nil
}
