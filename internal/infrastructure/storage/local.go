// Package storage 提供上传文件的本地存储
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore 基于本地磁盘的文件存储
//
// 文件按文档 ID 存放，索引完成后由 worker 清理。
type LocalStore struct {
	baseDir string
}

// NewLocalStore 创建本地文件存储
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if baseDir == "" {
		baseDir = filepath.Join(os.TempDir(), "avangard-uploads")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// Save 保存文件内容，返回存储路径
func (s *LocalStore) Save(documentID string, content []byte) (string, error) {
	path := filepath.Join(s.baseDir, documentID)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("写入文件失败: %w", err)
	}
	return path, nil
}

// Load 读取文件内容
func (s *LocalStore) Load(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}
	return content, nil
}

// Remove 删除文件，文件不存在不算错误
func (s *LocalStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("删除文件失败: %w", err)
	}
	return nil
}
