package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"lyric-relay/internal/lyric"
	"lyric-relay/pkg/fileutil"
)

var unsafeFilenameRe = regexp.MustCompile(`[\\/:*?"<>|]`)

// FileStore 文件存储：每首歌一个JSON文件，放在缓存目录下
type FileStore struct {
	dir string
}

// NewFileStore 创建文件存储，目录不存在时自动创建
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Get 读取缓存的文档，文件不存在时返回 (nil, nil)
func (s *FileStore) Get(_ context.Context, songID string) (*lyric.Document, error) {
	data, err := os.ReadFile(s.path(songID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var doc lyric.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		// 损坏的缓存文件按未命中处理
		return nil, nil
	}
	return &doc, nil
}

// Set 写入文档，覆盖旧文件
func (s *FileStore) Set(_ context.Context, songID string, doc *lyric.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	return fileutil.WriteFileOverwrite(s.path(songID), data, 0644)
}

// Close 实现 Store 接口
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) path(songID string) string {
	return filepath.Join(s.dir, sanitizeFilename(songID)+".json")
}

func sanitizeFilename(name string) string {
	return unsafeFilenameRe.ReplaceAllString(name, "-")
}
