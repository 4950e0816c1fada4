// Package cache 提供按歌曲ID持久化已解析歌词文档的存储。
// 文档解析后只读，写入是幂等的。
package cache

import (
	"context"

	"lyric-relay/internal/lyric"
)

// Store 歌词文档存储。Get 未命中时返回 (nil, nil)。
type Store interface {
	Get(ctx context.Context, songID string) (*lyric.Document, error)
	Set(ctx context.Context, songID string, doc *lyric.Document) error
	Close() error
}
