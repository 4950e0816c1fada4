package music

import (
	"context"

	"lyric-relay/internal/lyric"
)

// Candidate 搜索返回的候选歌曲
type Candidate struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// RawLyrics 原始歌词文档及其格式标签
type RawLyrics struct {
	Text   string
	Format lyric.Format
}

// MusicAPI 音乐API通用接口
type MusicAPI interface {
	// SearchSongs 按自由文本搜索歌曲，返回按相关度排序的候选列表
	SearchSongs(ctx context.Context, keyword string, limit int) ([]Candidate, error)

	// GetLyrics 根据歌曲ID获取原始歌词文档
	GetLyrics(ctx context.Context, songID string) (RawLyrics, error)

	// GetProviderName 获取音乐提供商名称
	GetProviderName() string
}
