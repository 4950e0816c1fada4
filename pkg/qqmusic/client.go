package qqmusic

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"

	"lyric-relay/pkg/music"
)

// Client QQ音乐客户端
type Client struct {
	httpClient *http.Client
	cookie     string
}

// NewClient 创建新的QQ音乐客户端
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{},
		cookie:     os.Getenv("QQMUSIC_COOKIE"),
	}
}

// GetProviderName 获取提供商名称
func (c *Client) GetProviderName() string {
	return "QQ Music"
}

// SearchSongs 搜索歌曲
func (c *Client) SearchSongs(ctx context.Context, keyword string, limit int) ([]music.Candidate, error) {
	// TODO: 实现QQ音乐搜索API
	// 参考网址: https://y.qq.com/n/ryqq/search
	log.Debug().Str("keyword", keyword).Msg("[QQMusic] search requested")
	return nil, fmt.Errorf("QQ Music search not implemented yet")
}

// GetLyrics 获取歌词
func (c *Client) GetLyrics(ctx context.Context, songID string) (music.RawLyrics, error) {
	// TODO: 实现QQ音乐歌词API
	// 参考网址: https://c.y.qq.com/lyric/fcgi-bin/fcg_query_lyric_new.fcg
	log.Debug().Str("song_id", songID).Msg("[QQMusic] lyrics requested")
	return music.RawLyrics{}, fmt.Errorf("QQ Music lyrics not implemented yet")
}
