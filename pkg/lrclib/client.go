package lrclib

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"lyric-relay/internal/lyric"
	"lyric-relay/pkg/music"
)

// Client LRCLib客户端，作为备选提供商。只有逐行LRC歌词。
type Client struct {
	httpClient     *http.Client
	baseURL        string
	requestTimeout time.Duration
	maxRetries     int
}

// LRCLibResponse LRCLib API响应结构
type LRCLibResponse struct {
	ID           int    `json:"id"`
	TrackName    string `json:"trackName"`
	ArtistName   string `json:"artistName"`
	AlbumName    string `json:"albumName"`
	Duration     int    `json:"duration"`
	Instrumental bool   `json:"instrumental"`
	PlainLyrics  string `json:"plainLyrics"`
	SyncedLyrics string `json:"syncedLyrics"`
}

// NewClient 创建新的LRCLib客户端
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL:        "https://lrclib.net/api",
		requestTimeout: 5 * time.Second,
		maxRetries:     3,
	}
}

// GetProviderName 返回提供商名称
func (c *Client) GetProviderName() string {
	return "LRCLib"
}

// SearchSongs 按自由文本搜索
func (c *Client) SearchSongs(ctx context.Context, keyword string, limit int) ([]music.Candidate, error) {
	params := url.Values{}
	params.Set("q", keyword)

	results, err := c.search(ctx, params)
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	candidates := make([]music.Candidate, 0, len(results))
	for _, r := range results {
		// 没有同步歌词的结果无法参与接龙
		if r.SyncedLyrics == "" {
			continue
		}
		candidates = append(candidates, music.Candidate{
			ID:     strconv.Itoa(r.ID),
			Title:  r.TrackName,
			Artist: r.ArtistName,
		})
	}

	log.Debug().Str("keyword", keyword).Int("candidates", len(candidates)).Msg("[LRCLib] search done")
	return candidates, nil
}

// GetLyrics 按记录ID获取歌词
func (c *Client) GetLyrics(ctx context.Context, songID string) (music.RawLyrics, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	getURL := fmt.Sprintf("%s/get/%s", c.baseURL, url.PathEscape(songID))
	req, err := http.NewRequestWithContext(timeoutCtx, "GET", getURL, nil)
	if err != nil {
		return music.RawLyrics{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "lyric-relay/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return music.RawLyrics{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return music.RawLyrics{}, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	var record LRCLibResponse
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return music.RawLyrics{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if record.SyncedLyrics == "" {
		return music.RawLyrics{}, fmt.Errorf("no synced lyrics for record %s", songID)
	}

	return music.RawLyrics{Text: record.SyncedLyrics, Format: lyric.FormatLRC}, nil
}

// search 带重试的搜索请求
func (c *Client) search(ctx context.Context, params url.Values) ([]LRCLibResponse, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	searchURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	var resp *http.Response
	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			log.Debug().Int("attempt", attempt).Int("max", c.maxRetries).Msg("[LRCLib] retrying request")
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
		}

		req, reqErr := http.NewRequestWithContext(timeoutCtx, "GET", searchURL, nil)
		if reqErr != nil {
			return nil, fmt.Errorf("failed to create request: %w", reqErr)
		}
		req.Header.Set("User-Agent", "lyric-relay/1.0")

		resp, err = c.httpClient.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			break
		}

		if err == nil {
			err = fmt.Errorf("status %d", resp.StatusCode)
			resp.Body.Close()
		}
		if attempt == c.maxRetries {
			return nil, fmt.Errorf("request failed after %d attempts: %w", attempt+1, err)
		}
	}
	defer resp.Body.Close()

	var results []LRCLibResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return results, nil
}
