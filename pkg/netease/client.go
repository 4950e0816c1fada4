package netease

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"lyric-relay/internal/lyric"
	"lyric-relay/pkg/music"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
)

// NeteaseSearchResponse 网易云搜索API响应 (cloudsearch)
type NeteaseSearchResponse struct {
	Code   int `json:"code"`
	Result struct {
		Songs []struct {
			ID      int    `json:"id"`
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"ar"`
			Album struct {
				Name string `json:"name"`
			} `json:"al"`
		} `json:"songs"`
	} `json:"result"`
}

// NeteaseLyricResponse 网易云歌词API响应。
// yrc是逐字歌词，lrc是普通逐行歌词。
type NeteaseLyricResponse struct {
	Code int `json:"code"`
	Yrc  struct {
		Lyric string `json:"lyric"`
	} `json:"yrc"`
	Lrc struct {
		Lyric string `json:"lyric"`
	} `json:"lrc"`
}

// Client 网易云音乐客户端，需要一个NeteaseCloudMusicApi服务端点
type Client struct {
	httpClient     *http.Client
	baseURL        string
	requestTimeout time.Duration
	maxRetries     int
}

// NewClient 创建新的网易云音乐客户端
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: defaultTimeout},
		baseURL:        strings.TrimRight(baseURL, "/"),
		requestTimeout: defaultTimeout,
		maxRetries:     defaultMaxRetries,
	}
}

// GetProviderName 获取提供商名称
func (c *Client) GetProviderName() string {
	return "NetEase Cloud Music"
}

// SearchSongs 按关键词搜索单曲，返回按相关度排序的候选列表
func (c *Client) SearchSongs(ctx context.Context, keyword string, limit int) ([]music.Candidate, error) {
	if limit <= 0 {
		limit = 5
	}
	params := url.Values{}
	params.Set("keywords", keyword)
	params.Set("type", "1") // 单曲
	params.Set("limit", strconv.Itoa(limit))
	searchURL := fmt.Sprintf("%s/cloudsearch?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send search request: %w", err)
	}
	defer resp.Body.Close()

	var searchResp NeteaseSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	if searchResp.Code != 200 {
		return nil, fmt.Errorf("search API returned code %d", searchResp.Code)
	}

	candidates := make([]music.Candidate, 0, len(searchResp.Result.Songs))
	for _, song := range searchResp.Result.Songs {
		artist := ""
		if len(song.Artists) > 0 {
			artist = song.Artists[0].Name
		}
		candidates = append(candidates, music.Candidate{
			ID:     strconv.Itoa(song.ID),
			Title:  song.Name,
			Artist: artist,
		})
	}

	log.Debug().Str("keyword", keyword).Int("candidates", len(candidates)).Msg("[NetEase] search done")
	return candidates, nil
}

// GetLyrics 获取歌词，优先逐字YRC，降级LRC
func (c *Client) GetLyrics(ctx context.Context, songID string) (music.RawLyrics, error) {
	lyricURL := fmt.Sprintf("%s/lyric?id=%s", c.baseURL, url.QueryEscape(songID))

	req, err := http.NewRequestWithContext(ctx, "GET", lyricURL, nil)
	if err != nil {
		return music.RawLyrics{}, fmt.Errorf("failed to create lyric request: %w", err)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return music.RawLyrics{}, fmt.Errorf("failed to send lyric request: %w", err)
	}
	defer resp.Body.Close()

	var lyricResp NeteaseLyricResponse
	if err := json.NewDecoder(resp.Body).Decode(&lyricResp); err != nil {
		return music.RawLyrics{}, fmt.Errorf("failed to decode lyric response: %w", err)
	}

	if lyricResp.Code != 200 {
		return music.RawLyrics{}, fmt.Errorf("lyric API returned code %d for song %s", lyricResp.Code, songID)
	}

	if lyricResp.Yrc.Lyric != "" {
		return music.RawLyrics{Text: lyricResp.Yrc.Lyric, Format: lyric.FormatYRC}, nil
	}
	if lyricResp.Lrc.Lyric != "" {
		return music.RawLyrics{Text: lyricResp.Lrc.Lyric, Format: lyric.FormatLRC}, nil
	}

	return music.RawLyrics{}, fmt.Errorf("no lyrics content for song %s", songID)
}

// doRequestWithRetry 带重试的请求，非200状态码和网络错误都会重试
func (c *Client) doRequestWithRetry(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
			log.Debug().Int("attempt", attempt+1).Int("max", c.maxRetries).Str("url", req.URL.String()).Msg("[NetEase] retrying request")
		}

		resp, err = c.httpClient.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			return resp, nil
		}
		if err == nil {
			err = fmt.Errorf("request failed with status %d", resp.StatusCode)
			resp.Body.Close()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries, err)
}
