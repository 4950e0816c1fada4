package music

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Provider 音乐提供商类型
type Provider string

const (
	// ProviderNetEase 网易云音乐
	ProviderNetEase Provider = "netease"
	// ProviderLRCLib LRCLib歌词库
	ProviderLRCLib Provider = "lrclib"
	// ProviderQQMusic QQ音乐 (未来实现)
	ProviderQQMusic Provider = "qqmusic"
)

var logger = log.With().Str("component", "music-manager").Logger()

// Manager 音乐API管理器，支持多提供商回退
type Manager struct {
	providers []MusicAPI
	primary   MusicAPI
}

// NewManager 创建新的音乐API管理器
func NewManager(providers []MusicAPI) *Manager {
	if len(providers) == 0 {
		logger.Warn().Msg("No music providers configured")
		return &Manager{}
	}

	primary := providers[0]
	logger.Info().
		Int("provider_count", len(providers)).
		Str("primary_provider", primary.GetProviderName()).
		Msg("Music API Manager initialized")

	return &Manager{
		providers: providers,
		primary:   primary,
	}
}

// SearchSongs 搜索歌曲，支持多提供商回退
func (m *Manager) SearchSongs(ctx context.Context, keyword string, limit int) ([]Candidate, error) {
	if len(m.providers) == 0 {
		return nil, fmt.Errorf("no music providers available")
	}

	var lastErr error
	for i, provider := range m.providers {
		logger.Debug().
			Str("provider", provider.GetProviderName()).
			Int("attempt", i+1).
			Int("total_providers", len(m.providers)).
			Str("keyword", keyword).
			Msg("Trying provider search")

		candidates, err := provider.SearchSongs(ctx, keyword, limit)
		if err == nil && len(candidates) > 0 {
			logger.Info().
				Str("provider", provider.GetProviderName()).
				Int("candidates", len(candidates)).
				Msg("Search succeeded")
			return scopeCandidates(provider, candidates), nil
		}

		if err == nil {
			err = fmt.Errorf("no candidates for %q", keyword)
		}
		logger.Warn().
			Str("provider", provider.GetProviderName()).
			Err(err).
			Msg("Provider search failed")
		lastErr = err
	}

	return nil, fmt.Errorf("all providers failed, last error: %w", lastErr)
}

// GetLyrics 获取歌词。
// 带命名空间前缀的歌曲ID路由到产生它的提供商，不做回退：
// 不同提供商的裸ID会撞号（都是整数），回退会取到无关的歌。
// 无前缀的ID保留多提供商回退。
func (m *Manager) GetLyrics(ctx context.Context, songID string) (RawLyrics, error) {
	if len(m.providers) == 0 {
		return RawLyrics{}, fmt.Errorf("no music providers available")
	}

	if key, id, ok := splitScopedID(songID); ok {
		for _, provider := range m.providers {
			if scopeKey(provider) != key {
				continue
			}
			raw, err := provider.GetLyrics(ctx, id)
			if err != nil {
				return RawLyrics{}, fmt.Errorf("provider %s failed for song %s: %w", key, songID, err)
			}
			logger.Info().
				Str("provider", provider.GetProviderName()).
				Str("song_id", songID).
				Str("format", string(raw.Format)).
				Msg("Successfully got lyrics")
			return raw, nil
		}
		return RawLyrics{}, fmt.Errorf("no provider for song id scope %q", key)
	}

	var lastErr error
	for i, provider := range m.providers {
		logger.Debug().
			Str("provider", provider.GetProviderName()).
			Int("attempt", i+1).
			Str("song_id", songID).
			Msg("Trying to get lyrics from provider")

		raw, err := provider.GetLyrics(ctx, songID)
		if err == nil {
			logger.Info().
				Str("provider", provider.GetProviderName()).
				Str("song_id", songID).
				Str("format", string(raw.Format)).
				Msg("Successfully got lyrics")
			return raw, nil
		}

		logger.Warn().
			Str("provider", provider.GetProviderName()).
			Err(err).
			Msg("Provider get lyrics failed")
		lastErr = err
	}

	return RawLyrics{}, fmt.Errorf("all providers failed for song %s, last error: %w", songID, lastErr)
}

// GetProviderName 获取管理器名称（实现MusicAPI接口）
func (m *Manager) GetProviderName() string {
	if m.primary != nil {
		return fmt.Sprintf("Manager[Primary: %s]", m.primary.GetProviderName())
	}
	return "Manager[No Providers]"
}

// GetProviderCount 获取提供商数量
func (m *Manager) GetProviderCount() int {
	return len(m.providers)
}

// scopeKey 提供商在歌曲ID里的命名空间，取名称首个单词的小写形式
func scopeKey(p MusicAPI) string {
	name := p.GetProviderName()
	if i := strings.IndexByte(name, ' '); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

// scopeCandidates 给候选ID加上提供商命名空间前缀
func scopeCandidates(p MusicAPI, candidates []Candidate) []Candidate {
	key := scopeKey(p)
	scoped := make([]Candidate, len(candidates))
	for i, c := range candidates {
		c.ID = key + ":" + c.ID
		scoped[i] = c
	}
	return scoped
}

// splitScopedID 拆出歌曲ID的命名空间前缀
func splitScopedID(songID string) (key, id string, ok bool) {
	return strings.Cut(songID, ":")
}
