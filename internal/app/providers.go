package app

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"lyric-relay/pkg/lrclib"
	"lyric-relay/pkg/music"
	"lyric-relay/pkg/netease"
	"lyric-relay/pkg/qqmusic"
)

// createProvider 创建音乐提供商客户端
func createProvider(provider music.Provider, neteaseEndpoint string) (music.MusicAPI, error) {
	switch provider {
	case music.ProviderNetEase:
		log.Info().Str("endpoint", neteaseEndpoint).Msg("Creating NetEase music client")
		return netease.NewClient(neteaseEndpoint), nil
	case music.ProviderLRCLib:
		log.Info().Msg("Creating LRCLib client")
		return lrclib.NewClient(), nil
	case music.ProviderQQMusic:
		log.Info().Msg("Creating QQ Music client")
		return qqmusic.NewClient(), nil
	default:
		return nil, fmt.Errorf("unknown music provider: %s", provider)
	}
}

// newMusicProvider 组装默认的音乐API管理器。
// 网易云音乐作为主要提供商（有逐字YRC歌词），LRCLib作为备选。
func newMusicProvider(neteaseEndpoint string) (*music.Manager, error) {
	providerTypes := []music.Provider{
		music.ProviderNetEase,
		music.ProviderLRCLib,
	}

	var providers []music.MusicAPI
	for _, providerType := range providerTypes {
		provider, err := createProvider(providerType, neteaseEndpoint)
		if err != nil {
			log.Warn().Err(err).Str("provider", string(providerType)).Msg("Failed to create provider")
			continue
		}
		providers = append(providers, provider)
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("no music providers available")
	}

	return music.NewManager(providers), nil
}
