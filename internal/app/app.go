package app

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lyric-relay/internal/config"
	"lyric-relay/internal/game"
	"lyric-relay/internal/match"
	"lyric-relay/internal/resolve"
	"lyric-relay/internal/transport"
	"lyric-relay/internal/transport/discord"
	"lyric-relay/internal/transport/ipc"
	"lyric-relay/pkg/ai"
	"lyric-relay/pkg/ai/gemini"
	"lyric-relay/pkg/ai/openai"
	"lyric-relay/pkg/cache"
)

type App struct {
	cfg        *config.Config
	manager    *game.Manager
	store      cache.Store
	transports []transport.Transport
}

func New(cfg *config.Config) *App {
	// 设置 zerolog 的全局配置
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	provider, err := newMusicProvider(cfg.Provider.NeteaseEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create music provider")
	}

	store := newCacheStore(cfg)
	locator := match.NewLocator(cfg.Game.SimilarityThreshold)
	resolver := resolve.NewResolver(provider, store, locator, newRefiner(cfg), cfg.Provider.SearchLimit)

	manager := game.NewManager(resolver, locator, game.Config{
		SessionTimeout: cfg.Game.SessionTimeout,
		ExitKeywords:   cfg.Game.ExitKeywords,
		ExitMessage:    cfg.Game.ExitMessage,
	})

	transports := []transport.Transport{ipc.NewServer(cfg.App.SocketPath)}
	if cfg.Discord.Token != "" {
		bot, err := discord.New(cfg.Discord.Token)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create discord bot")
		}
		transports = append(transports, bot)
	} else {
		log.Info().Msg("No discord token configured, discord transport disabled")
	}

	return &App{
		cfg:        cfg,
		manager:    manager,
		store:      store,
		transports: transports,
	}
}

// newCacheStore 按配置选择缓存后端，redis不可用时降级到文件缓存
func newCacheStore(cfg *config.Config) cache.Store {
	if cfg.Cache.Backend == "redis" {
		store, err := cache.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err == nil {
			log.Info().Str("addr", cfg.Redis.Addr).Msg("Using redis lyrics cache")
			return store
		}
		log.Warn().Err(err).Msg("Redis unavailable, falling back to file cache")
	}

	store, err := cache.NewFileStore(cfg.Cache.CacheDir)
	if err != nil {
		log.Fatal().Err(err).Str("cache_dir", cfg.Cache.CacheDir).Msg("Failed to create file cache")
	}
	log.Info().Str("cache_dir", cfg.Cache.CacheDir).Msg("Using file lyrics cache")
	return store
}

// newRefiner 按配置创建AI客户端，未配置api_key时不启用
func newRefiner(cfg *config.Config) ai.AiInterface {
	if cfg.AI.APIKey == "" {
		log.Info().Msg("No AI api_key configured, search refiner disabled")
		return nil
	}

	switch cfg.AI.ModuleName {
	case "gemini":
		return gemini.NewGemini(cfg.AI.APIKey, "")
	case "openai":
		return openai.NewOpenAi(cfg.AI.APIKey, "", cfg.AI.BaseURL)
	default:
		log.Warn().Str("module", cfg.AI.ModuleName).Msg("Unknown AI module, search refiner disabled")
		return nil
	}
}

func (a *App) Run() {
	for _, tr := range a.transports {
		if err := tr.Start(a.manager.Handle); err != nil {
			log.Fatal().Err(err).Msg("Failed to start transport")
		}
	}

	log.Info().Msg("Lyric relay started, waiting for messages...")

	// 等待退出信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Shutting down")

	for _, tr := range a.transports {
		if err := tr.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close transport")
		}
	}
	if err := a.store.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close cache store")
	}
}
