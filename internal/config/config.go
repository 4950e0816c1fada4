package config

import (
	"log"
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultSocketPath       = "/tmp/lyric_relay.sock"
	DefaultSessionTimeout   = 60 * time.Second
	DefaultSearchLimit      = 5
	DefaultThreshold        = 0.75
	DefaultNeteaseEndpoint  = "http://localhost:3000"
	DefaultExitMessage      = "已退出连唱模式"
	DefaultCacheBackendFile = "file"
)

var defaultExitKeywords = []string{"退出接歌", "结束接歌", "quit", "q"}

func getDefaultCacheDir() string {
	// 优先使用 XDG_CACHE_HOME 环境变量
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "lyric-relay")
	}

	// 否则使用用户主目录下的 .cache
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// 如果获取不到用户主目录，回退到当前目录
		return "lyric_relay_cache"
	}

	return filepath.Join(homeDir, ".cache", "lyric-relay")
}

// GameConfig 接歌游戏配置
type GameConfig struct {
	SessionTimeout      time.Duration
	SimilarityThreshold float64
	ExitKeywords        []string
	ExitMessage         string
}

// ProviderConfig 歌词来源配置
type ProviderConfig struct {
	NeteaseEndpoint string
	SearchLimit     int
}

// CacheConfig 歌词缓存配置
type CacheConfig struct {
	Backend  string // "file" 或 "redis"
	CacheDir string
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AIConfig AI配置
type AIConfig struct {
	ModuleName string
	APIKey     string
	BaseURL    string
}

// DiscordConfig Discord机器人配置
type DiscordConfig struct {
	Token string
}

// AppConfig 应用配置
type AppConfig struct {
	SocketPath string
}

// Config 主配置结构
type Config struct {
	App      AppConfig
	Game     GameConfig
	Provider ProviderConfig
	Cache    CacheConfig
	Redis    RedisConfig
	AI       AIConfig
	Discord  DiscordConfig
}

// getConfigPath 获取配置文件路径
func getConfigPath() string {
	// 优先使用 XDG_CONFIG_HOME 环境变量
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "lyric-relay", "config.toml")
	}

	// 否则使用用户主目录下的 .config
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Printf("WARN: Cannot get user home directory: %v", err)
		return "config.toml" // 回退到当前目录
	}

	return filepath.Join(homeDir, ".config", "lyric-relay", "config.toml")
}

func Load() *Config {
	// 加载TOML配置文件
	tomlConfig, err := loadTomlConfig(getConfigPath())
	if err != nil {
		log.Printf("ERROR: Failed to load config file: %v", err)
		log.Printf("INFO: Using default configuration")
		tomlConfig = &TomlConfig{}
	}

	config := defaultConfig()
	applyTomlConfig(config, tomlConfig)
	return config
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			SocketPath: DefaultSocketPath,
		},
		Game: GameConfig{
			SessionTimeout:      DefaultSessionTimeout,
			SimilarityThreshold: DefaultThreshold,
			ExitKeywords:        defaultExitKeywords,
			ExitMessage:         DefaultExitMessage,
		},
		Provider: ProviderConfig{
			NeteaseEndpoint: DefaultNeteaseEndpoint,
			SearchLimit:     DefaultSearchLimit,
		},
		Cache: CacheConfig{
			Backend:  DefaultCacheBackendFile,
			CacheDir: getDefaultCacheDir(),
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		},
		AI: AIConfig{
			ModuleName: "gemini",
			APIKey:     "",
			BaseURL:    "",
		},
		Discord: DiscordConfig{
			Token: "",
		},
	}
}
