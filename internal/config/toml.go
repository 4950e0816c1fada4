package config

import (
	"log"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// TomlConfig TOML配置文件结构
type TomlConfig struct {
	App struct {
		SocketPath string `toml:"socket_path"`
	} `toml:"app"`

	Game struct {
		SessionTimeout      string   `toml:"session_timeout"`
		SimilarityThreshold float64  `toml:"similarity_threshold"`
		ExitKeywords        []string `toml:"exit_keywords"`
		ExitMessage         string   `toml:"exit_message"`
	} `toml:"game"`

	Provider struct {
		NeteaseEndpoint string `toml:"netease_endpoint"`
		SearchLimit     int    `toml:"search_limit"`
	} `toml:"provider"`

	Cache struct {
		Backend  string `toml:"backend"`
		CacheDir string `toml:"cache_dir"`
	} `toml:"cache"`

	Redis struct {
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
	} `toml:"redis"`

	AI struct {
		ModuleName string `toml:"module_name"`
		APIKey     string `toml:"api_key"`
		BaseURL    string `toml:"base_url"` // for OpenAI
	} `toml:"ai"`

	Discord struct {
		Token string `toml:"token"`
	} `toml:"discord"`
}

// loadTomlConfig 加载TOML配置文件
func loadTomlConfig(configPath string) (*TomlConfig, error) {
	// 检查配置文件是否存在
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Printf("INFO: Config file not found at %s, using defaults", configPath)
		return &TomlConfig{}, nil
	}

	var config TomlConfig
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, err
	}

	log.Printf("INFO: Loaded config from %s", configPath)
	return &config, nil
}

// applyTomlConfig 用TOML中显式设置的字段覆盖默认值
func applyTomlConfig(config *Config, tomlConfig *TomlConfig) {
	if tomlConfig.App.SocketPath != "" {
		config.App.SocketPath = tomlConfig.App.SocketPath
	}

	if tomlConfig.Game.SessionTimeout != "" {
		if duration, err := time.ParseDuration(tomlConfig.Game.SessionTimeout); err == nil {
			config.Game.SessionTimeout = duration
		} else {
			log.Printf("WARN: Invalid session_timeout format '%s', using default", tomlConfig.Game.SessionTimeout)
		}
	}

	if tomlConfig.Game.SimilarityThreshold > 0 {
		config.Game.SimilarityThreshold = tomlConfig.Game.SimilarityThreshold
	}

	if len(tomlConfig.Game.ExitKeywords) > 0 {
		config.Game.ExitKeywords = tomlConfig.Game.ExitKeywords
	}

	if tomlConfig.Game.ExitMessage != "" {
		config.Game.ExitMessage = tomlConfig.Game.ExitMessage
	}

	if tomlConfig.Provider.NeteaseEndpoint != "" {
		config.Provider.NeteaseEndpoint = tomlConfig.Provider.NeteaseEndpoint
	}

	if tomlConfig.Provider.SearchLimit > 0 {
		config.Provider.SearchLimit = tomlConfig.Provider.SearchLimit
	}

	if tomlConfig.Cache.Backend != "" {
		config.Cache.Backend = tomlConfig.Cache.Backend
	}

	if tomlConfig.Cache.CacheDir != "" {
		config.Cache.CacheDir = tomlConfig.Cache.CacheDir
	}

	if tomlConfig.Redis.Addr != "" {
		config.Redis.Addr = tomlConfig.Redis.Addr
	}

	if tomlConfig.Redis.Password != "" {
		config.Redis.Password = tomlConfig.Redis.Password
	}

	if tomlConfig.Redis.DB != 0 {
		config.Redis.DB = tomlConfig.Redis.DB
	}

	if tomlConfig.AI.ModuleName != "" {
		config.AI.ModuleName = tomlConfig.AI.ModuleName
	}

	if tomlConfig.AI.APIKey != "" {
		config.AI.APIKey = tomlConfig.AI.APIKey
	}

	if tomlConfig.AI.BaseURL != "" {
		config.AI.BaseURL = tomlConfig.AI.BaseURL
	}

	if tomlConfig.Discord.Token != "" {
		config.Discord.Token = tomlConfig.Discord.Token
	}
}
