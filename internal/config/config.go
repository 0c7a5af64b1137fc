package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode        string   `mapstructure:"mode"`
	Port        int      `mapstructure:"port"`
	StaticPath  string   `mapstructure:"static_path"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	Secret      string   `mapstructure:"secret"`

	BroadcastInterval time.Duration `mapstructure:"broadcast_interval"`
	BridgeTimeout     time.Duration `mapstructure:"bridge_timeout"`
	BridgeQueue       int           `mapstructure:"bridge_queue"`

	SessionIdleTTL  time.Duration `mapstructure:"session_idle_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`

	// LegacyQueryAlias accepts the extension's "query" field on /api/play
	// and duplicates error bodies in the status/message form it expects.
	LegacyQueryAlias bool `mapstructure:"legacy_query_alias"`

	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`

	Youtube Youtube     `mapstructure:"youtube"`
	Guilds  []GuildSeed `mapstructure:"guilds"`
}

type Youtube struct {
	APIKey      string `mapstructure:"api_key"`
	SearchLimit int64  `mapstructure:"search_limit"`
}

// GuildSeed is a directory entry configured at startup; in a deployment
// wired to a real gateway the directory would be fed from there instead.
type GuildSeed struct {
	ID          string `mapstructure:"id"`
	Name        string `mapstructure:"name"`
	MemberCount int    `mapstructure:"member_count"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 5000)
	v.SetDefault("static_path", "./web")
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("broadcast_interval", "5s")
	v.SetDefault("bridge_timeout", "60s")
	v.SetDefault("bridge_queue", 64)
	v.SetDefault("session_idle_ttl", "5m")
	v.SetDefault("cleanup_interval", "1m")
	v.SetDefault("legacy_query_alias", true)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("youtube.search_limit", 5)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("config loaded")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
