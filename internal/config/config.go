package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	DatabaseURL        string `mapstructure:"DATABASE_URL"`
	JWTSecret          string `mapstructure:"JWT_SECRET"`
	RedisURL           string `mapstructure:"REDIS_URL"`
	ModeratorEmail     string `mapstructure:"MODERATOR_EMAIL"`
	ListenAddr         string `mapstructure:"LISTEN_ADDR"`
	ResyncIntervalSecs int    `mapstructure:"RESYNC_INTERVAL_SECONDS"`
	BannerTimeoutSecs  int    `mapstructure:"BANNER_TIMEOUT_SECONDS"`
}

var AppConfig *Config

// ResyncInterval is how often a room session re-fetches a full snapshot to
// reconcile against dropped change-feed events. The feed is the primary
// delivery path, so this is a safety net, not the main update channel.
func (c *Config) ResyncInterval() time.Duration {
	return time.Duration(c.ResyncIntervalSecs) * time.Second
}

// BannerTimeout is how long a transient error banner stays visible.
func (c *Config) BannerTimeout() time.Duration {
	return time.Duration(c.BannerTimeoutSecs) * time.Second
}

// LoadConfig loads the configuration from a .env file and environment variables.
func LoadConfig() {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	viper.SetDefault("LISTEN_ADDR", ":8080")
	viper.SetDefault("RESYNC_INTERVAL_SECONDS", 30)
	viper.SetDefault("BANNER_TIMEOUT_SECONDS", 5)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
}
