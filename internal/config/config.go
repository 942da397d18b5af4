package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Market   Market   `mapstructure:"market"`
	Feed     Feed     `mapstructure:"feed"`
	Advisor  Advisor  `mapstructure:"advisor"`
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
}

// Market holds the tunables of the simulator and the session engine.
type Market struct {
	TickInterval      int     `mapstructure:"tick_interval"`       // seconds between simulated ticks
	RefreshInterval   int     `mapstructure:"refresh_interval"`    // seconds between feed refreshes
	SeriesBound       int     `mapstructure:"series_bound"`        // default candles kept per series
	VolatilityFactor  float64 `mapstructure:"volatility_factor"`   // volatility = price * factor
	RollProbability   float64 `mapstructure:"roll_probability"`    // chance a tick opens a new candle
	NotificationTTLMs int     `mapstructure:"notification_ttl_ms"` // lifetime of a notification
	StartingCash      float64 `mapstructure:"starting_cash"`       // paper-money balance per session
	OfflineMode       bool    `mapstructure:"offline_mode"`        // simulate everything, no feed
}

// Feed holds the configuration for the upstream market-data API.
type Feed struct {
	BaseURL        string  `mapstructure:"base_url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Advisor holds the configuration for the AI advisory endpoint.
type Advisor struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("market.tick_interval", 1)
	viper.SetDefault("market.refresh_interval", 30)
	viper.SetDefault("market.series_bound", 50)
	viper.SetDefault("market.volatility_factor", 0.005)
	viper.SetDefault("market.roll_probability", 0.05)
	viper.SetDefault("market.notification_ttl_ms", 5000)
	viper.SetDefault("market.starting_cash", 100000)
	viper.SetDefault("feed.rate_limit", 10) // requests per second
	viper.SetDefault("feed.rate_limit_burst", 5)
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.dsn", "dashboard.db")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
