package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log        Logger         `mapstructure:"logger"`
	DB         Database       `mapstructure:"database"`
	API        API            `mapstructure:"api"`
	Auth       Auth           `mapstructure:"auth"`
	Market     Market         `mapstructure:"market"`
	MarketData MarketData     `mapstructure:"market_data"`
	Critique   Critique       `mapstructure:"critique"`
	Scheduler  Scheduler      `mapstructure:"scheduler"`
	Cache      Cache          `mapstructure:"cache"`
	Telegram   TelegramConfig `mapstructure:"telegram"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type Database struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
	MigrationsPath  string `mapstructure:"migrations_path"`
}

type API struct {
	Port                int           `mapstructure:"port"`
	RateLimitPerSecond  float64       `mapstructure:"rate_limit_per_second"`
	RateLimitBurst      int           `mapstructure:"rate_limit_burst"`
	RateLimitExpiresIn  time.Duration `mapstructure:"rate_limit_expires_in"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`
}

type Auth struct {
	GoogleClientID     string        `mapstructure:"google_client_id"`
	GoogleClientSecret string        `mapstructure:"google_client_secret"`
	RedirectURL        string        `mapstructure:"redirect_url"`
	PostLoginRedirect  string        `mapstructure:"post_login_redirect"`
	AllowedEmails      []string      `mapstructure:"allowed_emails"`
	JWTSecret          string        `mapstructure:"jwt_secret"`
	SessionTTL         time.Duration `mapstructure:"session_ttl"`
	StateTTL           time.Duration `mapstructure:"state_ttl"`
	CookieName         string        `mapstructure:"cookie_name"`
	CookieSecure       bool          `mapstructure:"cookie_secure"`
}

// Market describes the calendar used to decide what "today" is.
type Market struct {
	TimeZone string `mapstructure:"time_zone"`
}

type MarketData struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	LookbackDays        int           `mapstructure:"lookback_days"`
	LatestPriceTTL      time.Duration `mapstructure:"latest_price_ttl"`
}

type Critique struct {
	Provider             string        `mapstructure:"provider"`
	Timeout              time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute  int           `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute    int           `mapstructure:"max_token_per_minute"`
	UserRequestPerMinute int           `mapstructure:"user_request_per_minute"`
	MaxOutputTokens      int           `mapstructure:"max_output_tokens"`
	Temperature          float64       `mapstructure:"temperature"`
	Gemini               Gemini        `mapstructure:"gemini"`
	OpenAI               OpenAI        `mapstructure:"openai"`
}

type Gemini struct {
	APIKey    string `mapstructure:"api_key"`
	BaseModel string `mapstructure:"base_model"`
}

type OpenAI struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type Scheduler struct {
	Enabled         bool          `mapstructure:"enabled"`
	Cron            string        `mapstructure:"cron"`
	TimeoutDuration time.Duration `mapstructure:"timeout_duration"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type TelegramConfig struct {
	Enabled                   bool   `mapstructure:"enabled"`
	BotToken                  string `mapstructure:"bot_token"`
	ChatID                    int64  `mapstructure:"chat_id"`
	MaxGlobalRequestPerSecond int    `mapstructure:"max_global_request_per_second"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.log_level", "Warn")
	v.SetDefault("database.migrations_path", "file://migrations")

	v.SetDefault("api.port", 8080)
	v.SetDefault("api.rate_limit_per_second", 10)
	v.SetDefault("api.rate_limit_burst", 30)
	v.SetDefault("api.rate_limit_expires_in", 3*time.Minute)
	v.SetDefault("api.request_timeout", 30*time.Second)
	v.SetDefault("api.shutdown_grace_period", 10*time.Second)

	v.SetDefault("auth.post_login_redirect", "/")
	v.SetDefault("auth.session_ttl", 24*time.Hour)
	v.SetDefault("auth.state_ttl", 10*time.Minute)
	v.SetDefault("auth.cookie_name", "tj_session")
	v.SetDefault("auth.cookie_secure", true)

	v.SetDefault("market.time_zone", "America/New_York")

	v.SetDefault("market_data.base_url", "https://query1.finance.yahoo.com/v8/finance/chart")
	v.SetDefault("market_data.timeout", 15*time.Second)
	v.SetDefault("market_data.max_request_per_minute", 60)
	v.SetDefault("market_data.lookback_days", 60)
	v.SetDefault("market_data.latest_price_ttl", time.Minute)

	v.SetDefault("critique.provider", "gemini")
	v.SetDefault("critique.timeout", 60*time.Second)
	v.SetDefault("critique.max_request_per_minute", 10)
	v.SetDefault("critique.max_token_per_minute", 200000)
	v.SetDefault("critique.user_request_per_minute", 5)
	v.SetDefault("critique.max_output_tokens", 500)
	v.SetDefault("critique.temperature", 0.7)
	v.SetDefault("critique.gemini.base_model", "gemini-2.0-flash")
	v.SetDefault("critique.openai.model", "gpt-4o-mini")

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.cron", "*/15 * * * *")
	v.SetDefault("scheduler.timeout_duration", 2*time.Minute)

	v.SetDefault("cache.default_expiration", 5*time.Minute)
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)

	v.SetDefault("telegram.max_global_request_per_second", 1)
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file loaded:", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.MarketData.LookbackDays <= 0 {
		return fmt.Errorf("market_data.lookback_days must be positive")
	}
	if c.MarketData.MaxRequestPerMinute <= 0 {
		return fmt.Errorf("market_data.max_request_per_minute must be positive")
	}
	if c.Critique.MaxRequestPerMinute <= 0 {
		return fmt.Errorf("critique.max_request_per_minute must be positive")
	}
	if _, err := time.LoadLocation(c.Market.TimeZone); err != nil {
		return fmt.Errorf("invalid market.time_zone %q: %w", c.Market.TimeZone, err)
	}
	switch c.Critique.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unsupported critique provider %q", c.Critique.Provider)
	}
	return nil
}
