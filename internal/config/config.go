package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Shop     ShopConfig     `mapstructure:"shop"`
	Service  ServiceConfig  `mapstructure:"service"`
	State    StateConfig    `mapstructure:"state"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

// TelegramConfig holds Bot API connection settings
type TelegramConfig struct {
	Token                string   `mapstructure:"token"`
	BaseURL              string   `mapstructure:"base_url"`
	PollTimeout          int      `mapstructure:"poll_timeout"`
	Timeout              int      `mapstructure:"timeout"`
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"`
	Proxies              []string `mapstructure:"proxies"`
}

// FeedConfig describes the remote catalog sheet
type FeedConfig struct {
	URL     string        `mapstructure:"url"`
	Format  string        `mapstructure:"format"`
	Timeout int           `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
	Columns ColumnsConfig `mapstructure:"columns"`
}

// ColumnsConfig maps feed header names to product fields
type ColumnsConfig struct {
	Category    string `mapstructure:"category"`
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
	Price       string `mapstructure:"price"`
	Photo       string `mapstructure:"photo"`
}

type ShopConfig struct {
	OrderChatID int64  `mapstructure:"order_chat_id"`
	Currency    string `mapstructure:"currency"`
}

type ServiceConfig struct {
	MaxWorkers int `mapstructure:"max_workers"`
	QueueSize  int `mapstructure:"queue_size"`
	RetryDelay int `mapstructure:"retry_delay"`
}

// StateConfig selects where the polling offset and the update queue are
// kept: "memory" or "redis"
type StateConfig struct {
	Backend string `mapstructure:"backend"`
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	MinIdleTime   int    `mapstructure:"min_idle_time"`
}

// DatabaseConfig holds the order journal connection
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DSN returns a pgx connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// Load reads config.yaml from the given directories (the working directory
// when none are given) and applies environment overrides such as
// TELEGRAM_TOKEN or SHOP_ORDER_CHAT_ID. A missing file is not an error.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate reports settings the bot cannot start without
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Telegram.Token) == "" {
		errs = append(errs, errors.New("telegram.token is required"))
	}
	if strings.TrimSpace(c.Feed.URL) == "" {
		errs = append(errs, errors.New("feed.url is required"))
	}
	if c.Feed.Format != "csv" && c.Feed.Format != "html" {
		errs = append(errs, fmt.Errorf("feed.format must be csv or html, got %q", c.Feed.Format))
	}
	if c.Shop.OrderChatID == 0 {
		errs = append(errs, errors.New("shop.order_chat_id is required"))
	}
	if c.State.Backend != "memory" && c.State.Backend != "redis" {
		errs = append(errs, fmt.Errorf("state.backend must be memory or redis, got %q", c.State.Backend))
	}
	if c.Service.MaxWorkers <= 0 {
		errs = append(errs, errors.New("service.max_workers must be positive"))
	}

	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.base_url", "https://api.telegram.org")
	v.SetDefault("telegram.poll_timeout", 30)
	v.SetDefault("telegram.timeout", 10)
	v.SetDefault("telegram.max_requests_per_second", 25)
	v.SetDefault("telegram.proxies", []string{})

	v.SetDefault("feed.url", "")
	v.SetDefault("feed.format", "csv")
	v.SetDefault("feed.timeout", 15)
	v.SetDefault("feed.retries", 0)
	v.SetDefault("feed.columns.category", "Категория")
	v.SetDefault("feed.columns.title", "Название")
	v.SetDefault("feed.columns.description", "Описание")
	v.SetDefault("feed.columns.price", "Цена")
	v.SetDefault("feed.columns.photo", "Ссылка на фото")

	v.SetDefault("shop.order_chat_id", 0)
	v.SetDefault("shop.currency", "₽")

	v.SetDefault("service.max_workers", 8)
	v.SetDefault("service.queue_size", 100)
	v.SetDefault("service.retry_delay", 3)

	v.SetDefault("state.backend", "memory")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.consumer_group", "storefront")
	v.SetDefault("redis.min_idle_time", 60)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "storefront")
	v.SetDefault("database.user", "storefront")
	v.SetDefault("database.password", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
