package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"pump_screener/internal/models"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDirENV      = "CONFIG_DIR"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
	redisPasswordENV  = "REDIS_PASSWORD"

	envPrefix = "SCREENER"
)

// Config ...
type Config struct {
	Service struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"service"`

	Binance struct {
		WSURL        string        `mapstructure:"ws_url"`
		RESTURL      string        `mapstructure:"rest_url"`
		Warmup       bool          `mapstructure:"warmup"` // засеять якоря REST-снимком до стрима
		PingInterval time.Duration `mapstructure:"ping_interval"`
		QueueSize    int           `mapstructure:"queue_size"`
		StatusEvery  time.Duration `mapstructure:"status_every"`
	} `mapstructure:"binance"`

	// Стартовые пороги; дальше меняются через /update_params
	Filters models.FilterConfig `mapstructure:"filters"`

	Lists struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"lists"`

	History struct {
		MaxEvents int `mapstructure:"max_events"` // 0 = без лимита
	} `mapstructure:"history"`

	Coverage struct {
		Interval time.Duration `mapstructure:"interval"`
	} `mapstructure:"coverage"`

	Audit struct {
		Dir        string `mapstructure:"dir"`
		FilePrefix string `mapstructure:"file_prefix"`
	} `mapstructure:"audit"`

	DB string `mapstructure:"db_dsn"`

	// Шина сигналов; пустой addr = выключено
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
		Channel  string `mapstructure:"channel"`
		Keep     int64  `mapstructure:"keep"`
	} `mapstructure:"redis"`

	Telegram struct {
		Token  string `mapstructure:"token"`
		ChatID int64  `mapstructure:"chat_id"`
	} `mapstructure:"telegram"`

	Tracing struct {
		Enabled    bool    `mapstructure:"enabled"`
		Host       string  `mapstructure:"host"`
		Port       int     `mapstructure:"port"`
		SampleRate float64 `mapstructure:"sample_rate"`
	} `mapstructure:"tracing"`

	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	dir := os.Getenv(configDirENV)
	if dir == "" {
		dir = "configs"
	}

	return Load(filepath.Join(dir, configFileName))
}

// Load читает yaml-файл поверх дефолтов. Отсутствующий файл - не ошибка,
// работаем на дефолтах и env.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(path); statErr == nil {
				return nil, errors.Wrapf(err, "read config %s", path)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if token := os.Getenv(tokenTelegramENV); token != "" {
		cfg.Telegram.Token = token
	}
	if dsn := os.Getenv(databaseDSN); dsn != "" {
		cfg.DB = dsn
	}
	if pass := os.Getenv(redisPasswordENV); pass != "" {
		cfg.Redis.Password = pass
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.addr", ":5000")

	v.SetDefault("binance.ws_url", "wss://fstream.binance.com/ws/!ticker@arr")
	v.SetDefault("binance.rest_url", "https://fapi.binance.com/fapi/v1/ticker/24hr")
	v.SetDefault("binance.warmup", false)
	v.SetDefault("binance.ping_interval", "20s")
	v.SetDefault("binance.queue_size", 64)
	v.SetDefault("binance.status_every", "5s")

	v.SetDefault("filters.min_volume", 40_000_000)
	v.SetDefault("filters.max_volume", 16_000_000_000)
	v.SetDefault("filters.min_price", 0)
	v.SetDefault("filters.max_price", 30)
	v.SetDefault("filters.min_24h_change", 0)
	v.SetDefault("filters.max_24h_change", 0)
	v.SetDefault("filters.price_threshold", 0.1)
	v.SetDefault("filters.volume_burst", 0)
	v.SetDefault("filters.trades_threshold", 0)

	v.SetDefault("lists.path", "binance_config.json")
	v.SetDefault("history.max_events", 5000)
	v.SetDefault("coverage.interval", "1s")

	v.SetDefault("audit.dir", ".")
	v.SetDefault("audit.file_prefix", "binance_data_")

	v.SetDefault("db_dsn", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "screener:signals")
	v.SetDefault("redis.keep", 500)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.host", "localhost")
	v.SetDefault("tracing.port", 6831)
	v.SetDefault("tracing.sample_rate", 1.0)

	v.SetDefault("logging.level", "info")
}

func (c *Config) Validate() error {
	if c.Service.Addr == "" {
		return errors.New("service.addr is required")
	}
	if c.Binance.WSURL == "" {
		return errors.New("binance.ws_url is required")
	}
	if c.Binance.QueueSize < 1 {
		return errors.New("binance.queue_size must be at least 1")
	}
	if c.History.MaxEvents < 0 {
		return errors.New("history.max_events must not be negative")
	}
	if c.Coverage.Interval <= 0 {
		return errors.New("coverage.interval must be positive")
	}
	if c.Filters.Min24hChange < -99 {
		c.Filters.Min24hChange = -99
	}
	return nil
}
