package ops

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"tickpipe/internal/schema"
)

// Config is the resolved runtime configuration shared by every role
// process. The core components only ever see values from here; no
// component reads the environment on its own.
type Config struct {
	Symbols    []string
	RegionName string

	PriceAddr string
	NewsAddr  string
	OrderAddr string

	TickInterval time.Duration
	NewsInterval time.Duration
	Backoff      time.Duration

	QueueSize int
}

// Load resolves configuration from defaults, an optional config file,
// and TICKPIPE_-prefixed environment variables, in rising precedence.
func Load(path string) (Config, error) {
	// A missing .env only means the process relies on real env vars.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("symbols", []string{"AAPL", "MSFT", "GOOGL"})
	v.SetDefault("region_name", "tickpipe.table")
	v.SetDefault("price_addr", "127.0.0.1:8000")
	v.SetDefault("news_addr", "127.0.0.1:8001")
	v.SetDefault("order_addr", "127.0.0.1:8002")
	v.SetDefault("tick_interval", 10*time.Millisecond)
	v.SetDefault("news_interval", 500*time.Millisecond)
	v.SetDefault("backoff", 2*time.Second)
	v.SetDefault("queue_size", 1024)

	v.SetEnvPrefix("TICKPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		Symbols:      v.GetStringSlice("symbols"),
		RegionName:   v.GetString("region_name"),
		PriceAddr:    v.GetString("price_addr"),
		NewsAddr:     v.GetString("news_addr"),
		OrderAddr:    v.GetString("order_addr"),
		TickInterval: v.GetDuration("tick_interval"),
		NewsInterval: v.GetDuration("news_interval"),
		Backoff:      v.GetDuration("backoff"),
		QueueSize:    v.GetInt("queue_size"),
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Registry builds the fixed symbol registry from the configured list.
func (c Config) Registry() (*schema.Registry, error) {
	return schema.NewRegistry(c.Symbols)
}

func validate(cfg Config) error {
	if len(cfg.Symbols) == 0 {
		return fmt.Errorf("symbols must not be empty")
	}
	if cfg.RegionName == "" {
		return fmt.Errorf("region_name must not be empty")
	}
	for _, key := range []struct {
		name, value string
	}{
		{"price_addr", cfg.PriceAddr},
		{"news_addr", cfg.NewsAddr},
		{"order_addr", cfg.OrderAddr},
	} {
		if key.value == "" {
			return fmt.Errorf("%s must not be empty", key.name)
		}
	}
	if cfg.TickInterval <= 0 || cfg.NewsInterval <= 0 {
		return fmt.Errorf("intervals must be > 0")
	}
	if cfg.Backoff <= 0 {
		return fmt.Errorf("backoff must be > 0")
	}
	if cfg.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be > 0")
	}
	return nil
}
