package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Credentials is an API key/secret pair for one exchange.
type Credentials struct {
	Key    string
	Secret string
}

// Config is the application configuration. Credentials come only from
// the environment; tunables may come from an optional YAML settings
// file with env overrides on top.
type Config struct {
	ListenAddr      string
	Pair            string        // CoinDCX futures instrument
	DeltaProduct    string        // Delta product symbol
	DefaultLeverage int           // leverage applied when a request omits it
	OrderbookDepth  int           // public orderbook snapshot depth
	SettleDelay     time.Duration // wait between exit-all and re-entry in the re-enter flow
	JournalPath     string        // sqlite execution journal path

	CoinDCX Credentials
	Delta   Credentials

	LogLevel string
	LogFile  string
}

// settingsFile is the YAML shape of the optional settings file.
type settingsFile struct {
	Listen          string `yaml:"listen"`
	Pair            string `yaml:"pair"`
	DeltaProduct    string `yaml:"delta_product"`
	DefaultLeverage int    `yaml:"default_leverage"`
	OrderbookDepth  int    `yaml:"orderbook_depth"`
	SettleDelay     string `yaml:"settle_delay"` // time.ParseDuration format, e.g. "6s"
	JournalPath     string `yaml:"journal_path"`
	LogLevel        string `yaml:"log_level"`
	LogFile         string `yaml:"log_file"`
}

func defaults() *Config {
	return &Config{
		ListenAddr:      ":8000",
		Pair:            "B-RIVER_USDT",
		DeltaProduct:    "BTCUSD",
		DefaultLeverage: 15,
		OrderbookDepth:  10,
		SettleDelay:     6 * time.Second,
		JournalPath:     "data/executions.db",
		LogLevel:        "info",
	}
}

// Load builds the configuration: defaults, then the YAML settings file
// (if filePath is non-empty and exists), then environment variables.
func Load(filePath string) (*Config, error) {
	cfg := defaults()

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read settings file: %w", err)
			}
		} else {
			var sf settingsFile
			if err := yaml.Unmarshal(data, &sf); err != nil {
				return nil, fmt.Errorf("parse settings file %s: %w", filePath, err)
			}
			applySettings(cfg, &sf)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applySettings(cfg *Config, sf *settingsFile) {
	if sf.Listen != "" {
		cfg.ListenAddr = sf.Listen
	}
	if sf.Pair != "" {
		cfg.Pair = sf.Pair
	}
	if sf.DeltaProduct != "" {
		cfg.DeltaProduct = sf.DeltaProduct
	}
	if sf.DefaultLeverage > 0 {
		cfg.DefaultLeverage = sf.DefaultLeverage
	}
	if sf.OrderbookDepth > 0 {
		cfg.OrderbookDepth = sf.OrderbookDepth
	}
	if sf.SettleDelay != "" {
		if d, err := time.ParseDuration(sf.SettleDelay); err == nil && d >= 0 {
			cfg.SettleDelay = d
		}
	}
	if sf.JournalPath != "" {
		cfg.JournalPath = sf.JournalPath
	}
	if sf.LogLevel != "" {
		cfg.LogLevel = sf.LogLevel
	}
	if sf.LogFile != "" {
		cfg.LogFile = sf.LogFile
	}
}

func applyEnv(cfg *Config) {
	cfg.CoinDCX.Key = os.Getenv("COINDCX_API_KEY")
	cfg.CoinDCX.Secret = os.Getenv("COINDCX_API_SECRET")
	cfg.Delta.Key = os.Getenv("DELTA_API_KEY")
	cfg.Delta.Secret = os.Getenv("DELTA_API_SECRET")

	if v := os.Getenv("TRADE_LISTEN"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("TRADE_PAIR"); v != "" {
		cfg.Pair = v
	}
	if v := os.Getenv("TRADE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TRADE_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("TRADE_JOURNAL"); v != "" {
		cfg.JournalPath = v
	}
	if v := os.Getenv("TRADE_SETTLE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.SettleDelay = d
		}
	}
}

// Validate checks that every exchange credential is present. A missing
// key or secret is a startup-fatal condition: signing with an empty
// secret would produce silently unauthenticated calls.
func (c *Config) Validate() error {
	var missing []string
	if c.CoinDCX.Key == "" {
		missing = append(missing, "COINDCX_API_KEY")
	}
	if c.CoinDCX.Secret == "" {
		missing = append(missing, "COINDCX_API_SECRET")
	}
	if c.Delta.Key == "" {
		missing = append(missing, "DELTA_API_KEY")
	}
	if c.Delta.Secret == "" {
		missing = append(missing, "DELTA_API_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing exchange credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}
