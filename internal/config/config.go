package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"MarketLens/internal/collector"
	"MarketLens/internal/model"
	"MarketLens/internal/palette"
)

// EnvPrefix prefixes every environment override, e.g. MARKETLENS_SYMBOLS.
const EnvPrefix = "MARKETLENS"

// DefaultSymbols is the symbol list used when none is configured.
const DefaultSymbols = "SPY, AAPL, MSFT, TSLA, GOOGL, NVDA"

// DateLayout is the layout of start_date and end_date.
const DateLayout = time.DateOnly

// Config holds all application configuration.
type Config struct {
	Symbols       string `yaml:"symbols" split_words:"true" validate:"required"`
	StartDate     string `yaml:"start_date" split_words:"true" validate:"omitempty,datetime=2006-01-02"`
	EndDate       string `yaml:"end_date" split_words:"true" validate:"omitempty,datetime=2006-01-02"`
	ExtendedHours bool   `yaml:"extended_hours" split_words:"true"`

	MovingAverage struct {
		Short int `yaml:"short" split_words:"true" validate:"gt=0"`
		Long  int `yaml:"long" split_words:"true" validate:"gt=0"`
	} `yaml:"moving_average" envconfig:"MA"`

	Refresh struct {
		Enabled bool `yaml:"enabled" split_words:"true"`
		Minutes int  `yaml:"minutes" split_words:"true"`
	} `yaml:"refresh" envconfig:"REFRESH"`

	Provider struct {
		Name              string                `yaml:"name" split_words:"true" validate:"oneof=yahoo polygon static"`
		BaseURL           string                `yaml:"base_url" split_words:"true" validate:"omitempty,url"`
		APIKey            string                `yaml:"api_key" split_words:"true"`
		Workers           int                   `yaml:"workers" split_words:"true" validate:"gte=1,lte=32"`
		IntradayLimitDays int                   `yaml:"intraday_limit_days" split_words:"true" validate:"gte=1"`
		Profiles          bool                  `yaml:"profiles" split_words:"true"`
		Guard             collector.GuardConfig `yaml:"guard" envconfig:"GUARD"`
	} `yaml:"provider" envconfig:"PROVIDER"`

	Sectors []model.SectorProxy `yaml:"sectors" ignored:"true" validate:"dive"`

	Logging struct {
		Level  string `yaml:"level" split_words:"true" validate:"oneof=debug info warn warning error"`
		Format string `yaml:"format" split_words:"true" validate:"oneof=console json"`
	} `yaml:"logging" envconfig:"LOG"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	} `yaml:"database" envconfig:"DB"`

	Theme string `yaml:"theme" split_words:"true"`

	Proxy string `yaml:"proxy" split_words:"true"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	cfg := &Config{
		Symbols:       DefaultSymbols,
		ExtendedHours: true,
		Theme:         palette.DefaultTheme,
	}
	cfg.MovingAverage.Short = 20
	cfg.MovingAverage.Long = 50
	cfg.Refresh.Enabled = true
	cfg.Refresh.Minutes = 1
	cfg.Provider.Name = "yahoo"
	cfg.Provider.Workers = 1
	cfg.Provider.IntradayLimitDays = 60
	cfg.Provider.Profiles = true
	cfg.Provider.Guard = collector.DefaultGuardConfig()
	cfg.Sectors = append([]model.SectorProxy(nil), model.DefaultSectors...)
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "console"
	return cfg
}

// Load reads config from a YAML file over the defaults, then applies
// environment overrides and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" && cfg.Proxy == "" {
		cfg.Proxy = v
	}
	if len(cfg.Sectors) == 0 {
		cfg.Sectors = append([]model.SectorProxy(nil), model.DefaultSectors...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if len(c.SymbolList()) == 0 {
		return errors.New("invalid config: symbols has no tickers")
	}
	if _, err := palette.Lookup(c.Theme); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Provider.Name == "polygon" && c.Provider.APIKey == "" {
		return errors.New("invalid config: provider.api_key is required for polygon")
	}
	start, end, err := c.Dates(time.Now())
	if err != nil {
		return err
	}
	if start.After(end) {
		return fmt.Errorf("invalid config: start_date %s is after end_date %s", c.StartDate, c.EndDate)
	}
	return nil
}

// SymbolList parses Symbols.
func (c *Config) SymbolList() []string { return ParseSymbols(c.Symbols) }

// ParseSymbols splits free text on commas, trims and upper-cases each
// ticker, and drops blanks and repeats while keeping the first occurrence.
func ParseSymbols(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(text, ",") {
		s := strings.ToUpper(strings.TrimSpace(part))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Dates resolves the configured window. An empty end date is today and an
// empty start date is thirty days before the end.
func (c *Config) Dates(now time.Time) (start, end time.Time, err error) {
	y, m, d := now.Date()
	end = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if c.EndDate != "" {
		if end, err = time.Parse(DateLayout, c.EndDate); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("end_date: %w", err)
		}
	}
	start = end.AddDate(0, 0, -30)
	if c.StartDate != "" {
		if start, err = time.Parse(DateLayout, c.StartDate); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("start_date: %w", err)
		}
	}
	return start, end, nil
}

// MAWindows returns the short and long moving-average windows.
func (c *Config) MAWindows() []int {
	return []int{c.MovingAverage.Short, c.MovingAverage.Long}
}

// RefreshInterval converts the refresh cadence to a duration. Anything
// below one minute is clamped to 60000 ms.
func (c *Config) RefreshInterval() time.Duration {
	if c.Refresh.Minutes < 1 {
		return 60000 * time.Millisecond
	}
	return time.Duration(c.Refresh.Minutes) * 60000 * time.Millisecond
}
