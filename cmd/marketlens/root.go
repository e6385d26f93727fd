package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"MarketLens/internal/config"
	"MarketLens/internal/logx"
)

const defaultConfigPath = "configs/config.yaml"

// options are the flags shared by every command.
type options struct {
	configPath  string
	symbols     string
	start       string
	end         string
	provider    string
	workers     int
	regularOnly bool
	format      string
	out         string
	color       bool
	theme       string
	trace       bool
	metricsAddr string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "marketlens",
		Short:         "Market analytics: moving averages, performance windows and sector correlation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default $CONFIG_PATH or "+defaultConfigPath+")")
	pf.StringVar(&opts.symbols, "symbols", "", "comma separated tickers, overrides config")
	pf.StringVar(&opts.start, "start", "", "start date YYYY-MM-DD")
	pf.StringVar(&opts.end, "end", "", "end date YYYY-MM-DD")
	pf.StringVar(&opts.provider, "provider", "", "data provider: yahoo, polygon or static")
	pf.IntVar(&opts.workers, "workers", 0, "concurrent fetches")
	pf.BoolVar(&opts.regularOnly, "regular-hours", false, "exclude pre- and post-market bars")
	pf.StringVar(&opts.format, "format", "text", "output format: text or json")
	pf.StringVar(&opts.out, "out", "", "export file path; the extension picks csv, json, parquet or xlsx (csv when absent)")
	pf.BoolVar(&opts.color, "color", false, "colour signed percentages")
	pf.StringVar(&opts.theme, "theme", "", "colour theme: light or dark, overrides config")
	pf.BoolVar(&opts.trace, "trace", false, "print trace spans to stderr")
	pf.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	root.AddCommand(
		analyzeCmd(opts),
		sectorsCmd(opts),
		watchCmd(opts),
		historyCmd(opts),
	)
	return root
}

// loadConfig resolves the config path, loads it and applies flag overrides.
func (o *options) loadConfig() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if o.symbols != "" {
		cfg.Symbols = o.symbols
	}
	if o.start != "" {
		cfg.StartDate = o.start
	}
	if o.end != "" {
		cfg.EndDate = o.end
	}
	if o.provider != "" {
		cfg.Provider.Name = strings.ToLower(o.provider)
	}
	if o.workers > 0 {
		cfg.Provider.Workers = o.workers
	}
	if o.theme != "" {
		cfg.Theme = o.theme
	}
	if o.regularOnly {
		cfg.ExtendedHours = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logx.Setup(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

func (o *options) validateOutput() error {
	switch o.format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("unknown output format %q", o.format)
	}
}
