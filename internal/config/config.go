package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for crossbt.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Server   Server         `yaml:"server"`
	Alpaca   Alpaca         `yaml:"alpaca"`
	Logging  Logging        `yaml:"logging"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Backtest BacktestConfig `yaml:"backtest"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
	DatasetCSV string `yaml:"dataset_csv"`
	ResultsCSV string `yaml:"results_csv"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API,
// used only by the fetch command.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// FetchConfig holds parameters for the intraday bar acquisition job.
type FetchConfig struct {
	Symbols         []string `yaml:"symbols"`
	Market          string   `yaml:"market"`
	StartDate       string   `yaml:"start_date"`
	TimeframeMin    int      `yaml:"timeframe_min"`
	MaxWorkers      int      `yaml:"max_workers"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
}

// BacktestConfig holds the strategy parameters. Every value the engine
// needs is an explicit parameter here; nothing is hard-coded in the core.
type BacktestConfig struct {
	ShortWindow      int     `yaml:"short_window"`
	LongWindow       int     `yaml:"long_window"`
	VolatilityWindow int     `yaml:"volatility_window"`
	BarsPerYear      float64 `yaml:"bars_per_year"`
	RiskFreeRate     float64 `yaml:"risk_free_rate"`
	InitialCapital   float64 `yaml:"initial_capital"`
	BaseAllocation   float64 `yaml:"base_allocation_fraction"`
	Sized            bool    `yaml:"sized"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides, fills defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CROSSBT_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("CROSSBT_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("CROSSBT_DATASET_CSV"); v != "" {
		cfg.Storage.DatasetCSV = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	// Alpaca's own SDK convention.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}

	if v := os.Getenv("CROSSBT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CROSSBT_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
}

// applyDefaults fills zero-valued fields with the reference defaults. The
// bars-per-year default is the 15-minute Indian-market configuration: 245
// trading days of 25 intraday bars.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	if cfg.Fetch.Market == "" {
		cfg.Fetch.Market = "us"
	}
	if cfg.Fetch.TimeframeMin == 0 {
		cfg.Fetch.TimeframeMin = 15
	}
	if cfg.Fetch.MaxWorkers == 0 {
		cfg.Fetch.MaxWorkers = 4
	}
	if cfg.Fetch.RateLimitPerMin == 0 {
		cfg.Fetch.RateLimitPerMin = 200
	}

	bt := &cfg.Backtest
	if bt.ShortWindow == 0 {
		bt.ShortWindow = 20
	}
	if bt.LongWindow == 0 {
		bt.LongWindow = 50
	}
	if bt.VolatilityWindow == 0 {
		bt.VolatilityWindow = 20
	}
	if bt.BarsPerYear == 0 {
		bt.BarsPerYear = 245 * 25
	}
	if bt.RiskFreeRate == 0 {
		bt.RiskFreeRate = 0.06
	}
	if bt.InitialCapital == 0 {
		bt.InitialCapital = 100000
	}
	if bt.BaseAllocation == 0 {
		bt.BaseAllocation = 0.10
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	bt := c.Backtest
	if bt.ShortWindow < 1 || bt.LongWindow < 1 {
		return fmt.Errorf("backtest windows must be positive, got short=%d long=%d", bt.ShortWindow, bt.LongWindow)
	}
	if bt.ShortWindow >= bt.LongWindow {
		return fmt.Errorf("short window (%d) must be smaller than long window (%d)", bt.ShortWindow, bt.LongWindow)
	}
	if bt.VolatilityWindow < 2 {
		return fmt.Errorf("volatility window must be at least 2, got %d", bt.VolatilityWindow)
	}
	if bt.BarsPerYear <= 0 {
		return fmt.Errorf("bars_per_year must be positive, got %v", bt.BarsPerYear)
	}
	if bt.InitialCapital <= 0 {
		return fmt.Errorf("initial_capital must be positive, got %v", bt.InitialCapital)
	}
	if bt.BaseAllocation <= 0 || bt.BaseAllocation > 1 {
		return fmt.Errorf("base_allocation_fraction must be in (0, 1], got %v", bt.BaseAllocation)
	}
	return nil
}
