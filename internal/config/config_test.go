package config

import (
	"os"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "crossbt-config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}
	return tmpFile.Name()
}

func clearEnv() {
	os.Unsetenv("ALPACA_API_KEY")
	os.Unsetenv("ALPACA_API_SECRET")
	os.Unsetenv("APCA_API_KEY_ID")
	os.Unsetenv("APCA_API_SECRET_KEY")
	os.Unsetenv("CROSSBT_DATA_DIR")
	os.Unsetenv("CROSSBT_SQLITE_PATH")
	os.Unsetenv("CROSSBT_DATASET_CSV")
	os.Unsetenv("CROSSBT_LOG_LEVEL")
	os.Unsetenv("CROSSBT_PORT")
}

func TestLoadFull(t *testing.T) {
	clearEnv()
	path := writeTempConfig(t, `
storage:
  data_dir: "/tmp/crossbt/data"
  sqlite_path: "/tmp/crossbt/results.db"
  dataset_csv: "/tmp/crossbt/nifty50.csv"
  results_csv: "/tmp/crossbt/metrics.csv"
server:
  host: "127.0.0.1"
  port: 9000
logging:
  level: "debug"
  format: "json"
backtest:
  short_window: 10
  long_window: 30
  volatility_window: 15
  bars_per_year: 252
  risk_free_rate: 0.04
  initial_capital: 50000
  base_allocation_fraction: 0.2
  sized: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Storage.DataDir != "/tmp/crossbt/data" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/tmp/crossbt/data")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Backtest.ShortWindow != 10 || cfg.Backtest.LongWindow != 30 {
		t.Errorf("windows = %d/%d, want 10/30", cfg.Backtest.ShortWindow, cfg.Backtest.LongWindow)
	}
	if cfg.Backtest.BarsPerYear != 252 {
		t.Errorf("BarsPerYear = %v, want 252", cfg.Backtest.BarsPerYear)
	}
	if !cfg.Backtest.Sized {
		t.Error("Backtest.Sized = false, want true")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv()
	path := writeTempConfig(t, `
storage:
  data_dir: "/tmp/crossbt/data"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	bt := cfg.Backtest
	if bt.ShortWindow != 20 || bt.LongWindow != 50 {
		t.Errorf("default windows = %d/%d, want 20/50", bt.ShortWindow, bt.LongWindow)
	}
	if bt.VolatilityWindow != 20 {
		t.Errorf("default VolatilityWindow = %d, want 20", bt.VolatilityWindow)
	}
	if bt.BarsPerYear != 245*25 {
		t.Errorf("default BarsPerYear = %v, want %v", bt.BarsPerYear, 245*25)
	}
	if bt.RiskFreeRate != 0.06 {
		t.Errorf("default RiskFreeRate = %v, want 0.06", bt.RiskFreeRate)
	}
	if bt.InitialCapital != 100000 {
		t.Errorf("default InitialCapital = %v, want 100000", bt.InitialCapital)
	}
	if bt.BaseAllocation != 0.10 {
		t.Errorf("default BaseAllocation = %v, want 0.10", bt.BaseAllocation)
	}
	if cfg.Fetch.TimeframeMin != 15 {
		t.Errorf("default Fetch.TimeframeMin = %d, want 15", cfg.Fetch.TimeframeMin)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv()
	t.Setenv("ALPACA_API_KEY", "env-key")
	t.Setenv("CROSSBT_DATA_DIR", "/env/data")
	t.Setenv("CROSSBT_PORT", "7777")

	path := writeTempConfig(t, `
storage:
  data_dir: "/file/data"
alpaca:
  api_key: "file-key"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Alpaca.APIKey != "env-key" {
		t.Errorf("Alpaca.APIKey = %q, want env override %q", cfg.Alpaca.APIKey, "env-key")
	}
	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want env override %q", cfg.Storage.DataDir, "/env/data")
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want env override 7777", cfg.Server.Port)
	}
}

func TestLoadRejectsBadWindows(t *testing.T) {
	clearEnv()
	path := writeTempConfig(t, `
backtest:
  short_window: 50
  long_window: 20
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load() accepted short_window >= long_window")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/crossbt.yaml"); err == nil {
		t.Fatal("Load() returned nil error for missing file")
	}
}
