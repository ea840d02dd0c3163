package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return path
}

const validConfigYAML = `
venuea:
  base_url: https://venuea.example.com
  ws_url: wss://venuea.example.com/ws
  symbol: BTC-USD
  apikey: test-key-a
  secret: test-secret-a
  passphrase: test-pass-a
venueb:
  base_url: https://venueb.example.com
  market_data_ws_url: wss://venueb.example.com/marketdata
  order_events_ws_url: wss://venueb.example.com/order/events
  order_events_path: /v1/order/events
  symbol: BTCUSD
  apikey: test-key-b
  secret: test-secret-b
strategy:
  bid_amount: 1.0
  maker_fee: 0.01
  taker_fee: 0.01
  profit_target: 0.01
  order_update_threshold: 0.005
  poll_period: 5s
`

func TestLoadValidConfig(t *testing.T) {
	t.Parallel()

	path := writeTestConfig(t, validConfigYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.VenueA.Symbol != "BTC-USD" {
		t.Errorf("VenueA.Symbol = %q, want BTC-USD", cfg.VenueA.Symbol)
	}
	if cfg.Strategy.PollPeriod != 5*time.Second {
		t.Errorf("Strategy.PollPeriod = %v, want 5s", cfg.Strategy.PollPeriod)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestLoadEnvOverridesSecrets(t *testing.T) {
	path := writeTestConfig(t, validConfigYAML)

	t.Setenv("ARB_VENUEA_APIKEY", "env-key-a")
	t.Setenv("ARB_VENUEB_SECRET", "env-secret-b")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.VenueA.APIKey != "env-key-a" {
		t.Errorf("VenueA.APIKey = %q, want env-key-a", cfg.VenueA.APIKey)
	}
	if cfg.VenueB.Secret != "env-secret-b" {
		t.Errorf("VenueB.Secret = %q, want env-secret-b", cfg.VenueB.Secret)
	}
}

func TestValidateRejectsMissingCredentials(t *testing.T) {
	t.Parallel()

	path := writeTestConfig(t, `
venuea:
  base_url: https://venuea.example.com
  ws_url: wss://venuea.example.com/ws
  symbol: BTC-USD
venueb:
  base_url: https://venueb.example.com
  market_data_ws_url: wss://venueb.example.com/marketdata
  order_events_ws_url: wss://venueb.example.com/order/events
  symbol: BTCUSD
strategy:
  bid_amount: 1.0
  profit_target: 0.01
  order_update_threshold: 0.005
  poll_period: 5s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for missing venuea.apikey")
	}
}

func TestValidateRejectsOutOfRangeFees(t *testing.T) {
	t.Parallel()

	path := writeTestConfig(t, validConfigYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cfg.Strategy.MakerFee = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for maker_fee > 1")
	}
}

func TestValidateRejectsNonPositiveBidAmount(t *testing.T) {
	t.Parallel()

	path := writeTestConfig(t, validConfigYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cfg.Strategy.BidAmount = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for bid_amount <= 0")
	}
}

func TestValidateRejectsZeroPollPeriod(t *testing.T) {
	t.Parallel()

	path := writeTestConfig(t, validConfigYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cfg.Strategy.PollPeriod = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for poll_period <= 0")
	}
}
