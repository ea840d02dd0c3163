// Package config defines all configuration for the arbitrage engine.
// Config is loaded from a YAML file (default: configs/config.yaml) with
// sensitive fields overridable via ARB_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file structure.
type Config struct {
	DryRun   bool           `mapstructure:"dry_run"`
	VenueA   VenueAConfig   `mapstructure:"venuea"`
	VenueB   VenueBConfig   `mapstructure:"venueb"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Risk     RiskConfig     `mapstructure:"risk"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// VenueAConfig holds connection details and credentials for venue A.
type VenueAConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	WSURL      string `mapstructure:"ws_url"`
	Symbol     string `mapstructure:"symbol"`
	APIKey     string `mapstructure:"apikey"`
	Secret     string `mapstructure:"secret"`
	Passphrase string `mapstructure:"passphrase"`
}

// VenueBConfig holds connection details and credentials for venue B.
type VenueBConfig struct {
	BaseURL          string `mapstructure:"base_url"`
	MarketDataWSURL  string `mapstructure:"market_data_ws_url"`
	OrderEventsWSURL string `mapstructure:"order_events_ws_url"`
	OrderEventsPath  string `mapstructure:"order_events_path"`
	Symbol           string `mapstructure:"symbol"`
	APIKey           string `mapstructure:"apikey"`
	Secret           string `mapstructure:"secret"`
	APISession       string `mapstructure:"api_session"`
}

// StrategyConfig tunes the one-way pair arbitrage algorithm.
//
//   - BidAmount: target order size, in base-currency units.
//   - MakerFee/TakerFee: fee rates charged on the buy-side limit fill and the
//     sell-side market hedge, respectively.
//   - ProfitTarget: required profit fraction above break-even before a bid
//     is placed (e.g. 0.01 = 1%).
//   - OrderUpdateThreshold: how far the live profit factor may drift from
//     1 + ProfitTarget before the resting bid is cancelled and repriced.
//   - PollPeriod: how often the strategy re-evaluates even without a book
//     update.
type StrategyConfig struct {
	BidAmount            float64       `mapstructure:"bid_amount"`
	MakerFee             float64       `mapstructure:"maker_fee"`
	TakerFee             float64       `mapstructure:"taker_fee"`
	ProfitTarget         float64       `mapstructure:"profit_target"`
	OrderUpdateThreshold float64       `mapstructure:"order_update_threshold"`
	PollPeriod           time.Duration `mapstructure:"poll_period"`
}

// RiskConfig sets the balance guard's behavior.
type RiskConfig struct {
	// MinFreeBalanceUSD is loaded from the config file but is not read by
	// the balance guard: the guard decides affordability solely from the
	// free USD balance, the last bid price and BidAmount.
	MinFreeBalanceUSD float64 `mapstructure:"min_free_balance_usd"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config from a YAML file with env var overrides.
// Sensitive fields use env vars: ARB_VENUEA_APIKEY, ARB_VENUEA_SECRET,
// ARB_VENUEA_PASSPHRASE, ARB_VENUEB_APIKEY, ARB_VENUEB_SECRET.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("ARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if key := os.Getenv("ARB_VENUEA_APIKEY"); key != "" {
		cfg.VenueA.APIKey = key
	}
	if secret := os.Getenv("ARB_VENUEA_SECRET"); secret != "" {
		cfg.VenueA.Secret = secret
	}
	if pass := os.Getenv("ARB_VENUEA_PASSPHRASE"); pass != "" {
		cfg.VenueA.Passphrase = pass
	}
	if key := os.Getenv("ARB_VENUEB_APIKEY"); key != "" {
		cfg.VenueB.APIKey = key
	}
	if secret := os.Getenv("ARB_VENUEB_SECRET"); secret != "" {
		cfg.VenueB.Secret = secret
	}
	if os.Getenv("ARB_DRY_RUN") == "true" || os.Getenv("ARB_DRY_RUN") == "1" {
		cfg.DryRun = true
	}

	return &cfg, nil
}

// Validate checks all required fields and value ranges.
func (c *Config) Validate() error {
	if c.VenueA.BaseURL == "" {
		return fmt.Errorf("venuea.base_url is required")
	}
	if c.VenueA.WSURL == "" {
		return fmt.Errorf("venuea.ws_url is required")
	}
	if c.VenueA.Symbol == "" {
		return fmt.Errorf("venuea.symbol is required")
	}
	if c.VenueA.APIKey == "" {
		return fmt.Errorf("venuea.apikey is required (set ARB_VENUEA_APIKEY)")
	}
	if c.VenueA.Secret == "" {
		return fmt.Errorf("venuea.secret is required (set ARB_VENUEA_SECRET)")
	}

	if c.VenueB.BaseURL == "" {
		return fmt.Errorf("venueb.base_url is required")
	}
	if c.VenueB.MarketDataWSURL == "" {
		return fmt.Errorf("venueb.market_data_ws_url is required")
	}
	if c.VenueB.OrderEventsWSURL == "" {
		return fmt.Errorf("venueb.order_events_ws_url is required")
	}
	if c.VenueB.Symbol == "" {
		return fmt.Errorf("venueb.symbol is required")
	}
	if c.VenueB.APIKey == "" {
		return fmt.Errorf("venueb.apikey is required (set ARB_VENUEB_APIKEY)")
	}
	if c.VenueB.Secret == "" {
		return fmt.Errorf("venueb.secret is required (set ARB_VENUEB_SECRET)")
	}

	if c.Strategy.BidAmount <= 0 {
		return fmt.Errorf("strategy.bid_amount must be > 0")
	}
	if c.Strategy.MakerFee < 0 || c.Strategy.MakerFee > 1 {
		return fmt.Errorf("strategy.maker_fee must be in [0, 1]")
	}
	if c.Strategy.TakerFee < 0 || c.Strategy.TakerFee > 1 {
		return fmt.Errorf("strategy.taker_fee must be in [0, 1]")
	}
	if c.Strategy.ProfitTarget <= 0 {
		return fmt.Errorf("strategy.profit_target must be > 0")
	}
	if c.Strategy.OrderUpdateThreshold <= 0 {
		return fmt.Errorf("strategy.order_update_threshold must be > 0")
	}
	if c.Strategy.PollPeriod <= 0 {
		return fmt.Errorf("strategy.poll_period must be > 0")
	}

	return nil
}
