// Package config loads the typed settings every other package consumes,
// the way the teacher's examples/trend_master/internal/config package
// loads Binance/Telegram settings with viper: environment variables with
// an optional YAML overlay, validated once at construction time rather
// than trusted blindly by every call site.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/raykavin/tradecore/pkg/bot"
	"github.com/raykavin/tradecore/pkg/exchange/binance"
	"github.com/raykavin/tradecore/pkg/filter"
	"github.com/raykavin/tradecore/pkg/notification"
	"github.com/raykavin/tradecore/pkg/plugin"
	"github.com/raykavin/tradecore/pkg/risk"
	"github.com/raykavin/tradecore/pkg/strategy"
)

// ExchangeConfig carries the Binance futures credentials and connection
// mode a gateway is built from.
type ExchangeConfig struct {
	APIKey     string
	APISecret  string
	UseTestnet bool
	Leverage   int
}

// BreakersConfig mirrors risk.BreakerConfig's fields so they can be
// populated from env/YAML without importing viper into pkg/risk.
type BreakersConfig struct {
	DailyLossLimitPct    float64
	ConsecutiveLossLimit int
	RapidDrawdownPct     float64
	RapidDrawdownWindow  time.Duration
	ResetAfter           time.Duration
}

// PluginsConfig groups the optional ML-scoring and LLM-policy knobs
// (§4.4 gates 5-6); both default disabled.
type PluginsConfig struct {
	ScorerMode         string
	ScorerThreshold    float64
	LLMPolicyEnabled   bool
	LLMParamBounds     plugin.ParamBounds
	LLMCacheTTL        time.Duration
	LLMMaxDailyCalls   int
	LLMMaxDailyCostUSD float64
	LLMTimeout         time.Duration
	LLMFailureMode     string
	LLMCostPerCallUSD  float64
}

// Config is the single typed settings struct every component is wired
// from. Loading it (env/YAML/CLI) is an external concern the core only
// consumes; Validate still runs so a misconfigured process fails fast
// instead of trading on bad numbers.
type Config struct {
	Pair      string
	Timeframe string

	Exchange    ExchangeConfig
	Risk        risk.ManagerConfig
	Filters     filter.ExecutionQualityConfig
	Intervals   bot.Config
	Breakers    BreakersConfig
	Plugins     PluginsConfig
	Maker       binance.MakerConfig
	BandLimited strategy.HedgeConfig

	// BandLimitedEnabled switches the bot from the single-position
	// ensemble/filter path to the §4.9 dual-hedge sub-mode for the whole
	// run. BandLimitedCapitalPerLeg is the USDT notional committed to
	// each leg before HedgeConfig.BasePositionRatio is applied.
	BandLimitedEnabled       bool
	BandLimitedCapitalPerLeg float64

	Telegram notification.Config
	LogLevel string
}

// Validate enforces the invariants a malformed config would otherwise
// only surface as a silent wrong trade size or a panic deep in the bot
// loop, mirroring the teacher's own fail-fast bot.validate.
func (c Config) Validate() error {
	if c.Pair == "" {
		return fmt.Errorf("config: pair is required")
	}
	if c.Timeframe == "" {
		return fmt.Errorf("config: timeframe is required")
	}
	if c.Exchange.APIKey == "" || c.Exchange.APISecret == "" {
		return fmt.Errorf("config: exchange API key/secret are required")
	}
	if c.Exchange.Leverage <= 0 {
		return fmt.Errorf("config: exchange leverage must be positive")
	}
	if c.Intervals.MaxOrderUSDT <= 0 {
		return fmt.Errorf("config: max order size must be positive")
	}
	if c.Risk.Sizing.BaseRatio <= 0 || c.Risk.Sizing.BaseRatio > 1 {
		return fmt.Errorf("config: risk base ratio must be in (0, 1]")
	}
	if c.BandLimitedEnabled && c.BandLimitedCapitalPerLeg <= 0 {
		return fmt.Errorf("config: band_limited.capital_per_leg must be positive when band-limited hedging is enabled")
	}
	return nil
}

// parseIntList splits a comma-separated env/YAML string of Telegram user
// IDs into ints, skipping anything that doesn't parse rather than failing
// config load over one bad entry.
func parseIntList(raw string) []int {
	if raw == "" {
		return nil
	}
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.Atoi(part); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// Load populates a Config from environment variables plus an optional
// YAML file, the way the teacher's LoadAppConfig wires viper.AutomaticEnv
// with SetDefault fallbacks. configPath may be empty to skip the file.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("pair", "BTCUSDT")
	v.SetDefault("timeframe", "5m")
	v.SetDefault("log_level", "info")
	v.SetDefault("exchange.use_testnet", false)
	v.SetDefault("exchange.leverage", 5)
	v.SetDefault("intervals.candle_limit", 200)
	v.SetDefault("intervals.max_order_usdt", 500.0)
	v.SetDefault("intervals.order_health_interval", 30*time.Second)
	v.SetDefault("intervals.stale_order_threshold", 2*time.Minute)
	v.SetDefault("intervals.max_order_age", 10*time.Minute)
	v.SetDefault("plugins.scorer_mode", string(plugin.ScorerOff))
	v.SetDefault("plugins.llm_policy_enabled", false)
	v.SetDefault("plugins.llm_failure_mode", string(plugin.FailureReject))
	v.SetDefault("band_limited.enabled", false)
	v.SetDefault("band_limited.capital_per_leg", 0.0)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
		}
	}

	pair := v.GetString("pair")

	cfg := &Config{
		Pair:      pair,
		Timeframe: v.GetString("timeframe"),
		LogLevel:  v.GetString("log_level"),
		Exchange: ExchangeConfig{
			APIKey:     v.GetString("exchange.api_key"),
			APISecret:  v.GetString("exchange.api_secret"),
			UseTestnet: v.GetBool("exchange.use_testnet"),
			Leverage:   v.GetInt("exchange.leverage"),
		},
		Risk: risk.DefaultManagerConfig(),
		Filters: filter.DefaultExecutionQualityConfig(),
		Intervals: bot.Config{
			Pair:                 pair,
			Timeframe:            v.GetString("timeframe"),
			CandleLimit:          v.GetInt("intervals.candle_limit"),
			Leverage:             v.GetInt("exchange.leverage"),
			MaxOrderUSDT:         v.GetFloat64("intervals.max_order_usdt"),
			OrderHealthInterval:  v.GetDuration("intervals.order_health_interval"),
			StaleOrderThreshold:  v.GetDuration("intervals.stale_order_threshold"),
			MaxOrderAge:          v.GetDuration("intervals.max_order_age"),
			MaxConsecutiveErrors: 5,
			ErrorBackoffMin:      time.Second,
			ErrorBackoffMax:      time.Minute,
		},
		Breakers: BreakersConfig{
			DailyLossLimitPct:    v.GetFloat64("breakers.daily_loss_limit_pct"),
			ConsecutiveLossLimit: v.GetInt("breakers.consecutive_loss_limit"),
			RapidDrawdownPct:     v.GetFloat64("breakers.rapid_drawdown_pct"),
			RapidDrawdownWindow:  v.GetDuration("breakers.rapid_drawdown_window"),
			ResetAfter:           v.GetDuration("breakers.reset_after"),
		},
		Plugins: PluginsConfig{
			ScorerMode:         v.GetString("plugins.scorer_mode"),
			ScorerThreshold:    v.GetFloat64("plugins.scorer_threshold"),
			LLMPolicyEnabled:   v.GetBool("plugins.llm_policy_enabled"),
			LLMParamBounds:     plugin.DefaultParamBounds(),
			LLMCacheTTL:        v.GetDuration("plugins.llm_cache_ttl"),
			LLMMaxDailyCalls:   v.GetInt("plugins.llm_max_daily_calls"),
			LLMMaxDailyCostUSD: v.GetFloat64("plugins.llm_max_daily_cost_usd"),
			LLMTimeout:         v.GetDuration("plugins.llm_timeout"),
			LLMFailureMode:     v.GetString("plugins.llm_failure_mode"),
			LLMCostPerCallUSD:  v.GetFloat64("plugins.llm_cost_per_call_usd"),
		},
		Maker:                    binance.DefaultMakerConfig(),
		BandLimited:              strategy.DefaultHedgeConfig(v.GetFloat64("band_limited.fee_rate")),
		BandLimitedEnabled:       v.GetBool("band_limited.enabled"),
		BandLimitedCapitalPerLeg: v.GetFloat64("band_limited.capital_per_leg"),
		Telegram: notification.Config{
			Token:           v.GetString("telegram.token"),
			AuthorizedUsers: parseIntList(v.GetString("telegram.authorized_users")),
		},
	}

	if cfg.Breakers.DailyLossLimitPct > 0 {
		cfg.Risk.Breaker.DailyLossLimitPct = cfg.Breakers.DailyLossLimitPct
	}
	if cfg.Breakers.ConsecutiveLossLimit > 0 {
		cfg.Risk.Breaker.ConsecutiveLossLimit = cfg.Breakers.ConsecutiveLossLimit
	}
	if cfg.Breakers.RapidDrawdownPct > 0 {
		cfg.Risk.Breaker.RapidDrawdownPct = cfg.Breakers.RapidDrawdownPct
	}
	if cfg.Breakers.RapidDrawdownWindow > 0 {
		cfg.Risk.Breaker.RapidDrawdownWindow = cfg.Breakers.RapidDrawdownWindow
	}
	if cfg.Breakers.ResetAfter > 0 {
		cfg.Risk.Breaker.ResetAfter = cfg.Breakers.ResetAfter
	}
	if cfg.BandLimited.FeeRate == 0 {
		cfg.BandLimited = strategy.DefaultHedgeConfig(0.0004)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
