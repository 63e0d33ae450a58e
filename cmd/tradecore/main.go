// Command tradecore wires a Binance futures gateway, the strategy
// ensemble, the signal-filter pipeline, and the risk manager into a
// single-pair bot.Bot and runs it, the way cmd/backnrun/main.go wires its
// own pieces together with cobra.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/raykavin/tradecore/pkg/bot"
	"github.com/raykavin/tradecore/pkg/config"
	"github.com/raykavin/tradecore/pkg/core"
	"github.com/raykavin/tradecore/pkg/exchange/binance"
	"github.com/raykavin/tradecore/pkg/filter"
	"github.com/raykavin/tradecore/pkg/logger"
	zerologadapter "github.com/raykavin/tradecore/pkg/logger/zerolog"
	"github.com/raykavin/tradecore/pkg/notification"
	"github.com/raykavin/tradecore/pkg/risk"
	"github.com/raykavin/tradecore/pkg/storage"
	"github.com/raykavin/tradecore/pkg/strategy"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:     "tradecore",
		Short:   "Runs the leveraged perpetual-futures trading core",
		Version: "1.0.0",
		RunE:    run,
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "optional YAML config file overlay")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("tradecore: %w", err)
	}

	log, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("tradecore: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gw, err := binance.NewFutures(ctx, log, cfg.Exchange.APIKey, cfg.Exchange.APISecret, cfg.Exchange.UseTestnet,
		binance.WithMakerConfig(cfg.Maker))
	if err != nil {
		return fmt.Errorf("tradecore: connecting gateway: %w", err)
	}
	if err := gw.SetLeverage(ctx, cfg.Pair, cfg.Exchange.Leverage); err != nil {
		log.WithError(err).Warn("failed to set leverage, continuing with exchange default")
	}
	if err := gw.SetMarginMode(ctx, cfg.Pair, core.MarginModeIsolated); err != nil {
		log.WithError(err).Warn("failed to set margin mode, continuing with exchange default")
	}

	orderStore, err := storage.FromFile("tradecore_orders.db")
	if err != nil {
		return fmt.Errorf("tradecore: opening order storage: %w", err)
	}
	tagStore, err := storage.NewTradeTagStore("tradecore_tags.db")
	if err != nil {
		return fmt.Errorf("tradecore: opening trade-tag storage: %w", err)
	}

	ensemble := strategy.NewEnsemble(strategy.Registry(), strategy.DefaultThresholds())
	pipeline, llmGate := buildPipeline(cfg)

	account, err := gw.Account(ctx)
	if err != nil {
		return fmt.Errorf("tradecore: fetching account: %w", err)
	}
	riskMgr := risk.NewManager(cfg.Risk, account.BalanceUSDT, time.Now())

	b := bot.New(cfg.Intervals, gw, log, ensemble, pipeline, riskMgr, orderStore, tagStore, nil)
	b.SetLLMGate(llmGate)
	if cfg.BandLimitedEnabled {
		b.SetHedgeStrategy(&strategy.BandLimitedHedging{Config: cfg.BandLimited}, cfg.BandLimitedCapitalPerLeg)
	}

	if cfg.Telegram.Token != "" {
		tg, err := notification.NewTelegram(b, cfg.Telegram, log)
		if err != nil {
			log.WithError(err).Warn("failed to start telegram notifier, continuing without it")
		} else {
			b.SetNotifier(tg)
			tg.Start()
		}
	}

	runLoop(ctx, cancel, b, log)
	return nil
}

func runLoop(ctx context.Context, cancel context.CancelFunc, b *bot.Bot, log logger.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("shutdown signal received, stopping bot")
		cancel()
	}()

	if err := b.Run(ctx); err != nil {
		log.WithError(err).Fatal("bot exited with error")
	}
}

func buildLogger(level string) (logger.Logger, error) {
	root, err := zerologadapter.New(level, time.RFC3339, true, false)
	if err != nil {
		return nil, err
	}
	return zerologadapter.NewAdapter(root), nil
}

// buildPipeline assembles the ordered gate chain from §4.4: circuit
// breaker, direction, trend, execution quality, then the two optional
// gates, each only live when their config says so. It also returns the
// LLM-policy gate directly so the caller can wire its bounded overrides
// into the bot's sizing/stop computation after a pass.
func buildPipeline(cfg *config.Config) (*filter.Pipeline, *filter.LLMPolicyGate) {
	gates := []filter.Gate{
		&filter.CircuitBreakerGate{},
		&filter.DirectionGate{},
		&filter.TrendGate{},
		&filter.ExecutionQualityGate{Config: cfg.Filters},
	}

	mlGate := &filter.MLQualityGate{QualityThreshold: cfg.Plugins.ScorerThreshold}
	switch cfg.Plugins.ScorerMode {
	case "shadow":
		mlGate.Mode = "shadow"
	case "filter":
		mlGate.Mode = "filter"
	default:
		mlGate.Mode = "off"
	}
	gates = append(gates, mlGate)

	llmGate := &filter.LLMPolicyGate{Enabled: cfg.Plugins.LLMPolicyEnabled, Bounds: cfg.Plugins.LLMParamBounds}
	gates = append(gates, llmGate)

	return filter.NewPipeline(gates...), llmGate
}
