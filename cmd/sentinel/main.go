package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"crypto_sentinel/internal/bot"
	"crypto_sentinel/internal/config"
	"crypto_sentinel/internal/ledger"
	"crypto_sentinel/internal/logger"
	"crypto_sentinel/internal/market/binance"
	"crypto_sentinel/internal/monitor"
	"crypto_sentinel/internal/notify"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

const logFile = "sentinel.log"

var (
	flagStrategy string
	flagLive     bool
	flagQuoteQty string
)

func main() {
	root := &cobra.Command{
		Use:   "sentinel",
		Short: "Crypto trading sentinel: analysis, paper trades, and outcome tracking",
	}

	botCmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the multi-symbol selection loop and open trades",
		RunE:  func(*cobra.Command, []string) error { return runBot(false) },
	}
	botCmd.Flags().StringVar(&flagStrategy, "strategy", "composite", "strategy name (see 'sentinel strategies')")
	botCmd.Flags().BoolVar(&flagLive, "live", false, "place real exchange orders instead of paper trades")
	botCmd.Flags().StringVar(&flagQuoteQty, "quote-qty", "50", "quote asset spent per live trade")

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Resolve pending trades against fresh candles",
		RunE:  func(*cobra.Command, []string) error { return runMonitor() },
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run bot and monitor together in one process",
		RunE:  func(*cobra.Command, []string) error { return runBot(true) },
	}
	runCmd.Flags().StringVar(&flagStrategy, "strategy", "composite", "strategy name")
	runCmd.Flags().BoolVar(&flagLive, "live", false, "place real exchange orders instead of paper trades")
	runCmd.Flags().StringVar(&flagQuoteQty, "quote-qty", "50", "quote asset spent per live trade")

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Print win/loss statistics from the archive",
		RunE:  func(*cobra.Command, []string) error { return runReport() },
	}
	reportCmd.Flags().StringVar(&flagStrategy, "strategy", "", "limit the report to one strategy")

	strategiesCmd := &cobra.Command{
		Use:   "strategies",
		Short: "List registered strategies",
		Run: func(*cobra.Command, []string) {
			for _, name := range bot.StrategyNames() {
				fmt.Println(name)
			}
		},
	}

	root.AddCommand(botCmd, monitorCmd, runCmd, reportCmd, strategiesCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBot(withMonitor bool) error {
	cfg := config.Load()
	logger.Setup(logFile, cfg.MaxLogSizeMB, cfg.MaxLogBackups)

	provider := binance.New(cfg.BinanceAPIKey, cfg.BinanceSecretKey)
	store := ledger.NewStore(cfg.LedgerFile)
	notifier := notify.NewTelegram()

	az, err := bot.BuildAnalyzer(flagStrategy, cfg)
	if err != nil {
		return err
	}

	var executor bot.Executor = bot.SimulatedExecutor{}
	if flagLive {
		cfg.RequireLiveKeys()
		qty, err := decimal.NewFromString(flagQuoteQty)
		if err != nil {
			return fmt.Errorf("invalid --quote-qty: %w", err)
		}
		executor = &bot.LiveExecutor{Placer: provider, QuoteQty: qty}
	}

	b := bot.New(flagStrategy, cfg, provider, az, store, executor, notifier)

	stop := make(chan struct{})
	go handleSignals(stop, notifier)

	mode := "SIMULATED"
	if flagLive {
		mode = "LIVE"
	}
	log.Printf("Sentinel bot starting: strategy=%s mode=%s symbols=%v interval=%dm",
		flagStrategy, mode, cfg.Symbols, cfg.PollIntervalMins)
	notifier.Notify(fmt.Sprintf("🚀 SENTINEL ONLINE: %s [%s]\nSymbols: %v", flagStrategy, mode, cfg.Symbols))

	if withMonitor {
		m, closeArchive, err := buildMonitor(cfg, provider, store, notifier)
		if err != nil {
			return err
		}
		monitorDone := make(chan struct{})
		go func() {
			defer close(monitorDone)
			m.Run(cfg.PollIntervalMins, stop)
		}()
		// The archive must stay open until the monitor's final pass ends.
		defer func() {
			<-monitorDone
			closeArchive()
		}()
	}

	b.Run(stop)
	return nil
}

func runMonitor() error {
	cfg := config.Load()
	logger.Setup(logFile, cfg.MaxLogSizeMB, cfg.MaxLogBackups)

	provider := binance.New(cfg.BinanceAPIKey, cfg.BinanceSecretKey)
	store := ledger.NewStore(cfg.LedgerFile)
	notifier := notify.NewTelegram()

	m, closeArchive, err := buildMonitor(cfg, provider, store, notifier)
	if err != nil {
		return err
	}
	defer closeArchive()

	stop := make(chan struct{})
	go handleSignals(stop, notifier)

	log.Printf("Sentinel monitor starting: ledger=%s lookback=%d", cfg.LedgerFile, cfg.MonitorLookback)
	m.Run(cfg.PollIntervalMins, stop)
	return nil
}

func buildMonitor(cfg *config.Config, provider *binance.Provider, store *ledger.Store, notifier monitor.Notifier) (*monitor.Monitor, func(), error) {
	archive, err := ledger.OpenArchive(cfg.ArchiveFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open archive: %w", err)
	}
	m := monitor.New(provider, store, archive, notifier, cfg.MonitorLookback, cfg.LedgerKeepLast)
	return m, func() { archive.Close() }, nil
}

func runReport() error {
	cfg := config.Load()

	archive, err := ledger.OpenArchive(cfg.ArchiveFile)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()

	stats, err := archive.StatsByStrategy(flagStrategy)
	if err != nil {
		return err
	}

	store := ledger.NewStore(cfg.LedgerFile)
	if len(stats) == 0 {
		// A fresh archive can lag a ledger file that already holds
		// completed trades; fall back to scanning it.
		all, err := store.LoadAll()
		if err != nil {
			return err
		}
		stats = ledger.StatsFromTrades(all, flagStrategy)
	}

	if len(stats) == 0 {
		fmt.Println("No completed trades recorded yet.")
	}
	for _, s := range stats {
		fmt.Printf("Strategy: %s\n", s.Strategy)
		fmt.Printf("  Wins: %d  Losses: %d  Expired: %d  Win rate: %.1f%%\n", s.Wins, s.Losses, s.Expired, s.WinRate)
		fmt.Printf("  Total return: %+.2f%%  Avg: %+.2f%%  Best: %+.2f%%  Worst: %+.2f%%\n",
			s.TotalReturn, s.AvgReturn, s.BestReturn, s.WorstReturn)
	}

	// Pending trades come from the ledger file; the archive only holds
	// completed ones.
	pending, err := store.LoadPending()
	if err != nil {
		return err
	}
	fmt.Printf("Pending trades: %d\n", len(pending))
	for _, t := range pending {
		fmt.Printf("  %s %s @ %s (target %s, stop %s) since %s\n",
			t.Action, t.Symbol, t.EntryPrice, t.TargetPrice, t.StopPrice, t.Timestamp)
	}
	return nil
}

func handleSignals(stop chan struct{}, notifier *notify.Telegram) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	log.Println("⚠️ Shutting down: system signal received.")
	notifier.Notify("🛑 SENTINEL SHUTDOWN: signal received.")
	close(stop)
}
