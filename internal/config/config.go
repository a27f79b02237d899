package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Preset names select a bundle of analyzer thresholds and risk parameters.
const (
	PresetBalanced          = "balanced"
	PresetUltraConservative = "ultra_conservative"
)

// Config is the explicit configuration object passed into every component
// constructor. There is no process-wide mutable config state.
type Config struct {
	Preset string

	// Credentials. Binance keys are only needed for the live executor;
	// public market data works without them.
	BinanceAPIKey    string
	BinanceSecretKey string
	DeepSeekAPIKey   string

	// Trading universe and cadence.
	Symbols          []string
	KlineInterval    string
	KlineLimit       int
	PollIntervalMins int
	MonitorLookback  int // 1m candles fetched per pending trade

	// Risk parameters, percentages of entry price.
	TargetPct decimal.Decimal
	StopPct   decimal.Decimal

	// Analyzer thresholds.
	EMAFastPeriod     int
	EMASlowPeriod     int
	EMAMinSeparation  float64 // percent separation between fast and slow
	EMAMinPriceChange float64 // percent net move over the window
	MinConfidence     int
	HighConfidence    int
	MomentumThreshold float64 // percent over the momentum lookback
	VolumeMultiplier  float64

	// Ledger / archive paths, and the completed-trade retention cap on
	// the ledger file. Zero or negative keeps everything.
	LedgerFile     string
	ArchiveFile    string
	LedgerKeepLast int

	// Smart-entry validity window; zero disables expiry.
	EntryValidFor time.Duration

	// AI analysis on/off. Off when the DeepSeek key is missing.
	AIEnabled bool

	// Logging.
	MaxLogSizeMB  int64
	MaxLogBackups int
}

// Load reads the .env file, validates the environment, and builds a Config
// from the selected preset plus per-variable overrides.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using system environment variables")
	}

	cfg := preset(getEnv("PRESET", PresetBalanced))

	cfg.BinanceAPIKey = os.Getenv("BINANCE_API_KEY")
	cfg.BinanceSecretKey = os.Getenv("BINANCE_SECRET_KEY")
	cfg.DeepSeekAPIKey = os.Getenv("DEEPSEEK_API_KEY")
	cfg.AIEnabled = cfg.DeepSeekAPIKey != ""
	if !cfg.AIEnabled {
		log.Println("Warning: DEEPSEEK_API_KEY not set, AI analysis disabled")
	}

	cfg.Symbols = getEnvAsList("SYMBOLS", cfg.Symbols)
	cfg.KlineInterval = getEnv("KLINE_INTERVAL", cfg.KlineInterval)
	cfg.KlineLimit = getEnvAsInt("KLINE_LIMIT", cfg.KlineLimit)
	cfg.PollIntervalMins = getEnvAsInt("POLL_INTERVAL_MINS", cfg.PollIntervalMins)
	cfg.MonitorLookback = getEnvAsInt("MONITOR_LOOKBACK", cfg.MonitorLookback)
	cfg.TargetPct = getEnvAsDecimal("TARGET_PCT", cfg.TargetPct)
	cfg.StopPct = getEnvAsDecimal("STOP_PCT", cfg.StopPct)
	cfg.LedgerFile = getEnv("LEDGER_FILE", cfg.LedgerFile)
	cfg.ArchiveFile = getEnv("ARCHIVE_FILE", cfg.ArchiveFile)
	cfg.LedgerKeepLast = getEnvAsInt("LEDGER_KEEP_LAST", cfg.LedgerKeepLast)
	cfg.MaxLogSizeMB = int64(getEnvAsInt("MAX_LOG_SIZE_MB", 10))
	cfg.MaxLogBackups = getEnvAsInt("MAX_LOG_BACKUPS", 3)
	if mins := getEnvAsInt("ENTRY_VALID_MINS", 0); mins > 0 {
		cfg.EntryValidFor = time.Duration(mins) * time.Minute
	}

	// Print the .env contents with secrets masked so startup logs are
	// auditable without leaking keys.
	envMap, err := godotenv.Read()
	if err == nil {
		log.Println("--- .env File Variables ---")
		for key, val := range envMap {
			if isSecret(key, secretVars) {
				masked := "***"
				if len(val) > 4 {
					masked = "***" + val[len(val)-4:]
				}
				log.Printf("%s=%s", key, masked)
			} else {
				log.Printf("%s=%s", key, val)
			}
		}
		log.Println("---------------------------")
	}

	return cfg
}

// RequireLiveKeys aborts when the live executor is requested without
// exchange credentials. Called before any network activity.
func (c *Config) RequireLiveKeys() {
	if c.BinanceAPIKey == "" || c.BinanceSecretKey == "" {
		log.Fatalf("CRITICAL: live trading requires BINANCE_API_KEY and BINANCE_SECRET_KEY")
	}
}

// secretVars are the .env keys masked in the startup printout. The chat ID
// identifies a private chat, so it is confidential like the token.
var secretVars = []string{
	"BINANCE_API_KEY",
	"BINANCE_SECRET_KEY",
	"DEEPSEEK_API_KEY",
	"TELEGRAM_BOT_TOKEN",
	"TELEGRAM_CHAT_ID",
}

func isSecret(key string, secrets []string) bool {
	for _, s := range secrets {
		if key == s {
			return true
		}
	}
	return false
}

// preset returns the base Config for a named preset. Unknown names fall
// back to balanced with a warning.
func preset(name string) *Config {
	base := &Config{
		Preset:            PresetBalanced,
		Symbols:           []string{"BTCUSDT", "ETHUSDT", "BNBUSDT", "SOLUSDT"},
		KlineInterval:     "1m",
		KlineLimit:        60,
		PollIntervalMins:  5,
		MonitorLookback:   30,
		TargetPct:         decimal.NewFromFloat(1.0),
		StopPct:           decimal.NewFromFloat(0.5),
		EMAFastPeriod:     12,
		EMASlowPeriod:     26,
		EMAMinSeparation:  0.05,
		EMAMinPriceChange: 0.3,
		MinConfidence:     55,
		HighConfidence:    90,
		MomentumThreshold: 0.5,
		VolumeMultiplier:  1.5,
		LedgerFile:        "trades.json",
		ArchiveFile:       "trades_archive.db",
		LedgerKeepLast:    50,
	}

	switch name {
	case PresetBalanced, "":
		return base
	case PresetUltraConservative:
		base.Preset = PresetUltraConservative
		base.TargetPct = decimal.NewFromFloat(0.6)
		base.StopPct = decimal.NewFromFloat(0.3)
		base.EMAMinSeparation = 0.10
		base.EMAMinPriceChange = 0.5
		base.MinConfidence = 70
		base.MomentumThreshold = 0.8
		base.VolumeMultiplier = 2.0
		return base
	default:
		log.Printf("Warning: unknown preset %q, using %s", name, PresetBalanced)
		return base
	}
}
