package bot

import (
	"fmt"
	"sort"

	"crypto_sentinel/internal/ai"
	"crypto_sentinel/internal/analyzer"
	"crypto_sentinel/internal/config"
)

// registry maps strategy names to analyzer constructors, so one pipeline
// serves every strategy instead of one bot per indicator.
var registry = map[string]func(cfg *config.Config) analyzer.Analyzer{
	"ema": func(cfg *config.Config) analyzer.Analyzer {
		return &analyzer.EMA{
			FastPeriod:     cfg.EMAFastPeriod,
			SlowPeriod:     cfg.EMASlowPeriod,
			MinSeparation:  cfg.EMAMinSeparation,
			MinPriceChange: cfg.EMAMinPriceChange,
			MinConfidence:  cfg.MinConfidence,
			HighConfidence: cfg.HighConfidence,
		}
	},
	"momentum": func(cfg *config.Config) analyzer.Analyzer {
		return &analyzer.Momentum{
			Threshold:      cfg.MomentumThreshold,
			MinConfidence:  cfg.MinConfidence,
			HighConfidence: cfg.HighConfidence,
		}
	},
	"momentum_multi": func(cfg *config.Config) analyzer.Analyzer {
		return &analyzer.MultiPeriodMomentum{
			Threshold:      cfg.MomentumThreshold,
			MinConfidence:  cfg.MinConfidence,
			HighConfidence: cfg.HighConfidence,
		}
	},
	"volume": func(cfg *config.Config) analyzer.Analyzer {
		return &analyzer.Volume{
			Multiplier:     cfg.VolumeMultiplier,
			MinConfidence:  cfg.MinConfidence,
			HighConfidence: cfg.HighConfidence,
		}
	},
	"sr_levels": func(cfg *config.Config) analyzer.Analyzer {
		return &analyzer.SupportResistance{
			MinConfidence:  cfg.MinConfidence,
			HighConfidence: cfg.HighConfidence,
		}
	},
	"deepseek": func(cfg *config.Config) analyzer.Analyzer {
		return ai.NewClient(cfg.DeepSeekAPIKey)
	},
}

// The composite entry references the registry itself, so it is registered
// in init to avoid an initialization cycle.
func init() {
	registry["composite"] = func(cfg *config.Config) analyzer.Analyzer {
		members := []analyzer.Weighted{
			{Analyzer: registry["ema"](cfg), Weight: 1.5},
			{Analyzer: registry["momentum_multi"](cfg), Weight: 1.0},
			{Analyzer: registry["volume"](cfg), Weight: 0.8},
			{Analyzer: registry["sr_levels"](cfg), Weight: 1.0},
		}
		if cfg.AIEnabled {
			members = append(members, analyzer.Weighted{
				Analyzer: ai.NewClient(cfg.DeepSeekAPIKey), Weight: 1.2,
			})
		}
		return &analyzer.Composite{
			Members:        members,
			MinConfidence:  cfg.MinConfidence,
			HighConfidence: cfg.HighConfidence,
		}
	}
}

// BuildAnalyzer resolves a strategy name from the registry. Running the
// standalone deepseek strategy without credentials would hold forever, so
// that combination is a configuration error; the composite merely drops its
// AI member when the key is absent.
func BuildAnalyzer(name string, cfg *config.Config) (analyzer.Analyzer, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q, available: %v", name, StrategyNames())
	}
	if name == "deepseek" && cfg.DeepSeekAPIKey == "" {
		return nil, fmt.Errorf("strategy deepseek requires DEEPSEEK_API_KEY")
	}
	return ctor(cfg), nil
}

// StrategyNames lists the registered strategies, sorted.
func StrategyNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
