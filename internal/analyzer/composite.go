package analyzer

import (
	"fmt"
	"strings"

	"crypto_sentinel/internal/market"
)

// Composite runs several analyzers and takes a weighted vote. It is the
// default bot strategy: one pipeline instead of one bot per indicator.
type Composite struct {
	Members        []Weighted
	MinConfidence  int
	HighConfidence int
}

// Weighted pairs an analyzer with its vote weight.
type Weighted struct {
	Analyzer Analyzer
	Weight   float64
}

func (a *Composite) Name() string { return "composite" }

// Analyze sums confidence-scaled weights per side. The winning side must
// carry a strict majority of the total cast weight, otherwise HOLD.
func (a *Composite) Analyze(snap market.Snapshot) Decision {
	var buyScore, sellScore, total float64
	var reasons []string

	for _, m := range a.Members {
		d := m.Analyzer.Analyze(snap)
		if d.Action == ActionHold {
			continue
		}
		w := m.Weight * float64(d.Confidence)
		total += w
		if d.Action == ActionBuy {
			buyScore += w
		} else {
			sellScore += w
		}
		reasons = append(reasons, fmt.Sprintf("%s: %s (%d)", m.Analyzer.Name(), d.Action, d.Confidence))
	}

	if total == 0 {
		return Hold("all members held")
	}

	reason := strings.Join(reasons, "; ")
	switch {
	case buyScore > total/2:
		score := float64(a.MinConfidence) + (buyScore/total-0.5)*2*float64(a.HighConfidence-a.MinConfidence)
		return Decision{Action: ActionBuy, Confidence: clampConfidence(score, a.MinConfidence, a.HighConfidence), Reason: reason}
	case sellScore > total/2:
		score := float64(a.MinConfidence) + (sellScore/total-0.5)*2*float64(a.HighConfidence-a.MinConfidence)
		return Decision{Action: ActionSell, Confidence: clampConfidence(score, a.MinConfidence, a.HighConfidence), Reason: reason}
	default:
		return Hold("split vote: " + reason)
	}
}
