package spamcheck

import (
	"context"
	"time"
)

// Decision is a single human labeling decision kept in the learning log.
// The log is append-only: repeated decisions about the same text are
// corroborating evidence, not duplicates.
type Decision struct {
	Text      string
	Brand     *string
	IsSpam    bool
	Source    string
	CreatedAt time.Time
}

// RuleSource lists the phrase rules currently in force.
type RuleSource interface {
	ListEnabled(ctx context.Context) ([]Rule, error)
}

// DecisionStore is the learning log boundary. List returns the corpus the
// engine scores against; the engine fetches it once per Classify or
// ClassifyBatch call, never once per item.
type DecisionStore interface {
	List(ctx context.Context) ([]Decision, error)
	Append(ctx context.Context, d Decision) error
	Delete(ctx context.Context, text string, brand *string, isSpam bool) (int64, error)
}

// historySignal is the aggregated outcome of matching one message against
// the learning corpus.
type historySignal struct {
	confidence float64 // spam ratio among similar prior decisions, 0 when none
	spam       int
	total      int
}

// historyWordFloor is the per-word similarity floor when matching a prior
// decision's words against a message. It is loose enough to absorb
// inflection ("win" vs "won"); the averaged score still has to clear the
// history threshold.
const historyWordFloor = 0.6

// matchHistory scores normText against the corpus. A prior decision counts
// when its normalized text is similar at or above threshold and its brand
// scope covers the message (nil brand = global decision).
func matchHistory(normText, brand string, corpus []Decision, threshold float64) historySignal {
	var sig historySignal
	if normText == "" {
		return sig
	}

	for _, d := range corpus {
		if d.Brand != nil && *d.Brand != brand {
			continue
		}
		normDecision := Normalize(d.Text)
		if normDecision == "" {
			continue
		}
		if decisionSimilar(normText, normDecision, threshold) {
			sig.total++
			if d.IsSpam {
				sig.spam++
			}
		}
	}

	if sig.total > 0 {
		sig.confidence = float64(sig.spam) / float64(sig.total)
	}
	return sig
}

// decisionSimilar reports whether a prior decision's text is close enough
// to the message to count as historical evidence: either the whole strings
// are similar at the threshold, or the decision's words each find a strong
// counterpart in the message and their averaged similarity clears it.
func decisionSimilar(normText, normDecision string, threshold float64) bool {
	if Similarity(normText, normDecision) >= threshold {
		return true
	}
	if score, ok := FindBestFuzzyMatch(normText, normDecision, historyWordFloor); ok && score >= threshold {
		return true
	}
	return false
}
