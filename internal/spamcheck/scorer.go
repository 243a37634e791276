package spamcheck

import (
	"context"
	"fmt"
	"strings"
)

// Tier is the recommendation bucket derived from a score. Review-queue
// sorting and auto-archival depend on the exact boundaries.
type Tier string

const (
	TierLikelyLegitimate Tier = "likely_legitimate" // score < 40
	TierSuspicious       Tier = "suspicious"        // 40 <= score < 70
	TierLikelySpam       Tier = "likely_spam"       // score >= 70
)

// Config holds the scoring policy. Any monotonic combination of the rule
// and history signals is acceptable; these constants only have to respect
// the tier boundaries.
type Config struct {
	RuleMatchWeight    float64 // flat contribution when any phrase rule hits
	HistoricalWeight   float64 // max contribution from historical confidence
	HistoryThreshold   float64 // similarity cutoff for prior-decision matches
	SuspiciousFloor    float64 // inclusive lower bound of the suspicious tier
	SpamFloor          float64 // inclusive lower bound of the likely_spam tier
	MaxDecisionTextLen int     // learning-log text truncation, in runes
}

// DefaultConfig returns the production scoring policy: a single rule hit
// lands a message in likely_spam on its own, history alone never does.
func DefaultConfig() Config {
	return Config{
		RuleMatchWeight:    75,
		HistoricalWeight:   30,
		HistoryThreshold:   0.8,
		SuspiciousFloor:    40,
		SpamFloor:          70,
		MaxDecisionTextLen: 1000,
	}
}

// TierFor maps a score to its recommendation tier.
func (c Config) TierFor(score float64) Tier {
	switch {
	case score >= c.SpamFloor:
		return TierLikelySpam
	case score >= c.SuspiciousFloor:
		return TierSuspicious
	default:
		return TierLikelyLegitimate
	}
}

// Result is the ephemeral outcome of scoring one message. It is never
// persisted and is safe to recompute.
type Result struct {
	Score                float64  `json:"score"`
	Tier                 Tier     `json:"tier"`
	Reasons              []string `json:"reasons"`
	Patterns             []string `json:"patterns"`
	HistoricalConfidence float64  `json:"historical_confidence"`
}

// Item is one message in a batch classification request.
type Item struct {
	Text  string `json:"text"`
	Brand string `json:"brand"`
}

// BatchKey derives the stable map key for an item: the first 50 runes of
// the raw text, a pipe, and the brand (empty for global).
func BatchKey(text, brand string) string {
	r := []rune(text)
	if len(r) > 50 {
		r = r[:50]
	}
	return string(r) + "|" + brand
}

// Engine scores messages against moderator phrase rules and the learning
// log. Scoring never returns an error: if a store is unreachable the
// engine degrades to whatever signals it still has and says so in the
// reasons, because a conservative score is more useful to the review
// queue than a failure.
type Engine struct {
	rules     RuleSource
	decisions DecisionStore
	cfg       Config
}

// New builds an Engine over the given stores. A zero-valued cfg is
// replaced with DefaultConfig.
func New(rules RuleSource, decisions DecisionStore, cfg Config) *Engine {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	return &Engine{rules: rules, decisions: decisions, cfg: cfg}
}

// Config returns the engine's scoring policy.
func (e *Engine) Config() Config { return e.cfg }

// Classify scores a single message.
func (e *Engine) Classify(ctx context.Context, text, brand string) Result {
	rules, corpus := e.fetch(ctx)
	return e.score(text, brand, rules.rules, rules.err, corpus.decisions, corpus.err)
}

// ClassifyBatch scores every item against a single fetch of the rule set
// and learning corpus. Callers classifying N items observe O(1) store
// reads, not O(N). Keys are BatchKey(item.Text, item.Brand).
func (e *Engine) ClassifyBatch(ctx context.Context, items []Item) map[string]Result {
	results := make(map[string]Result, len(items))
	if len(items) == 0 {
		return results
	}

	rules, corpus := e.fetch(ctx)
	for _, it := range items {
		results[BatchKey(it.Text, it.Brand)] = e.score(it.Text, it.Brand, rules.rules, rules.err, corpus.decisions, corpus.err)
	}
	return results
}

// RecordDecision appends one labeling decision to the learning log. Text
// is truncated to the configured bound. Repeated identical calls add
// corroborating evidence; nothing is deduplicated.
func (e *Engine) RecordDecision(ctx context.Context, text string, isSpam bool, brand *string, source string) error {
	return e.decisions.Append(ctx, Decision{
		Text:   truncateRunes(text, e.cfg.MaxDecisionTextLen),
		Brand:  brand,
		IsSpam: isSpam,
		Source: source,
	})
}

// RemoveDecision deletes learning records matching the exact truncated
// text, brand, and isSpam flag, reporting how many were removed. It is
// the correction path for mislabeled training data.
func (e *Engine) RemoveDecision(ctx context.Context, text string, isSpam bool, brand *string) (int64, error) {
	return e.decisions.Delete(ctx, truncateRunes(text, e.cfg.MaxDecisionTextLen), brand, isSpam)
}

type fetchedRules struct {
	rules []Rule
	err   error
}

type fetchedCorpus struct {
	decisions []Decision
	err       error
}

func (e *Engine) fetch(ctx context.Context) (fetchedRules, fetchedCorpus) {
	var fr fetchedRules
	var fc fetchedCorpus
	fr.rules, fr.err = e.rules.ListEnabled(ctx)
	fc.decisions, fc.err = e.decisions.List(ctx)
	return fr, fc
}

func (e *Engine) score(text, brand string, rules []Rule, rulesErr error, corpus []Decision, corpusErr error) Result {
	res := Result{Patterns: []string{}, Reasons: []string{}}

	normText := Normalize(text)
	if normText == "" {
		res.Tier = e.cfg.TierFor(0)
		res.Reasons = append(res.Reasons, "no message text to evaluate")
		return res
	}

	score := 0.0

	if rulesErr != nil {
		res.Reasons = append(res.Reasons, "phrase rules unavailable, scored without rule matching")
	} else if matched := MatchRules(text, brand, rules); len(matched) > 0 {
		res.Patterns = matched
		score += e.cfg.RuleMatchWeight
		res.Reasons = append(res.Reasons,
			fmt.Sprintf("matched %d phrase rule(s): %s", len(matched), strings.Join(matched, ", ")))
	}

	if corpusErr != nil {
		res.Reasons = append(res.Reasons, "learning history unavailable, scored on rules only")
	} else {
		sig := matchHistory(normText, brand, corpus, e.cfg.HistoryThreshold)
		if sig.total > 0 {
			res.HistoricalConfidence = sig.confidence
			score += e.cfg.HistoricalWeight * sig.confidence
			res.Reasons = append(res.Reasons,
				fmt.Sprintf("%d of %d similar past messages were marked spam", sig.spam, sig.total))
		}
	}

	if score > 100 {
		score = 100
	}
	res.Score = score
	res.Tier = e.cfg.TierFor(score)
	return res
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
