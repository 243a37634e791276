package spamcheck

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type fakeRuleSource struct {
	rules []Rule
	err   error
}

func (f *fakeRuleSource) ListEnabled(ctx context.Context) ([]Rule, error) {
	return f.rules, f.err
}

type fakeDecisionStore struct {
	decisions []Decision
	listErr   error
	listCalls int
}

func (f *fakeDecisionStore) List(ctx context.Context) ([]Decision, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.decisions, nil
}

func (f *fakeDecisionStore) Append(ctx context.Context, d Decision) error {
	f.decisions = append(f.decisions, d)
	return nil
}

func (f *fakeDecisionStore) Delete(ctx context.Context, text string, brand *string, isSpam bool) (int64, error) {
	var kept []Decision
	var deleted int64
	for _, d := range f.decisions {
		sameBrand := (d.Brand == nil && brand == nil) ||
			(d.Brand != nil && brand != nil && *d.Brand == *brand)
		if d.Text == text && d.IsSpam == isSpam && sameBrand {
			deleted++
			continue
		}
		kept = append(kept, d)
	}
	f.decisions = kept
	return deleted, nil
}

func newTestEngine(rules []Rule, decisions []Decision) (*Engine, *fakeDecisionStore) {
	store := &fakeDecisionStore{decisions: decisions}
	return New(&fakeRuleSource{rules: rules}, store, DefaultConfig()), store
}

func TestClassify_RuleHitScenario(t *testing.T) {
	eng, _ := newTestEngine([]Rule{
		{Pattern: "free gift", PatternNorm: "free gift", Mode: MatchContains, Enabled: true},
	}, nil)

	res := eng.Classify(context.Background(), "Claim your FREE GIFT today!!", "")

	if !reflect.DeepEqual(res.Patterns, []string{"free gift"}) {
		t.Errorf("Patterns = %v, expected [free gift]", res.Patterns)
	}
	if res.Score < 70 {
		t.Errorf("Score = %f, expected >= 70", res.Score)
	}
	if res.Tier != TierLikelySpam {
		t.Errorf("Tier = %q, expected %q", res.Tier, TierLikelySpam)
	}
	if len(res.Reasons) == 0 {
		t.Error("expected at least one reason for a rule hit")
	}
}

func TestClassify_NoSignal(t *testing.T) {
	eng, _ := newTestEngine(nil, nil)

	res := eng.Classify(context.Background(), "Hi, what's the status of my order #1234?", "")

	if res.Score != 0 {
		t.Errorf("Score = %f, expected 0", res.Score)
	}
	if res.Tier != TierLikelyLegitimate {
		t.Errorf("Tier = %q, expected %q", res.Tier, TierLikelyLegitimate)
	}
	if len(res.Patterns) != 0 {
		t.Errorf("Patterns = %v, expected empty", res.Patterns)
	}
}

func TestClassify_EmptyText(t *testing.T) {
	eng, _ := newTestEngine(nil, nil)

	res := eng.Classify(context.Background(), "", "")
	if res.Score != 0 || res.Tier != TierLikelyLegitimate {
		t.Errorf("empty text should score lowest, got score=%f tier=%q", res.Score, res.Tier)
	}
	if len(res.Reasons) == 0 {
		t.Error("empty text should carry an explanatory reason")
	}
}

func TestClassify_LearnThenMatch(t *testing.T) {
	eng, store := newTestEngine(nil, nil)
	ctx := context.Background()
	brand := "BrandX"

	if err := eng.RecordDecision(ctx, "win a free cruise", true, &brand, "manual"); err != nil {
		t.Fatalf("RecordDecision() error = %v", err)
	}

	res := eng.Classify(ctx, "You just won a free cruise!", "BrandX")
	if res.HistoricalConfidence <= 0 {
		t.Fatalf("HistoricalConfidence = %f, expected > 0", res.HistoricalConfidence)
	}

	found := false
	for _, r := range res.Reasons {
		if strings.Contains(r, "similar past messages") {
			found = true
		}
	}
	if !found {
		t.Errorf("reasons %v should mention the historical match", res.Reasons)
	}

	// Unlearning the decision removes the signal entirely.
	deleted, err := eng.RemoveDecision(ctx, "win a free cruise", true, &brand)
	if err != nil {
		t.Fatalf("RemoveDecision() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, expected 1", deleted)
	}
	if len(store.decisions) != 0 {
		t.Errorf("store should be empty after removal, has %d", len(store.decisions))
	}

	res = eng.Classify(ctx, "You just won a free cruise!", "BrandX")
	if res.HistoricalConfidence != 0 {
		t.Errorf("HistoricalConfidence = %f after removal, expected 0", res.HistoricalConfidence)
	}
}

func TestClassify_BrandScopedHistory(t *testing.T) {
	brand := "BrandX"
	eng, _ := newTestEngine(nil, []Decision{
		{Text: "win a free cruise", Brand: &brand, IsSpam: true},
	})

	res := eng.Classify(context.Background(), "win a free cruise", "OtherBrand")
	if res.HistoricalConfidence != 0 {
		t.Errorf("decision scoped to BrandX should not apply to OtherBrand, got %f", res.HistoricalConfidence)
	}
}

func TestClassify_MonotonicOnRuleMatch(t *testing.T) {
	text := "limited time offer just for you"

	without, _ := newTestEngine(nil, nil)
	with, _ := newTestEngine([]Rule{
		{Pattern: "limited time offer", PatternNorm: "limited time offer", Mode: MatchContains, Enabled: true},
	}, nil)

	base := without.Classify(context.Background(), text, "")
	hit := with.Classify(context.Background(), text, "")

	if hit.Score < base.Score {
		t.Errorf("adding a matching rule decreased the score: %f -> %f", base.Score, hit.Score)
	}
}

func TestTierBoundaries_Exact(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		score    float64
		expected Tier
	}{
		{0, TierLikelyLegitimate},
		{39.999, TierLikelyLegitimate},
		{40, TierSuspicious},
		{69.999, TierSuspicious},
		{70, TierLikelySpam},
		{100, TierLikelySpam},
	}

	for _, tt := range tests {
		if got := cfg.TierFor(tt.score); got != tt.expected {
			t.Errorf("TierFor(%f) = %q, expected %q", tt.score, got, tt.expected)
		}
	}
}

func TestTierBoundaries_ViaScoring(t *testing.T) {
	// Configure the rule weight to land exactly on each boundary.
	for _, tt := range []struct {
		weight   float64
		expected Tier
	}{
		{40, TierSuspicious},
		{70, TierLikelySpam},
	} {
		cfg := DefaultConfig()
		cfg.RuleMatchWeight = tt.weight
		eng := New(&fakeRuleSource{rules: []Rule{
			{Pattern: "spam", PatternNorm: "spam", Mode: MatchContains, Enabled: true},
		}}, &fakeDecisionStore{}, cfg)

		res := eng.Classify(context.Background(), "pure spam", "")
		if res.Score != tt.weight {
			t.Errorf("Score = %f, expected %f", res.Score, tt.weight)
		}
		if res.Tier != tt.expected {
			t.Errorf("score %f mapped to %q, expected %q", tt.weight, res.Tier, tt.expected)
		}
	}
}

func TestClassifyBatch_SingleEquivalence(t *testing.T) {
	brand := "acme"
	rules := []Rule{
		{Pattern: "free gift", PatternNorm: "free gift", Mode: MatchContains, Enabled: true},
	}
	decisions := []Decision{
		{Text: "win a free cruise", Brand: &brand, IsSpam: true},
	}

	eng, _ := newTestEngine(rules, decisions)
	items := []Item{
		{Text: "Claim your FREE GIFT today!!", Brand: "acme"},
		{Text: "Hi, what's the status of my order?", Brand: "acme"},
	}

	batch := eng.ClassifyBatch(context.Background(), items)
	for _, it := range items {
		single := eng.Classify(context.Background(), it.Text, it.Brand)
		got, ok := batch[BatchKey(it.Text, it.Brand)]
		if !ok {
			t.Fatalf("batch result missing key for %q", it.Text)
		}
		if !reflect.DeepEqual(got, single) {
			t.Errorf("batch result %+v != single result %+v", got, single)
		}
	}
}

func TestClassifyBatch_SingleCorpusFetch(t *testing.T) {
	eng, store := newTestEngine(nil, []Decision{
		{Text: "spam text", IsSpam: true},
	})

	items := make([]Item, 25)
	for i := range items {
		items[i] = Item{Text: "message number", Brand: ""}
	}

	eng.ClassifyBatch(context.Background(), items)
	if store.listCalls != 1 {
		t.Errorf("corpus fetched %d times for one batch, expected 1", store.listCalls)
	}
}

func TestClassify_DegradesWhenHistoryUnavailable(t *testing.T) {
	store := &fakeDecisionStore{listErr: errors.New("connection refused")}
	eng := New(&fakeRuleSource{rules: []Rule{
		{Pattern: "free gift", PatternNorm: "free gift", Mode: MatchContains, Enabled: true},
	}}, store, DefaultConfig())

	res := eng.Classify(context.Background(), "free gift inside", "")

	if res.Score < 70 {
		t.Errorf("rule-only score = %f, expected >= 70", res.Score)
	}
	if res.HistoricalConfidence != 0 {
		t.Errorf("HistoricalConfidence = %f, expected 0 on degradation", res.HistoricalConfidence)
	}

	found := false
	for _, r := range res.Reasons {
		if strings.Contains(r, "history unavailable") {
			found = true
		}
	}
	if !found {
		t.Errorf("reasons %v should note the degradation", res.Reasons)
	}
}

func TestRecordDecision_TruncatesText(t *testing.T) {
	eng, store := newTestEngine(nil, nil)

	long := strings.Repeat("a", 1500)
	if err := eng.RecordDecision(context.Background(), long, true, nil, "manual"); err != nil {
		t.Fatalf("RecordDecision() error = %v", err)
	}

	if got := len(store.decisions[0].Text); got != 1000 {
		t.Errorf("stored text length = %d, expected 1000", got)
	}

	// Removal uses the same truncation, so the full-length text still deletes.
	deleted, _ := eng.RemoveDecision(context.Background(), long, true, nil)
	if deleted != 1 {
		t.Errorf("deleted = %d, expected 1", deleted)
	}
}

func TestBatchKey(t *testing.T) {
	if got := BatchKey("short", "acme"); got != "short|acme" {
		t.Errorf("BatchKey = %q", got)
	}
	if got := BatchKey("short", ""); got != "short|" {
		t.Errorf("BatchKey = %q", got)
	}

	long := strings.Repeat("x", 80)
	got := BatchKey(long, "b")
	if got != strings.Repeat("x", 50)+"|b" {
		t.Errorf("BatchKey should keep only the first 50 chars, got %q", got)
	}
}
