package services

import (
	"context"
	"errors"

	"github.com/carewise/carehub/internal/models"
	"github.com/carewise/carehub/internal/spamcheck"
	"gorm.io/gorm"
)

// ErrDuplicateRule is returned when an identical (normalized pattern,
// mode, brand) rule already exists.
var ErrDuplicateRule = errors.New("an equivalent rule already exists")

// ErrEmptyPattern is returned when a pattern normalizes to nothing.
var ErrEmptyPattern = errors.New("pattern normalizes to an empty string")

// SpamRuleService maintains the moderator-authored phrase rules.
type SpamRuleService struct {
	db *gorm.DB
}

func NewSpamRuleService(db *gorm.DB) *SpamRuleService {
	return &SpamRuleService{db: db}
}

// List returns rules, optionally filtered to one brand's scope (its own
// rules plus globals).
func (s *SpamRuleService) List(ctx context.Context, brand *string, includeDisabled bool) ([]models.SpamRule, error) {
	q := s.db.WithContext(ctx).Model(&models.SpamRule{})
	if brand != nil {
		q = q.Where("brand IS NULL OR brand = ?", *brand)
	}
	if !includeDisabled {
		q = q.Where("enabled = ?", true)
	}

	var rules []models.SpamRule
	if err := q.Order("created_at DESC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// Create normalizes the pattern, rejects duplicates, and stores the rule.
func (s *SpamRuleService) Create(ctx context.Context, rule *models.SpamRule) error {
	rule.PatternNorm = spamcheck.Normalize(rule.Pattern)
	if rule.PatternNorm == "" {
		return ErrEmptyPattern
	}
	if rule.Mode == "" {
		rule.Mode = string(spamcheck.MatchContains)
	}

	var count int64
	q := s.db.WithContext(ctx).Model(&models.SpamRule{}).
		Where("pattern_norm = ? AND mode = ?", rule.PatternNorm, rule.Mode)
	if rule.Brand == nil {
		q = q.Where("brand IS NULL")
	} else {
		q = q.Where("brand = ?", *rule.Brand)
	}
	q.Count(&count)
	if count > 0 {
		return ErrDuplicateRule
	}

	return s.db.WithContext(ctx).Create(rule).Error
}

// Update edits a rule, re-deriving the normalized pattern when the raw
// pattern changes.
func (s *SpamRuleService) Update(ctx context.Context, id uint, updates map[string]interface{}) (*models.SpamRule, error) {
	var rule models.SpamRule
	if err := s.db.WithContext(ctx).First(&rule, id).Error; err != nil {
		return nil, err
	}

	if raw, ok := updates["pattern"].(string); ok {
		norm := spamcheck.Normalize(raw)
		if norm == "" {
			return nil, ErrEmptyPattern
		}
		updates["pattern_norm"] = norm
	}

	if err := s.db.WithContext(ctx).Model(&rule).Updates(updates).Error; err != nil {
		return nil, err
	}
	s.db.WithContext(ctx).First(&rule, id)
	return &rule, nil
}

// Toggle flips a rule's enabled flag. Disabling is the preferred
// alternative to deletion.
func (s *SpamRuleService) Toggle(ctx context.Context, id uint) (*models.SpamRule, error) {
	var rule models.SpamRule
	if err := s.db.WithContext(ctx).First(&rule, id).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&rule).Update("enabled", !rule.Enabled).Error; err != nil {
		return nil, err
	}
	rule.Enabled = !rule.Enabled
	return &rule, nil
}

// Delete hard-deletes a rule.
func (s *SpamRuleService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.SpamRule{}, id).Error
}

// TestRule evaluates a candidate pattern against sample texts without
// persisting anything, so moderators can dry-run a rule before saving.
func (s *SpamRuleService) TestRule(pattern, mode string, samples []string) []bool {
	rule := spamcheck.Rule{
		Pattern:     pattern,
		PatternNorm: spamcheck.Normalize(pattern),
		Mode:        spamcheck.MatchMode(mode),
		Enabled:     true,
	}

	hits := make([]bool, len(samples))
	for i, text := range samples {
		hits[i] = len(spamcheck.MatchRules(text, "", []spamcheck.Rule{rule})) > 0
	}
	return hits
}
