package models

import (
	"time"

	"gorm.io/gorm"
)

// SpamRule is a moderator-authored phrase filter. PatternNorm is always
// the canonical normalization of Pattern; the unique index on
// (pattern_norm, mode, brand) prevents duplicate rules. Disabling is
// preferred over deletion, but hard delete is supported.
type SpamRule struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Pattern     string         `gorm:"size:500;not null" json:"pattern"`
	PatternNorm string         `gorm:"size:500;not null;uniqueIndex:idx_spam_rules_norm_mode_brand" json:"pattern_norm"`
	Mode        string         `gorm:"size:20;not null;default:contains;uniqueIndex:idx_spam_rules_norm_mode_brand" json:"mode"` // contains, lone
	Brand       *string        `gorm:"size:100;uniqueIndex:idx_spam_rules_norm_mode_brand" json:"brand"`                         // nil = global
	Enabled     bool           `gorm:"default:true" json:"enabled"`
	CreatedBy   uint           `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Decision sources.
const (
	DecisionSourceManual           = "manual"
	DecisionSourceSweep            = "sweep"
	DecisionSourceRestoreWhitelist = "restore-whitelist"
)

// SpamDecision is one human labeling decision in the append-only learning
// log. Duplicates are corroborating evidence, so no uniqueness is enforced
// and rows are immutable once written.
type SpamDecision struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"size:1000;not null;index" json:"text"`
	Brand     *string   `gorm:"size:100;index" json:"brand"`
	IsSpam    bool      `gorm:"index" json:"is_spam"`
	Source    string    `gorm:"size:50" json:"source"` // manual, restore-whitelist, sweep, ...
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TaskRuleMatch records which rule hit which task during classification,
// for audit. Scoring itself never reads these rows.
type TaskRuleMatch struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TaskID    uint      `gorm:"index;not null" json:"task_id"`
	RuleID    uint      `gorm:"index;not null" json:"rule_id"`
	Pattern   string    `gorm:"size:500" json:"pattern"`
	CreatedAt time.Time `json:"created_at"`
}

func (SpamRule) TableName() string      { return "spam_rules" }
func (SpamDecision) TableName() string  { return "spam_decisions" }
func (TaskRuleMatch) TableName() string { return "task_rule_matches" }
