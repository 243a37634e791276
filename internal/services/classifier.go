package services

import (
	"context"
	"strings"

	"github.com/carewise/carehub/internal/config"
	"github.com/carewise/carehub/internal/models"
	"github.com/carewise/carehub/internal/spamcheck"
	"github.com/carewise/carehub/pkg/logger"
	"gorm.io/gorm"
)

// corpusLimit bounds the learning corpus loaded per scoring call so batch
// latency stays predictable. Newest decisions win.
const corpusLimit = 5000

// gormRuleSource feeds enabled spam rules to the engine.
type gormRuleSource struct {
	db *gorm.DB
}

func (s gormRuleSource) ListEnabled(ctx context.Context) ([]spamcheck.Rule, error) {
	var rows []models.SpamRule
	if err := s.db.WithContext(ctx).Where("enabled = ?", true).Find(&rows).Error; err != nil {
		return nil, err
	}

	rules := make([]spamcheck.Rule, 0, len(rows))
	for _, r := range rows {
		rules = append(rules, spamcheck.Rule{
			Pattern:     r.Pattern,
			PatternNorm: r.PatternNorm,
			Mode:        spamcheck.MatchMode(r.Mode),
			Brand:       r.Brand,
			Enabled:     r.Enabled,
		})
	}
	return rules, nil
}

// gormDecisionStore is the learning log. List is the single bounded query
// the engine scores a whole batch against.
type gormDecisionStore struct {
	db *gorm.DB
}

func (s gormDecisionStore) List(ctx context.Context) ([]spamcheck.Decision, error) {
	var rows []models.SpamDecision
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(corpusLimit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	decisions := make([]spamcheck.Decision, 0, len(rows))
	for _, d := range rows {
		decisions = append(decisions, spamcheck.Decision{
			Text:      d.Text,
			Brand:     d.Brand,
			IsSpam:    d.IsSpam,
			Source:    d.Source,
			CreatedAt: d.CreatedAt,
		})
	}
	return decisions, nil
}

func (s gormDecisionStore) Append(ctx context.Context, d spamcheck.Decision) error {
	return s.db.WithContext(ctx).Create(&models.SpamDecision{
		Text:   d.Text,
		Brand:  d.Brand,
		IsSpam: d.IsSpam,
		Source: d.Source,
	}).Error
}

func (s gormDecisionStore) Delete(ctx context.Context, text string, brand *string, isSpam bool) (int64, error) {
	q := s.db.WithContext(ctx).Where("text = ? AND is_spam = ?", text, isSpam)
	if brand == nil {
		q = q.Where("brand IS NULL")
	} else {
		q = q.Where("brand = ?", *brand)
	}
	res := q.Delete(&models.SpamDecision{})
	return res.RowsAffected, res.Error
}

// ClassifierService wires the scoring engine to the database and applies
// classification outcomes to tasks.
type ClassifierService struct {
	db          *gorm.DB
	engine      *spamcheck.Engine
	autoArchive bool
}

func NewClassifierService(db *gorm.DB, cfg *config.ClassifierConfig) *ClassifierService {
	ec := spamcheck.DefaultConfig()
	autoArchive := true
	if cfg != nil {
		if cfg.RuleMatchWeight > 0 {
			ec.RuleMatchWeight = cfg.RuleMatchWeight
		}
		if cfg.HistoricalWeight > 0 {
			ec.HistoricalWeight = cfg.HistoricalWeight
		}
		if cfg.HistoryThreshold > 0 {
			ec.HistoryThreshold = cfg.HistoryThreshold
		}
		autoArchive = cfg.AutoArchive
	}

	return &ClassifierService{
		db:          db,
		engine:      spamcheck.New(gormRuleSource{db: db}, gormDecisionStore{db: db}, ec),
		autoArchive: autoArchive,
	}
}

// Engine exposes the underlying scorer for callers that only need scoring.
func (s *ClassifierService) Engine() *spamcheck.Engine { return s.engine }

// Classify scores a single message without touching any task.
func (s *ClassifierService) Classify(ctx context.Context, text, brand string) spamcheck.Result {
	return s.engine.Classify(ctx, text, brand)
}

// ClassifyBatch scores many messages against one corpus fetch.
func (s *ClassifierService) ClassifyBatch(ctx context.Context, items []spamcheck.Item) map[string]spamcheck.Result {
	return s.engine.ClassifyBatch(ctx, items)
}

// ClassifyTask scores a task's text and persists the outcome: the score
// snapshot, rule-match audit rows, and the resulting status transition.
func (s *ClassifierService) ClassifyTask(ctx context.Context, task *models.Task) (spamcheck.Result, error) {
	res := s.engine.Classify(ctx, task.Text, task.Brand)
	if err := s.applyResult(ctx, task, res); err != nil {
		return res, err
	}
	return res, nil
}

// SweepResult summarizes one classification sweep over a queue.
type SweepResult struct {
	Queue     string `json:"queue"`
	Scanned   int    `json:"scanned"`
	Archived  int    `json:"archived"`
	ForReview int    `json:"for_review"`
}

// SweepQueue classifies every pending task in a queue with a single batch
// call, so the learning corpus is fetched once no matter how many tasks
// are waiting.
func (s *ClassifierService) SweepQueue(ctx context.Context, queue string) (*SweepResult, error) {
	var tasks []models.Task
	err := s.db.WithContext(ctx).
		Where("queue = ? AND status = ?", queue, models.TaskPending).
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	sweep := &SweepResult{Queue: queue, Scanned: len(tasks)}
	if len(tasks) == 0 {
		return sweep, nil
	}

	items := make([]spamcheck.Item, len(tasks))
	for i, t := range tasks {
		items[i] = spamcheck.Item{Text: t.Text, Brand: t.Brand}
	}
	results := s.engine.ClassifyBatch(ctx, items)

	for i := range tasks {
		res, ok := results[spamcheck.BatchKey(tasks[i].Text, tasks[i].Brand)]
		if !ok {
			continue
		}
		if err := s.applyResult(ctx, &tasks[i], res); err != nil {
			logger.Error().Err(err).Uint("task_id", tasks[i].ID).Msg("failed to apply sweep result")
			continue
		}
		switch tasks[i].Status {
		case models.TaskSpamArchived:
			sweep.Archived++
		case models.TaskSpamReview:
			sweep.ForReview++
		}
	}

	logger.Info().
		Str("queue", queue).
		Int("scanned", sweep.Scanned).
		Int("archived", sweep.Archived).
		Int("for_review", sweep.ForReview).
		Msg("spam sweep completed")
	return sweep, nil
}

// RecordDecision appends a moderator decision to the learning log and,
// when a task is referenced, moves it out of or into the spam pile.
func (s *ClassifierService) RecordDecision(ctx context.Context, text string, isSpam bool, brand *string, source string, taskID *uint) error {
	if err := s.engine.RecordDecision(ctx, text, isSpam, brand, source); err != nil {
		return err
	}

	if taskID != nil {
		status := models.TaskPending
		if isSpam {
			status = models.TaskSpamArchived
		}
		if err := s.db.WithContext(ctx).Model(&models.Task{}).
			Where("id = ?", *taskID).
			Update("status", status).Error; err != nil {
			return err
		}
	}
	return nil
}

// RemoveDecision deletes matching learning records, reporting the count.
func (s *ClassifierService) RemoveDecision(ctx context.Context, text string, isSpam bool, brand *string) (int64, error) {
	return s.engine.RemoveDecision(ctx, text, isSpam, brand)
}

// ReviewQueue lists tasks parked for human spam review, worst first.
func (s *ClassifierService) ReviewQueue(ctx context.Context, limit int) ([]models.Task, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var tasks []models.Task
	err := s.db.WithContext(ctx).
		Where("status = ?", models.TaskSpamReview).
		Order("spam_score DESC").
		Limit(limit).
		Find(&tasks).Error
	return tasks, err
}

func (s *ClassifierService) applyResult(ctx context.Context, task *models.Task, res spamcheck.Result) error {
	score := res.Score
	task.SpamScore = &score
	task.SpamTier = string(res.Tier)
	task.SpamPatterns = strings.Join(res.Patterns, ", ")

	// Only pending tasks change status on classification; anything an
	// agent has already touched keeps its state.
	if task.Status == models.TaskPending || task.Status == "" {
		switch res.Tier {
		case spamcheck.TierLikelySpam:
			if s.autoArchive {
				task.Status = models.TaskSpamArchived
			} else {
				task.Status = models.TaskSpamReview
			}
		case spamcheck.TierSuspicious:
			task.Status = models.TaskSpamReview
		}
	}

	if err := s.db.WithContext(ctx).Save(task).Error; err != nil {
		return err
	}

	return s.writeRuleMatches(ctx, task.ID, res.Patterns)
}

// writeRuleMatches persists the task-to-rule audit linkage for every
// pattern that hit. Scoring never reads these rows back.
func (s *ClassifierService) writeRuleMatches(ctx context.Context, taskID uint, patterns []string) error {
	if len(patterns) == 0 {
		return nil
	}

	var rules []models.SpamRule
	if err := s.db.WithContext(ctx).Where("pattern_norm IN ?", patterns).Find(&rules).Error; err != nil {
		return err
	}

	for _, r := range rules {
		match := models.TaskRuleMatch{TaskID: taskID, RuleID: r.ID, Pattern: r.PatternNorm}
		if err := s.db.WithContext(ctx).Create(&match).Error; err != nil {
			return err
		}
	}
	return nil
}
