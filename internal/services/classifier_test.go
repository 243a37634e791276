package services

import (
	"context"
	"testing"

	"github.com/carewise/carehub/internal/config"
	"github.com/carewise/carehub/internal/models"
	"github.com/carewise/carehub/internal/spamcheck"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newClassifierTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	err = db.AutoMigrate(&models.User{}, &models.Task{}, &models.SpamRule{}, &models.SpamDecision{}, &models.TaskRuleMatch{})
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedRule(t *testing.T, db *gorm.DB, pattern string) models.SpamRule {
	t.Helper()
	rule := models.SpamRule{
		Pattern:     pattern,
		PatternNorm: spamcheck.Normalize(pattern),
		Mode:        string(spamcheck.MatchContains),
		Enabled:     true,
	}
	if err := db.Create(&rule).Error; err != nil {
		t.Fatalf("failed to seed rule %q: %v", pattern, err)
	}
	return rule
}

func seedTask(t *testing.T, db *gorm.DB, reference, status, text string) models.Task {
	t.Helper()
	task := models.Task{
		Reference: reference,
		Queue:     models.QueueTextClub,
		Status:    status,
		Text:      text,
	}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("failed to seed task %q: %v", reference, err)
	}
	return task
}

func reloadTask(t *testing.T, db *gorm.DB, id uint) models.Task {
	t.Helper()
	var task models.Task
	if err := db.First(&task, id).Error; err != nil {
		t.Fatalf("failed to reload task %d: %v", id, err)
	}
	return task
}

func TestClassifyTask_ArchivesLikelySpam(t *testing.T) {
	db := newClassifierTestDB(t)
	rule := seedRule(t, db, "free gift")
	task := seedTask(t, db, "task-spam-1", models.TaskPending, "Claim your FREE GIFT now!!!")
	svc := NewClassifierService(db, nil)

	res, err := svc.ClassifyTask(context.Background(), &task)
	if err != nil {
		t.Fatalf("ClassifyTask returned error: %v", err)
	}
	if res.Tier != spamcheck.TierLikelySpam {
		t.Fatalf("expected tier %q, got %q", spamcheck.TierLikelySpam, res.Tier)
	}

	got := reloadTask(t, db, task.ID)
	if got.Status != models.TaskSpamArchived {
		t.Errorf("expected status %q, got %q", models.TaskSpamArchived, got.Status)
	}
	if got.SpamScore == nil || *got.SpamScore < 70 {
		t.Errorf("expected persisted spam score >= 70, got %v", got.SpamScore)
	}
	if got.SpamTier != string(spamcheck.TierLikelySpam) {
		t.Errorf("expected persisted tier %q, got %q", spamcheck.TierLikelySpam, got.SpamTier)
	}

	var matches int64
	db.Model(&models.TaskRuleMatch{}).Where("task_id = ? AND rule_id = ?", task.ID, rule.ID).Count(&matches)
	if matches != 1 {
		t.Errorf("expected 1 rule match row, got %d", matches)
	}
}

func TestClassifyTask_ReviewWhenAutoArchiveOff(t *testing.T) {
	db := newClassifierTestDB(t)
	seedRule(t, db, "free gift")
	task := seedTask(t, db, "task-spam-2", models.TaskPending, "Claim your free gift now")
	svc := NewClassifierService(db, &config.ClassifierConfig{AutoArchive: false})

	if _, err := svc.ClassifyTask(context.Background(), &task); err != nil {
		t.Fatalf("ClassifyTask returned error: %v", err)
	}

	got := reloadTask(t, db, task.ID)
	if got.Status != models.TaskSpamReview {
		t.Errorf("expected status %q with auto-archive off, got %q", models.TaskSpamReview, got.Status)
	}
}

func TestClassifyTask_SuspiciousGoesToReview(t *testing.T) {
	db := newClassifierTestDB(t)
	seedRule(t, db, "free gift")
	task := seedTask(t, db, "task-sus-1", models.TaskPending, "Claim your free gift now")
	// A rule weight below the spam floor lands matches in the suspicious band.
	svc := NewClassifierService(db, &config.ClassifierConfig{RuleMatchWeight: 50, AutoArchive: true})

	res, err := svc.ClassifyTask(context.Background(), &task)
	if err != nil {
		t.Fatalf("ClassifyTask returned error: %v", err)
	}
	if res.Tier != spamcheck.TierSuspicious {
		t.Fatalf("expected tier %q, got %q", spamcheck.TierSuspicious, res.Tier)
	}

	got := reloadTask(t, db, task.ID)
	if got.Status != models.TaskSpamReview {
		t.Errorf("expected suspicious task routed to %q, got %q", models.TaskSpamReview, got.Status)
	}
}

func TestClassifyTask_KeepsTouchedTaskStatus(t *testing.T) {
	db := newClassifierTestDB(t)
	seedRule(t, db, "free gift")
	task := seedTask(t, db, "task-touched-1", models.TaskAssigned, "Claim your free gift now")
	svc := NewClassifierService(db, nil)

	if _, err := svc.ClassifyTask(context.Background(), &task); err != nil {
		t.Fatalf("ClassifyTask returned error: %v", err)
	}

	got := reloadTask(t, db, task.ID)
	if got.Status != models.TaskAssigned {
		t.Errorf("assigned task should keep its status, got %q", got.Status)
	}
	if got.SpamScore == nil || got.SpamTier != string(spamcheck.TierLikelySpam) {
		t.Errorf("score snapshot should still be recorded, got score=%v tier=%q", got.SpamScore, got.SpamTier)
	}
}

func TestRecordDecision_RestoresTask(t *testing.T) {
	db := newClassifierTestDB(t)
	task := seedTask(t, db, "task-restore-1", models.TaskSpamArchived, "where is my order 12345")
	svc := NewClassifierService(db, nil)

	err := svc.RecordDecision(context.Background(), task.Text, false, nil, models.DecisionSourceRestoreWhitelist, &task.ID)
	if err != nil {
		t.Fatalf("RecordDecision returned error: %v", err)
	}

	got := reloadTask(t, db, task.ID)
	if got.Status != models.TaskPending {
		t.Errorf("restored task should be %q, got %q", models.TaskPending, got.Status)
	}

	var decision models.SpamDecision
	if err := db.Where("text = ?", task.Text).First(&decision).Error; err != nil {
		t.Fatalf("expected a learning record, got error: %v", err)
	}
	if decision.IsSpam {
		t.Error("restore decision should be recorded as not spam")
	}
	if decision.Source != models.DecisionSourceRestoreWhitelist {
		t.Errorf("expected source %q, got %q", models.DecisionSourceRestoreWhitelist, decision.Source)
	}
}

func TestRecordDecision_ArchivesConfirmedSpam(t *testing.T) {
	db := newClassifierTestDB(t)
	task := seedTask(t, db, "task-confirm-1", models.TaskSpamReview, "win a free cruise today")
	svc := NewClassifierService(db, nil)

	err := svc.RecordDecision(context.Background(), task.Text, true, nil, models.DecisionSourceManual, &task.ID)
	if err != nil {
		t.Fatalf("RecordDecision returned error: %v", err)
	}

	got := reloadTask(t, db, task.ID)
	if got.Status != models.TaskSpamArchived {
		t.Errorf("confirmed spam task should be %q, got %q", models.TaskSpamArchived, got.Status)
	}
}

func TestSweepQueue_RoutesPendingTasks(t *testing.T) {
	db := newClassifierTestDB(t)
	seedRule(t, db, "free gift")
	spam := seedTask(t, db, "task-sweep-1", models.TaskPending, "Claim your free gift now")
	clean := seedTask(t, db, "task-sweep-2", models.TaskPending, "where is my order 12345")
	touched := seedTask(t, db, "task-sweep-3", models.TaskAssigned, "Claim your free gift now")
	svc := NewClassifierService(db, nil)

	sweep, err := svc.SweepQueue(context.Background(), models.QueueTextClub)
	if err != nil {
		t.Fatalf("SweepQueue returned error: %v", err)
	}
	if sweep.Scanned != 2 {
		t.Errorf("expected 2 pending tasks scanned, got %d", sweep.Scanned)
	}
	if sweep.Archived != 1 {
		t.Errorf("expected 1 task archived, got %d", sweep.Archived)
	}
	if sweep.ForReview != 0 {
		t.Errorf("expected 0 tasks for review, got %d", sweep.ForReview)
	}

	if got := reloadTask(t, db, spam.ID); got.Status != models.TaskSpamArchived {
		t.Errorf("spam task should be archived, got %q", got.Status)
	}
	if got := reloadTask(t, db, clean.ID); got.Status != models.TaskPending {
		t.Errorf("clean task should stay pending, got %q", got.Status)
	}
	if got := reloadTask(t, db, touched.ID); got.Status != models.TaskAssigned {
		t.Errorf("assigned task should be untouched by the sweep, got %q", got.Status)
	}
}
