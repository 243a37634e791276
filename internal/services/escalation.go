package services

import (
	"time"

	"github.com/carewise/carehub/internal/config"
	"github.com/carewise/carehub/internal/models"
	"github.com/carewise/carehub/pkg/logger"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/ca"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/us"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// EscalationService periodically escalates tasks that have sat pending or
// assigned past their SLA. Deadlines count business days only, so a text
// arriving Friday evening does not escalate over the weekend.
type EscalationService struct {
	db        *gorm.DB
	cfg       config.EscalationConfig
	calendar  *cal.BusinessCalendar
	scheduler *cron.Cron
	entryID   cron.EntryID
}

func NewEscalationService(db *gorm.DB, cfg config.EscalationConfig) *EscalationService {
	return &EscalationService{
		db:       db,
		cfg:      cfg,
		calendar: businessCalendar(cfg.Region),
	}
}

func businessCalendar(region string) *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	switch region {
	case "GB":
		c.AddHoliday(gb.Holidays...)
	case "CA":
		c.AddHoliday(ca.Holidays...)
	default:
		c.AddHoliday(us.Holidays...)
	}
	return c
}

// StartScheduler begins the periodic sweep. No-op when disabled.
func (s *EscalationService) StartScheduler() {
	if !s.cfg.Enabled {
		logger.Info().Msg("escalation sweep disabled")
		return
	}

	expr := s.cfg.Cron
	if expr == "" {
		expr = "0 * * * *"
	}

	s.scheduler = cron.New()
	id, err := s.scheduler.AddFunc(expr, func() {
		if n, err := s.Sweep(); err != nil {
			logger.Error().Err(err).Msg("escalation sweep failed")
		} else if n > 0 {
			logger.Info().Int64("escalated", n).Msg("escalation sweep completed")
		}
	})
	if err != nil {
		logger.Error().Err(err).Str("cron", expr).Msg("invalid escalation cron expression")
		return
	}
	s.entryID = id
	s.scheduler.Start()
	logger.Info().Str("cron", expr).Int("business_days", s.businessDays()).Msg("escalation scheduler started")
}

// StopScheduler halts the sweep.
func (s *EscalationService) StopScheduler() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *EscalationService) businessDays() int {
	if s.cfg.BusinessDays <= 0 {
		return 2
	}
	return s.cfg.BusinessDays
}

// Deadline returns the escalation deadline for work created at t: the
// end of the Nth business day after it.
func (s *EscalationService) Deadline(t time.Time) time.Time {
	d := t
	remaining := s.businessDays()
	for remaining > 0 {
		d = d.AddDate(0, 0, 1)
		if s.calendar.IsWorkday(d) {
			remaining--
		}
	}
	return d
}

// Overdue reports whether work created at createdAt has blown its SLA as
// of now.
func (s *EscalationService) Overdue(createdAt, now time.Time) bool {
	return now.After(s.Deadline(createdAt))
}

// Sweep escalates every open unescalated task past its deadline and
// returns how many changed.
func (s *EscalationService) Sweep() (int64, error) {
	var tasks []models.Task
	err := s.db.
		Where("status IN ?", []string{models.TaskPending, models.TaskAssigned}).
		Find(&tasks).Error
	if err != nil {
		return 0, err
	}

	now := time.Now()
	var escalated int64
	for i := range tasks {
		if !s.Overdue(tasks[i].CreatedAt, now) {
			continue
		}
		updates := map[string]interface{}{
			"status":       models.TaskEscalated,
			"escalated_at": now,
		}
		if err := s.db.Model(&tasks[i]).Updates(updates).Error; err != nil {
			logger.Error().Err(err).Uint("task_id", tasks[i].ID).Msg("failed to escalate task")
			continue
		}
		escalated++
		LogWarning("escalation", "task_escalated", "task exceeded SLA", nil, "", "", map[string]interface{}{
			"task_id": tasks[i].ID,
			"queue":   tasks[i].Queue,
		})
	}
	return escalated, nil
}
