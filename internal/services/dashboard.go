package services

import (
	"time"

	"github.com/carewise/carehub/internal/models"
	"gorm.io/gorm"
)

type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

type DashboardStatsRequest struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

type DashboardStats struct {
	OpenTasks      int64   `json:"open_tasks"`
	CompletedTasks int64   `json:"completed_tasks"`
	EscalatedTasks int64   `json:"escalated_tasks"`
	SpamCaught     int64   `json:"spam_caught"`
	AwaitingReview int64   `json:"awaiting_review"`
	AvgSpamScore   float64 `json:"avg_spam_score"`
}

type QueueStats struct {
	Queue     string `json:"queue"`
	Pending   int64  `json:"pending"`
	Assigned  int64  `json:"assigned"`
	Completed int64  `json:"completed"`
}

type AgentStats struct {
	UserID    uint   `json:"user_id"`
	Nickname  string `json:"nickname"`
	Assigned  int64  `json:"assigned"`
	Completed int64  `json:"completed"`
}

type DashboardResponse struct {
	Stats      DashboardStats `json:"stats"`
	QueueStats []QueueStats   `json:"queue_stats"`
	AgentStats []AgentStats   `json:"agent_stats"`
}

func (s *DashboardService) GetStats(req *DashboardStatsRequest) (*DashboardResponse, error) {
	startDate, endDate := statsWindow(req)

	var stats DashboardStats

	s.db.Model(&models.Task{}).
		Where("created_at BETWEEN ? AND ? AND status IN ?", startDate, endDate,
			[]string{models.TaskPending, models.TaskAssigned, models.TaskInProgress}).
		Count(&stats.OpenTasks)

	s.db.Model(&models.Task{}).
		Where("completed_at BETWEEN ? AND ?", startDate, endDate).
		Count(&stats.CompletedTasks)

	s.db.Model(&models.Task{}).
		Where("escalated_at BETWEEN ? AND ?", startDate, endDate).
		Count(&stats.EscalatedTasks)

	s.db.Model(&models.Task{}).
		Where("created_at BETWEEN ? AND ? AND status = ?", startDate, endDate, models.TaskSpamArchived).
		Count(&stats.SpamCaught)

	s.db.Model(&models.Task{}).
		Where("status = ?", models.TaskSpamReview).
		Count(&stats.AwaitingReview)

	s.db.Model(&models.Task{}).
		Where("created_at BETWEEN ? AND ? AND spam_score IS NOT NULL", startDate, endDate).
		Select("COALESCE(AVG(spam_score), 0)").
		Scan(&stats.AvgSpamScore)

	queueStats := make([]QueueStats, 0, len(models.Queues))
	for _, queue := range models.Queues {
		qs := QueueStats{Queue: queue}
		base := s.db.Model(&models.Task{}).Where("queue = ?", queue)
		base.Session(&gorm.Session{}).
			Where("status = ?", models.TaskPending).Count(&qs.Pending)
		base.Session(&gorm.Session{}).
			Where("status IN ?", []string{models.TaskAssigned, models.TaskInProgress}).Count(&qs.Assigned)
		base.Session(&gorm.Session{}).
			Where("completed_at BETWEEN ? AND ?", startDate, endDate).Count(&qs.Completed)
		queueStats = append(queueStats, qs)
	}

	var agentStats []AgentStats
	s.db.Model(&models.Task{}).
		Select("assigned_to_id as user_id, COUNT(*) as assigned, COUNT(completed_at) as completed").
		Where("assigned_at BETWEEN ? AND ? AND assigned_to_id IS NOT NULL", startDate, endDate).
		Group("assigned_to_id").
		Order("completed DESC").
		Limit(10).
		Scan(&agentStats)

	for i := range agentStats {
		var user models.User
		if err := s.db.First(&user, agentStats[i].UserID).Error; err == nil {
			agentStats[i].Nickname = user.Nickname
		}
	}

	return &DashboardResponse{
		Stats:      stats,
		QueueStats: queueStats,
		AgentStats: agentStats,
	}, nil
}

func statsWindow(req *DashboardStatsRequest) (time.Time, time.Time) {
	startDate := time.Now().AddDate(0, 0, -7)
	endDate := time.Now()

	if req.StartDate != "" {
		if t, err := time.Parse("2006-01-02", req.StartDate); err == nil {
			startDate = t
		}
	}
	if req.EndDate != "" {
		if t, err := time.Parse("2006-01-02", req.EndDate); err == nil {
			endDate = t.Add(24*time.Hour - time.Second)
		}
	}
	return startDate, endDate
}
