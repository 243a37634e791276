package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/carewise/carehub/internal/config"
	"github.com/carewise/carehub/internal/models"
	"github.com/carewise/carehub/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrBadIngestToken = errors.New("invalid ingest token")
	ErrEmptyIngest    = errors.New("ingest payload has no messages")
)

// IngestService accepts batches of inbound messages from upstream
// systems (SMS gateway, mail pipeline, review platform), stores them
// as tasks, and queues them for classification.
type IngestService struct {
	db    *gorm.DB
	cfg   *config.IngestConfig
	queue JobQueue
}

func NewIngestService(db *gorm.DB, cfg *config.IngestConfig, queue JobQueue) *IngestService {
	return &IngestService{db: db, cfg: cfg, queue: queue}
}

type IngestMessage struct {
	Queue       string `json:"queue"`
	Brand       string `json:"brand"`
	Text        string `json:"text"`
	FromAddress string `json:"from_address"`
	Subject     string `json:"subject"`
	OrderNumber string `json:"order_number"`
	Priority    int    `json:"priority"`
}

type IngestRequest struct {
	Messages []IngestMessage `json:"messages" binding:"required"`
}

type IngestResult struct {
	Accepted   int      `json:"accepted"`
	Rejected   int      `json:"rejected"`
	References []string `json:"references"`
}

// VerifyToken checks an intake credential in constant time.
func (s *IngestService) VerifyToken(token string) bool {
	if s.cfg.Token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.Token)) == 1
}

// Ingest stores the batch and enqueues a classification job per task.
// Messages naming an unknown queue are rejected individually; the rest
// of the batch still lands.
func (s *IngestService) Ingest(ctx context.Context, req *IngestRequest) (*IngestResult, error) {
	if len(req.Messages) == 0 {
		return nil, ErrEmptyIngest
	}

	result := &IngestResult{References: make([]string, 0, len(req.Messages))}

	for _, msg := range req.Messages {
		if !models.ValidQueue(msg.Queue) || (strings.TrimSpace(msg.Text) == "" && msg.Subject == "") {
			result.Rejected++
			continue
		}

		task := models.Task{
			Reference:   uuid.NewString(),
			Queue:       msg.Queue,
			Brand:       msg.Brand,
			Status:      models.TaskPending,
			Priority:    msg.Priority,
			Text:        msg.Text,
			FromAddress: msg.FromAddress,
			Subject:     msg.Subject,
			OrderNumber: msg.OrderNumber,
		}
		if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
			logger.Errorf("[Ingest] failed to store task: %v", err)
			result.Rejected++
			continue
		}

		result.Accepted++
		result.References = append(result.References, task.Reference)

		if s.queue != nil {
			if err := s.queue.Enqueue(&ClassifyJob{TaskID: task.ID, Queue: task.Queue}); err != nil {
				logger.Warnf("[Ingest] failed to enqueue classification for task %d: %v", task.ID, err)
			}
		}
	}

	logger.Infof("[Ingest] accepted=%d rejected=%d", result.Accepted, result.Rejected)
	return result, nil
}
