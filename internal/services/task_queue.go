package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/carewise/carehub/internal/config"
	"github.com/carewise/carehub/pkg/logger"
	"github.com/hibiken/asynq"
)

const (
	JobTypeClassify = "classify:task"
)

// ClassifyJob asks a worker to score one stored task.
type ClassifyJob struct {
	TaskID uint   `json:"task_id"`
	Queue  string `json:"queue"`
}

// JobQueue defines the interface for background classification work.
type JobQueue interface {
	// Enqueue adds a job to the queue
	Enqueue(job *ClassifyJob) error
	// IsAsync returns true if the queue processes jobs asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

var (
	globalJobQueue JobQueue
	jobQueueOnce   sync.Once
)

// InitJobQueue initializes the global job queue based on config.
func InitJobQueue(cfg *config.Config) JobQueue {
	jobQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncQueue(&cfg.Redis)
			if err != nil {
				logger.Infof("[JobQueue] Redis unavailable, falling back to sync mode: %v", err)
				globalJobQueue = NewSyncQueue()
			} else {
				logger.Infof("[JobQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalJobQueue = queue
			}
		} else {
			logger.Infof("[JobQueue] Sync queue initialized (Redis disabled)")
			globalJobQueue = NewSyncQueue()
		}
	})
	return globalJobQueue
}

// GetJobQueue returns the global job queue instance.
func GetJobQueue() JobQueue {
	return globalJobQueue
}

// AsyncQueue implements JobQueue using asynq (Redis-based).
type AsyncQueue struct {
	client *asynq.Client
}

func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection before committing to async mode.
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

func (q *AsyncQueue) Enqueue(job *ClassifyJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}

	t := asynq.NewTask(JobTypeClassify, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Infof("[AsyncQueue] Job enqueued: id=%s, task_id=%d", info.ID, job.TaskID)
	return nil
}

func (q *AsyncQueue) IsAsync() bool {
	return true
}

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue implements JobQueue with in-process execution (no Redis).
type SyncQueue struct {
	processor func(context.Context, *ClassifyJob) error
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// SetProcessor sets the function to process jobs synchronously.
func (q *SyncQueue) SetProcessor(processor func(context.Context, *ClassifyJob) error) {
	q.processor = processor
}

// Enqueue runs the job in a goroutine so intake responses are not
// blocked on classification.
func (q *SyncQueue) Enqueue(job *ClassifyJob) error {
	if q.processor == nil {
		logger.Infof("[SyncQueue] Warning: no processor set, job will be dropped")
		return nil
	}

	go func() {
		ctx := context.Background()
		if err := q.processor(ctx, job); err != nil {
			logger.Infof("[SyncQueue] Job processing failed: %v", err)
		}
	}()

	return nil
}

func (q *SyncQueue) IsAsync() bool {
	return false
}

func (q *SyncQueue) Close() error {
	return nil
}
