package services

import (
	"context"
	"errors"
	"time"

	"github.com/carewise/carehub/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrInvalidQueue is returned for an unknown work queue name.
	ErrInvalidQueue = errors.New("unknown work queue")
	// ErrInvalidAssignee is returned when the target user cannot take work.
	ErrInvalidAssignee = errors.New("assignee is not an active agent")
	// ErrTaskClosed is returned when mutating a completed or archived task.
	ErrTaskClosed = errors.New("task is already closed")
)

// TaskService owns the task lifecycle: intake, assignment, completion,
// and requeueing.
type TaskService struct {
	db *gorm.DB
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{db: db}
}

// TaskListRequest filters and paginates task listings.
type TaskListRequest struct {
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
	Queue        string `form:"queue"`
	Status       string `form:"status"`
	Brand        string `form:"brand"`
	AssignedToID *uint  `form:"assigned_to_id"`
	Search       string `form:"search"`
}

// TaskListResponse is a page of tasks.
type TaskListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Items    []models.Task `json:"items"`
}

func (s *TaskService) List(ctx context.Context, req *TaskListRequest) (*TaskListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 || req.PageSize > 100 {
		req.PageSize = 20
	}

	q := s.db.WithContext(ctx).Model(&models.Task{})
	if req.Queue != "" {
		q = q.Where("queue = ?", req.Queue)
	}
	if req.Status != "" {
		q = q.Where("status = ?", req.Status)
	}
	if req.Brand != "" {
		q = q.Where("brand = ?", req.Brand)
	}
	if req.AssignedToID != nil {
		q = q.Where("assigned_to_id = ?", *req.AssignedToID)
	}
	if req.Search != "" {
		like := "%" + req.Search + "%"
		q = q.Where("text LIKE ? OR subject LIKE ? OR from_address LIKE ? OR order_number LIKE ?",
			like, like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var tasks []models.Task
	err := q.Preload("AssignedTo").
		Order("priority DESC, created_at ASC").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	return &TaskListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    tasks,
	}, nil
}

func (s *TaskService) GetByID(ctx context.Context, id uint) (*models.Task, error) {
	var task models.Task
	if err := s.db.WithContext(ctx).Preload("AssignedTo").First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Create validates the queue, stamps a public reference, and stores the
// task in pending state.
func (s *TaskService) Create(ctx context.Context, task *models.Task) error {
	if !models.ValidQueue(task.Queue) {
		return ErrInvalidQueue
	}
	if task.Reference == "" {
		task.Reference = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = models.TaskPending
	}
	return s.db.WithContext(ctx).Create(task).Error
}

func (s *TaskService) Update(ctx context.Context, id uint, updates map[string]interface{}) (*models.Task, error) {
	var task models.Task
	if err := s.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&task).Updates(updates).Error; err != nil {
		return nil, err
	}
	s.db.WithContext(ctx).First(&task, id)
	return &task, nil
}

func (s *TaskService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.Task{}, id).Error
}

// Assign hands a task to an active agent or manager.
func (s *TaskService) Assign(ctx context.Context, taskID, userID uint) (*models.Task, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, ErrInvalidAssignee
	}
	if !user.IsActive {
		return nil, ErrInvalidAssignee
	}

	var task models.Task
	if err := s.db.WithContext(ctx).First(&task, taskID).Error; err != nil {
		return nil, err
	}
	if task.Status == models.TaskCompleted || task.Status == models.TaskSpamArchived {
		return nil, ErrTaskClosed
	}

	now := time.Now()
	updates := map[string]interface{}{
		"assigned_to_id": userID,
		"assigned_at":    now,
		"status":         models.TaskAssigned,
	}
	if err := s.db.WithContext(ctx).Model(&task).Updates(updates).Error; err != nil {
		return nil, err
	}
	s.db.WithContext(ctx).Preload("AssignedTo").First(&task, taskID)
	return &task, nil
}

// Complete closes a task.
func (s *TaskService) Complete(ctx context.Context, taskID uint) (*models.Task, error) {
	var task models.Task
	if err := s.db.WithContext(ctx).First(&task, taskID).Error; err != nil {
		return nil, err
	}
	if task.Status == models.TaskCompleted {
		return &task, nil
	}
	if task.Status == models.TaskSpamArchived {
		return nil, ErrTaskClosed
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.TaskCompleted,
		"completed_at": now,
	}
	if err := s.db.WithContext(ctx).Model(&task).Updates(updates).Error; err != nil {
		return nil, err
	}
	task.Status = models.TaskCompleted
	task.CompletedAt = &now
	return &task, nil
}

// Requeue returns a task to the pending pool, clearing its assignment.
func (s *TaskService) Requeue(ctx context.Context, taskID uint) (*models.Task, error) {
	var task models.Task
	if err := s.db.WithContext(ctx).First(&task, taskID).Error; err != nil {
		return nil, err
	}
	if task.Status == models.TaskCompleted || task.Status == models.TaskSpamArchived {
		return nil, ErrTaskClosed
	}

	updates := map[string]interface{}{
		"status":         models.TaskPending,
		"assigned_to_id": nil,
		"assigned_at":    nil,
	}
	if err := s.db.WithContext(ctx).Model(&task).Updates(updates).Error; err != nil {
		return nil, err
	}
	s.db.WithContext(ctx).First(&task, taskID)
	return &task, nil
}
