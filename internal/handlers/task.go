package handlers

import (
	"errors"
	"strconv"

	"github.com/carewise/carehub/internal/middleware"
	"github.com/carewise/carehub/internal/models"
	"github.com/carewise/carehub/internal/services"
	"github.com/carewise/carehub/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(db *gorm.DB) *TaskHandler {
	return &TaskHandler{taskService: services.NewTaskService(db)}
}

// List returns paginated, filtered tasks
// GET /api/tasks
func (h *TaskHandler) List(c *gin.Context) {
	var req services.TaskListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.taskService.List(c.Request.Context(), &req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, resp)
}

// GetByID returns a task by ID
// GET /api/tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return
	}

	task, err := h.taskService.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		response.NotFound(c, "task not found")
		return
	}

	response.Success(c, task)
}

type createTaskRequest struct {
	Queue       string `json:"queue" binding:"required"`
	Brand       string `json:"brand"`
	Text        string `json:"text"`
	FromAddress string `json:"from_address"`
	Subject     string `json:"subject"`
	OrderNumber string `json:"order_number"`
	Priority    int    `json:"priority"`
}

// Create creates a task by hand (most arrive via ingest)
// POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task := models.Task{
		Queue:       req.Queue,
		Brand:       req.Brand,
		Text:        req.Text,
		FromAddress: req.FromAddress,
		Subject:     req.Subject,
		OrderNumber: req.OrderNumber,
		Priority:    req.Priority,
	}
	if err := h.taskService.Create(c.Request.Context(), &task); err != nil {
		if errors.Is(err, services.ErrInvalidQueue) {
			response.BadRequest(c, err.Error())
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Created(c, task)
}

// Update applies partial edits to a task
// PUT /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), uint(id), updates)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, task)
}

// Delete removes a task
// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), uint(id)); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "task deleted"})
}

// Assign gives a task to an agent; with no body it claims for the caller
// POST /api/tasks/:id/assign
func (h *TaskHandler) Assign(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return
	}

	var req struct {
		UserID uint `json:"user_id"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.UserID == 0 {
		req.UserID = middleware.GetUserID(c)
	}

	task, err := h.taskService.Assign(c.Request.Context(), uint(id), req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAssignee), errors.Is(err, services.ErrTaskClosed):
			response.BadRequest(c, err.Error())
		default:
			response.ServerError(c, err.Error())
		}
		return
	}

	response.Success(c, task)
}

// Complete marks a task done
// POST /api/tasks/:id/complete
func (h *TaskHandler) Complete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return
	}

	task, err := h.taskService.Complete(c.Request.Context(), uint(id))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, task)
}

// Requeue returns a task to pending and clears its assignment
// POST /api/tasks/:id/requeue
func (h *TaskHandler) Requeue(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return
	}

	task, err := h.taskService.Requeue(c.Request.Context(), uint(id))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, task)
}
