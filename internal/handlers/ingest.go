package handlers

import (
	"errors"
	"strings"

	"github.com/carewise/carehub/internal/config"
	"github.com/carewise/carehub/internal/models"
	"github.com/carewise/carehub/internal/services"
	"github.com/carewise/carehub/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type IngestHandler struct {
	ingestService *services.IngestService
}

func NewIngestHandler(db *gorm.DB, cfg *config.Config, queue services.JobQueue) *IngestHandler {
	return &IngestHandler{
		ingestService: services.NewIngestService(db, &cfg.Ingest, queue),
	}
}

// Ingest accepts a batch of inbound messages for one queue. Upstream
// systems authenticate with a shared token rather than a user JWT.
// POST /ingest/:queue
func (h *IngestHandler) Ingest(c *gin.Context) {
	token := c.GetHeader("X-Ingest-Token")
	if token == "" {
		// Some gateways can only set the Authorization header.
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if !h.ingestService.VerifyToken(token) {
		response.Unauthorized(c, "invalid ingest token")
		return
	}

	queue := c.Param("queue")
	if !models.ValidQueue(queue) {
		response.BadRequest(c, "unknown queue")
		return
	}

	var req services.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	for i := range req.Messages {
		req.Messages[i].Queue = queue
	}

	result, err := h.ingestService.Ingest(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrEmptyIngest) {
			response.BadRequest(c, err.Error())
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Created(c, result)
}
