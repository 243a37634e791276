package handlers

import (
	"strconv"

	"github.com/carewise/carehub/internal/config"
	"github.com/carewise/carehub/internal/models"
	"github.com/carewise/carehub/internal/services"
	"github.com/carewise/carehub/internal/spamcheck"
	"github.com/carewise/carehub/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SpamHandler struct {
	classifier *services.ClassifierService
	advisor    *services.AdvisorService
}

func NewSpamHandler(db *gorm.DB, cfg *config.Config) *SpamHandler {
	return &SpamHandler{
		classifier: services.NewClassifierService(db, &cfg.Classifier),
		advisor:    services.NewAdvisorService(&cfg.OpenAI),
	}
}

type classifyRequest struct {
	Text          string `json:"text"`
	Brand         string `json:"brand"`
	SecondOpinion bool   `json:"second_opinion"`
}

type classifyResponse struct {
	spamcheck.Result
	Opinion *services.Opinion `json:"opinion,omitempty"`
}

// Classify scores one message
// POST /api/spam/classify
func (h *SpamHandler) Classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result := h.classifier.Classify(c.Request.Context(), req.Text, req.Brand)
	resp := classifyResponse{Result: result}

	// A second opinion is only worth the round trip on borderline
	// messages.
	if req.SecondOpinion && result.Tier == spamcheck.TierSuspicious && h.advisor.Enabled() {
		if op, err := h.advisor.SecondOpinion(c.Request.Context(), req.Text, &result); err == nil {
			resp.Opinion = op
		}
	}

	response.Success(c, resp)
}

type classifyBatchRequest struct {
	Items []spamcheck.Item `json:"items" binding:"required"`
}

// ClassifyBatch scores many messages against one corpus snapshot
// POST /api/spam/classify-batch
func (h *SpamHandler) ClassifyBatch(c *gin.Context) {
	var req classifyBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	results := h.classifier.ClassifyBatch(c.Request.Context(), req.Items)
	response.Success(c, results)
}

// ReviewQueue lists tasks held for human spam review, worst first
// GET /api/spam/review-queue
func (h *SpamHandler) ReviewQueue(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	tasks, err := h.classifier.ReviewQueue(c.Request.Context(), limit)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, tasks)
}

type decisionRequest struct {
	Text   string  `json:"text" binding:"required"`
	IsSpam bool    `json:"is_spam"`
	Brand  *string `json:"brand"`
	TaskID *uint   `json:"task_id"`
}

// RecordDecision stores a moderator verdict for future classification
// POST /api/spam/decisions
func (h *SpamHandler) RecordDecision(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	err := h.classifier.RecordDecision(c.Request.Context(), req.Text, req.IsSpam, req.Brand, models.DecisionSourceManual, req.TaskID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Created(c, gin.H{"message": "decision recorded"})
}

// RemoveDecision deletes matching moderator verdicts
// DELETE /api/spam/decisions
func (h *SpamHandler) RemoveDecision(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	removed, err := h.classifier.RemoveDecision(c.Request.Context(), req.Text, req.IsSpam, req.Brand)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"removed": removed})
}

// Sweep classifies every pending task in a queue in one pass
// POST /api/spam/sweep/:queue
func (h *SpamHandler) Sweep(c *gin.Context) {
	queue := c.Param("queue")
	if !models.ValidQueue(queue) {
		response.BadRequest(c, "unknown queue")
		return
	}

	result, err := h.classifier.SweepQueue(c.Request.Context(), queue)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, result)
}
