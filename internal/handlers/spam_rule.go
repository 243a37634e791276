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

type SpamRuleHandler struct {
	ruleService *services.SpamRuleService
}

func NewSpamRuleHandler(db *gorm.DB) *SpamRuleHandler {
	return &SpamRuleHandler{ruleService: services.NewSpamRuleService(db)}
}

// List returns phrase rules, optionally scoped to a brand
// GET /api/spam-rules
func (h *SpamRuleHandler) List(c *gin.Context) {
	var brand *string
	if b := c.Query("brand"); b != "" {
		brand = &b
	}
	includeDisabled := c.Query("include_disabled") == "true"

	rules, err := h.ruleService.List(c.Request.Context(), brand, includeDisabled)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, rules)
}

type createRuleRequest struct {
	Pattern string  `json:"pattern" binding:"required"`
	Mode    string  `json:"mode"`
	Brand   *string `json:"brand"`
}

// Create adds a phrase rule
// POST /api/spam-rules
func (h *SpamRuleHandler) Create(c *gin.Context) {
	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	rule := models.SpamRule{
		Pattern:   req.Pattern,
		Mode:      req.Mode,
		Brand:     req.Brand,
		Enabled:   true,
		CreatedBy: middleware.GetUserID(c),
	}
	if err := h.ruleService.Create(c.Request.Context(), &rule); err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateRule):
			response.Error(c, response.NewConflict(err.Error()))
		case errors.Is(err, services.ErrEmptyPattern):
			response.BadRequest(c, err.Error())
		default:
			response.ServerError(c, err.Error())
		}
		return
	}

	response.Created(c, rule)
}

// Update edits a phrase rule
// PUT /api/spam-rules/:id
func (h *SpamRuleHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid rule id")
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	rule, err := h.ruleService.Update(c.Request.Context(), uint(id), updates)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, rule)
}

// Toggle flips a rule between enabled and disabled
// POST /api/spam-rules/:id/toggle
func (h *SpamRuleHandler) Toggle(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid rule id")
		return
	}

	rule, err := h.ruleService.Toggle(c.Request.Context(), uint(id))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, rule)
}

// Delete removes a rule
// DELETE /api/spam-rules/:id
func (h *SpamRuleHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid rule id")
		return
	}

	if err := h.ruleService.Delete(c.Request.Context(), uint(id)); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "rule deleted"})
}

type testRuleRequest struct {
	Pattern string   `json:"pattern" binding:"required"`
	Mode    string   `json:"mode"`
	Samples []string `json:"samples" binding:"required"`
}

// TestRule dry-runs a rule against sample messages without saving it
// POST /api/spam-rules/test
func (h *SpamRuleHandler) TestRule(c *gin.Context) {
	var req testRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	matches := h.ruleService.TestRule(req.Pattern, req.Mode, req.Samples)
	response.Success(c, gin.H{"matches": matches})
}
