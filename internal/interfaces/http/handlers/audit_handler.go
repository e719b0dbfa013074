// Package handlers contains the gin HTTP handlers of the evaluation API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crowdlens/crowdlens/internal/application/dto"
	"github.com/crowdlens/crowdlens/internal/application/service"
	"github.com/crowdlens/crowdlens/internal/domain/models"
	"github.com/crowdlens/crowdlens/pkg/logger"
	"github.com/crowdlens/crowdlens/pkg/utils"
)

// AuditHandler exposes the follower evaluation endpoints.
type AuditHandler struct {
	auditService service.AuditAppService
	logger       logger.Logger
}

// NewAuditHandler creates the audit handler.
func NewAuditHandler(auditService service.AuditAppService, log logger.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       log.WithComponent("AuditHandler"),
	}
}

// EvaluateFollower evaluates a single follower.
// POST /api/v1/audit/evaluate
func (h *AuditHandler) EvaluateFollower(c *gin.Context) {
	var req dto.FollowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn(c.Request.Context(), "invalid evaluate request", logger.Err(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse(err))
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		h.logger.Warn(c.Request.Context(), "evaluate request validation failed", logger.Err(err))
		dto.SendError(c, err)
		return
	}

	record, err := h.auditService.EvaluateFollower(c.Request.Context(), req.ToModel())
	if err != nil {
		dto.SendError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromAuditRecord(record))
}

// EvaluateBatch evaluates a batch of followers. Per-follower failures are
// reported in the response body, not as an HTTP error.
// POST /api/v1/audit/batch
func (h *AuditHandler) EvaluateBatch(c *gin.Context) {
	var req dto.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn(c.Request.Context(), "invalid batch request", logger.Err(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse(err))
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		h.logger.Warn(c.Request.Context(), "batch request validation failed", logger.Err(err))
		dto.SendError(c, err)
		return
	}

	followers := make([]*models.FollowerRecord, len(req.Followers))
	for i := range req.Followers {
		followers[i] = req.Followers[i].ToModel()
	}

	outcomes := h.auditService.EvaluateBatch(c.Request.Context(), followers)

	resp := dto.BatchResponse{
		Results: make([]dto.BatchItemResponse, len(outcomes)),
		Summary: dto.BatchSummary{
			Total:   len(outcomes),
			Actions: make(map[string]int),
		},
	}
	for i, outcome := range outcomes {
		item := dto.BatchItemResponse{Username: outcome.Username}
		if outcome.Err != nil {
			item.Error = outcome.Err.Error()
			resp.Summary.Failed++
		} else {
			item.Result = dto.FromAuditRecord(outcome.Record)
			resp.Summary.Evaluated++
			resp.Summary.Actions[string(outcome.Record.Action)]++
		}
		resp.Results[i] = item
	}

	c.JSON(http.StatusOK, resp)
}
