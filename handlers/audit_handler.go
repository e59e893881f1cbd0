package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"callaudit-backend/models"
	"callaudit-backend/service"
)

// AuditHandler handles HTTP requests for call audits.
type AuditHandler struct {
	auditService *service.AuditService
	dispatcher   *service.WebhookDispatcher
	judge        service.Judge
	log          zerolog.Logger
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(auditService *service.AuditService, dispatcher *service.WebhookDispatcher, judge service.Judge) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		dispatcher:   dispatcher,
		judge:        judge,
		log:          log.With().Str("component", "handler").Logger(),
	}
}

// AnalyzeAudio handles POST /api/v1/analyze-audio (webhook contract).
// The outcome is pushed to the configured callback; the caller only gets
// an acknowledgment. A missing callback URL fails the request before any
// audio work begins.
func (h *AuditHandler) AnalyzeAudio(c *gin.Context) {
	var req models.AuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": models.StatusError,
			"error":  err.Error(),
		})
		return
	}

	if !h.dispatcher.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{
			"sampleId": req.SampleID,
			"status":   models.StatusError,
			"error":    service.ErrWebhookNotConfigured.Error(),
		})
		return
	}

	outcome, err := h.auditService.Run(c.Request.Context(), req)
	if err != nil {
		h.log.Error().Err(err).Str("sampleId", req.SampleID).Msg("audit failed")
		failure := &models.AuditOutcome{
			SampleID: req.SampleID,
			Status:   models.StatusError,
			Error:    err.Error(),
		}
		h.pushDetached(c.Request.Context(), failure)
		c.JSON(failureStatus(err), failure)
		return
	}

	h.pushDetached(c.Request.Context(), outcome)
	c.JSON(http.StatusOK, gin.H{
		"message": "Audit completed and webhook sent",
	})
}

// AnalyzeAudioSync handles POST /api/v1/analyze-audio-sync (synchronous
// contract). The same payload shapes as the webhook contract, returned
// directly; no outbound callback.
func (h *AuditHandler) AnalyzeAudioSync(c *gin.Context) {
	var req models.AuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": models.StatusError,
			"error":  err.Error(),
		})
		return
	}

	outcome, err := h.auditService.Run(c.Request.Context(), req)
	if err != nil {
		h.log.Error().Err(err).Str("sampleId", req.SampleID).Msg("audit failed")
		c.JSON(failureStatus(err), &models.AuditOutcome{
			SampleID: req.SampleID,
			Status:   models.StatusError,
			Error:    err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// AnalyzeSingleRule handles POST /api/v1/analyze-single-rule: one rule
// judged against a caller-supplied transcript, synchronously.
func (h *AuditHandler) AnalyzeSingleRule(c *gin.Context) {
	var req models.SingleRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": models.StatusError,
			"error":  err.Error(),
		})
		return
	}

	batch, err := service.NormalizeRules(models.ParameterRule{
		ID:       req.RuleID,
		RuleList: models.RuleList{{RuleID: req.RuleID, Text: req.Rule}},
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": models.StatusError,
			"error":  err.Error(),
		})
		return
	}

	verdicts := h.judge.Evaluate(c.Request.Context(), req.Transcript, batch)
	verdict := verdicts[0]

	c.JSON(http.StatusOK, models.SingleRuleResponse{
		RuleID:          req.RuleID,
		Rule:            verdict.Rule,
		Result:          verdict.Result,
		Reason:          verdict.Reason,
		ConfidenceScore: verdict.ConfidenceScore,
	})
}

// pushDetached fires the callback delivery without tying the caller's
// response to it. The push keeps request values but survives the
// request's cancellation.
func (h *AuditHandler) pushDetached(ctx context.Context, payload *models.AuditOutcome) {
	go h.dispatcher.Push(context.WithoutCancel(ctx), payload)
}

// failureStatus maps a pipeline failure to an HTTP status: malformed
// requests are the caller's fault, everything else is a server-side
// pipeline fault.
func failureStatus(err error) int {
	if service.IsValidationError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
