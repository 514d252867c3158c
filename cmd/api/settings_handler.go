package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"jobtrack-backend/internal/application/dto"
	"jobtrack-backend/internal/application/usecase"
	"jobtrack-backend/pkg/config"
)

// SettingsHandler exposes the active rule tables
type SettingsHandler struct {
	rules      *config.Rules
	reconciler *usecase.Reconciler
	window     time.Duration
}

func NewSettingsHandler(rules *config.Rules, reconciler *usecase.Reconciler, window time.Duration) *SettingsHandler {
	return &SettingsHandler{rules: rules, reconciler: reconciler, window: window}
}

// GetRules returns the rule tables and the merge window
// GET /api/settings/rules
func (h *SettingsHandler) GetRules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"rules":             h.rules,
		"merge_window_days": int(h.window / (24 * time.Hour)),
	})
}

// TestRules classifies and extracts one email without storing anything
// POST /api/settings/rules/test
func (h *SettingsHandler) TestRules(c *gin.Context) {
	var req dto.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receivedAt := time.Now().UTC()
	if req.ReceivedAt != "" {
		parsed, err := usecase.ParseCaptureDate(req.ReceivedAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid received_at"})
			return
		}
		receivedAt = parsed
	}

	cls, fields, related := h.reconciler.Preview(req.Subject, req.Body, receivedAt)
	resp := dto.PreviewResponse{
		Related:   related,
		Company:   fields.Company,
		RoleTitle: fields.RoleTitle,
	}
	if related {
		resp.EventType = string(cls.EventType)
		resp.Confidence = string(cls.Confidence)
		resp.Ambiguous = cls.Ambiguous
		resp.EvidenceText = cls.EvidenceText
	}

	c.JSON(http.StatusOK, resp)
}
