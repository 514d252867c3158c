package delivery

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"jobtrack-backend/internal/application/domain"
	"jobtrack-backend/internal/application/dto"
	"jobtrack-backend/internal/application/importer"
	"jobtrack-backend/internal/application/usecase"
)

const maxImportBytes = 10 << 20

type ApplicationHandler struct {
	reconciler   *usecase.Reconciler
	applications *usecase.ApplicationUsecase
	sync         *usecase.SyncUsecase
	importer     *importer.Importer
}

func NewApplicationHandler(reconciler *usecase.Reconciler, applications *usecase.ApplicationUsecase, sync *usecase.SyncUsecase, imp *importer.Importer) *ApplicationHandler {
	return &ApplicationHandler{
		reconciler:   reconciler,
		applications: applications,
		sync:         sync,
		importer:     imp,
	}
}

// CreateCapture reconciles one capture from the browser extension
// POST /api/captures
func (h *ApplicationHandler) CreateCapture(c *gin.Context) {
	var capture domain.Capture
	if err := c.ShouldBindJSON(&capture); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.reconciler.ReconcileCaptures(c.Request.Context(), []domain.Capture{capture})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "summary": summary})
		return
	}

	switch {
	case summary.Skipped > 0:
		c.JSON(http.StatusUnprocessableEntity, summary)
	case summary.Created > 0:
		c.JSON(http.StatusCreated, summary)
	default:
		c.JSON(http.StatusOK, summary)
	}
}

// ImportCaptures reconciles an uploaded CSV or JSON file
// POST /api/captures/import
func (h *ApplicationHandler) ImportCaptures(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > maxImportBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	formatName := c.PostForm("format")
	if formatName == "" {
		formatName = filepath.Ext(fileHeader.Filename)
	}
	format, err := importer.ParseFormat(formatName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	captures, err := h.importer.Read(file, format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.reconciler.ReconcileCaptures(c.Request.Context(), captures)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "summary": summary})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Sync fetches and reconciles recent mail
// POST /api/sync
func (h *ApplicationHandler) Sync(c *gin.Context) {
	var req dto.SyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.SinceDays < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "since_days must not be negative"})
		return
	}

	summary, err := h.sync.Sync(c.Request.Context(), req.SinceDays)
	if errors.Is(err, usecase.ErrMailSyncDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "summary": summary})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetApplications lists or searches applications
// GET /api/applications?status=&q=&limit=&offset=
func (h *ApplicationHandler) GetApplications(c *gin.Context) {
	limit := 50
	offset := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	filter := usecase.ListFilter{Query: c.Query("q"), Limit: limit, Offset: offset}
	if statusStr := c.Query("status"); statusStr != "" {
		status, ok := domain.ParseStatus(statusStr)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + strconv.Quote(statusStr)})
			return
		}
		filter.Status = &status
	}

	apps, total, err := h.applications.ListApplications(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.ApplicationsResponse{
		Applications: apps,
		Limit:        limit,
		Offset:       offset,
		Total:        total,
	})
}

// GetApplicationByID returns an application with its events
// GET /api/applications/:id
func (h *ApplicationHandler) GetApplicationByID(c *gin.Context) {
	app, err := h.applications.GetApplication(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrApplicationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "application not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, app)
}

// SetFollowUp sets or clears the follow-up date
// PATCH /api/applications/:id/follow-up
func (h *ApplicationHandler) SetFollowUp(c *gin.Context) {
	var req dto.FollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var date *time.Time
	if req.Date != nil && *req.Date != "" {
		parsed, err := usecase.ParseCaptureDate(*req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
		date = &parsed
	}

	id := c.Param("id")
	if err := h.applications.SetFollowUp(c.Request.Context(), id, date); err != nil {
		if errors.Is(err, domain.ErrApplicationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "application not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "follow-up updated", "application_id": id, "next_follow_up_date": date})
}

// ExportApplications streams all applications as CSV
// GET /api/export/applications.csv
func (h *ApplicationHandler) ExportApplications(c *gin.Context) {
	setCSVHeaders(c, "applications.csv")
	if err := h.applications.ExportApplicationsCSV(c.Request.Context(), c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// ExportEvents streams all events as CSV
// GET /api/export/events.csv
func (h *ApplicationHandler) ExportEvents(c *gin.Context) {
	setCSVHeaders(c, "events.csv")
	if err := h.applications.ExportEventsCSV(c.Request.Context(), c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func setCSVHeaders(c *gin.Context, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
}
