package delivery

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	authdelivery "jobtrack-backend/internal/auth/delivery"
	"jobtrack-backend/internal/device/repository"
)

type RegisterDeviceRequest struct {
	Token      string `json:"token" binding:"required"`
	DeviceInfo string `json:"device_info"`
}

type DeviceHandler struct {
	repo repository.DeviceRepository
}

func NewDeviceHandler(repo repository.DeviceRepository) *DeviceHandler {
	return &DeviceHandler{
		repo: repo,
	}
}

func (h *DeviceHandler) RegisterDevice(c *gin.Context) {
	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	subject := ""
	if p, ok := authdelivery.PrincipalFrom(c); ok {
		subject = p.Subject
	}

	if err := h.repo.SaveToken(c.Request.Context(), token, req.DeviceInfo, subject); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "device registered"})
}

func (h *DeviceHandler) UnregisterDevice(c *gin.Context) {
	deleted, err := h.repo.DeleteToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "device unregistered"})
}
