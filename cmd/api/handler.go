package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appDelivery "jobtrack-backend/internal/application/delivery"
	authUsecase "jobtrack-backend/internal/auth/usecase"
	deviceDelivery "jobtrack-backend/internal/device/delivery"
)

const shutdownTimeout = 10 * time.Second

type Handler struct {
	authUsecase     authUsecase.AuthUsecase
	appHandler      *appDelivery.ApplicationHandler
	deviceHandler   *deviceDelivery.DeviceHandler
	settingsHandler *SettingsHandler
	logger          *zap.Logger
}

func NewHandler(authUc authUsecase.AuthUsecase, appHandler *appDelivery.ApplicationHandler, deviceHandler *deviceDelivery.DeviceHandler, settingsHandler *SettingsHandler, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		authUsecase:     authUc,
		appHandler:      appHandler,
		deviceHandler:   deviceHandler,
		settingsHandler: settingsHandler,
		logger:          logger.Named("http"),
	}
}

// Router builds the gin engine with middleware and routes
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.appHandler, h.deviceHandler, h.settingsHandler)
	return r
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully
func (h *Handler) Start(ctx context.Context, addr string) error {
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	h.logger.Info("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
