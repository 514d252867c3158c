package delivery

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authdto "jobtrack-backend/internal/auth/dto"
	"jobtrack-backend/internal/auth/usecase"
)

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := usecase.NewAuthUsecase("secret", time.Hour)
	token, err := auth.IssueToken(&authdto.IssueTokenRequest{Subject: "extension"})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", AuthMiddleware(auth), func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		require.True(t, ok)
		c.String(http.StatusOK, p.Subject)
	})

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer abc", http.StatusUnauthorized},
		{"valid", "Bearer " + token.AccessToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, "extension", w.Body.String())
			}
		})
	}
}
