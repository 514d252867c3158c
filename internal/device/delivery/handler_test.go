package delivery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeRepository struct {
	tokens map[string]string
	err    error
}

func (r *fakeRepository) SaveToken(ctx context.Context, token, deviceInfo, subject string) error {
	if r.err != nil {
		return r.err
	}
	r.tokens[token] = deviceInfo
	return nil
}

func (r *fakeRepository) ListTokens(ctx context.Context) ([]string, error) {
	out := make([]string, 0, len(r.tokens))
	for t := range r.tokens {
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeRepository) DeleteToken(ctx context.Context, token string) (bool, error) {
	_, ok := r.tokens[token]
	delete(r.tokens, token)
	return ok, nil
}

func (r *fakeRepository) DeleteTokens(ctx context.Context, tokens []string) error {
	for _, t := range tokens {
		delete(r.tokens, t)
	}
	return nil
}

func newRouter(repo *fakeRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewDeviceHandler(repo)
	r := gin.New()
	r.POST("/devices", h.RegisterDevice)
	r.DELETE("/devices/:token", h.UnregisterDevice)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDeviceHandler(t *testing.T) {
	repo := &fakeRepository{tokens: map[string]string{}}
	r := newRouter(repo)

	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/devices", `{"token":"tok-1","device_info":"Chrome"}`).Code)
	assert.Equal(t, "Chrome", repo.tokens["tok-1"])

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/devices", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/devices", `{"token":"  "}`).Code)

	assert.Equal(t, http.StatusOK, do(r, http.MethodDelete, "/devices/tok-1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/devices/tok-1", "").Code)
}

func TestDeviceHandler_StoreError(t *testing.T) {
	r := newRouter(&fakeRepository{tokens: map[string]string{}, err: errors.New("db down")})
	assert.Equal(t, http.StatusInternalServerError, do(r, http.MethodPost, "/devices", `{"token":"tok-1"}`).Code)
}
