package validation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequestChainsValidators(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var calls []string
	pass := func(c *gin.Context, _ *APIValidator) *ValidationResult {
		calls = append(calls, "pass")
		return &ValidationResult{Valid: true}
	}
	fail := func(c *gin.Context, _ *APIValidator) *ValidationResult {
		calls = append(calls, "fail")
		result := &ValidationResult{Valid: true}
		result.AddError("weekId", "", "Week ID is required", "REQUIRED")
		return result
	}
	never := func(c *gin.Context, _ *APIValidator) *ValidationResult {
		calls = append(calls, "never")
		return &ValidationResult{Valid: true}
	}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("validator", NewAPIValidator(nil))
		c.Next()
	})
	r.GET("/chained", ValidateRequest(pass, fail, never), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/clean", ValidateRequest(pass, pass), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chained", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"pass", "fail"}, calls)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Week ID is required", body["error"])

	calls = nil
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/clean", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"pass", "pass"}, calls)
}

func TestValidateRequestWithoutValidator(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/", ValidateRequest(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
