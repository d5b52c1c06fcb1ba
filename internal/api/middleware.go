package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"studyloop-generation/internal/generation"
	"studyloop-generation/internal/logger"
	"studyloop-generation/internal/validation"

	"github.com/gin-gonic/gin"
)

// ValidationMiddleware injecte l'APIValidator dans le contexte
func ValidationMiddleware(validator *validation.APIValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("validator", validator)
		c.Next()
	}
}

// RequestLogger journalise chaque requête, en warning pour les erreurs de validation
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"status", status,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}

		switch {
		case status == http.StatusBadRequest:
			log.Warn("[VALIDATION] request rejected", fields...)
		case status >= http.StatusInternalServerError:
			log.Error("Request failed", fields...)
		default:
			log.Debug("Request served", fields...)
		}
	}
}

// SecurityHeadersMiddleware ajoute des headers de sécurité. Le CORS est géré par gin-contrib/cors.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// RunTokenAuth exige un jeton d'accès public autorisant l'action sur le runId de l'URL.
// Doit être placé après la validation du runId.
func RunTokenAuth(tokens *generation.TokenIssuer, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Missing access token",
			})
			return
		}

		claims, err := tokens.Authorize(strings.TrimSpace(token), action, c.Param("runId"))
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, generation.ErrTokenScope) {
				status = http.StatusForbidden
			}
			c.AbortWithStatusJSON(status, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}

		c.Set("run_claims", claims)
		c.Next()
	}
}
