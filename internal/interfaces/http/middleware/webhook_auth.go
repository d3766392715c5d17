package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/erp/pos-bridge/internal/interfaces/http/dto"
)

// WebhookSecretHeader carries the shared secret on webhook deliveries
const WebhookSecretHeader = "X-Webhook-Secret"

// WebhookAuth rejects webhook deliveries that do not carry the configured
// shared secret. An empty configured secret disables the check; that is only
// acceptable outside production and is enforced at config validation.
func WebhookAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		provided := c.GetHeader(WebhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeUnauthorized, "Invalid webhook secret"))
			return
		}
		c.Next()
	}
}
