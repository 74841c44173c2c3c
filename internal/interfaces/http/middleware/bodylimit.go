package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marketplace/backend/internal/interfaces/http/dto"
)

// BodyLimitConfig caps request bodies. Multipart uploads get UploadBytes when
// it is set; every other body gets MaxBytes.
type BodyLimitConfig struct {
	MaxBytes    int64
	UploadBytes int64
}

// BodyLimit applies a single cap to every request body
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return BodyLimitWithConfig(BodyLimitConfig{MaxBytes: maxBytes})
}

// BodyLimitWithConfig rejects oversized bodies. Declared lengths are checked
// up front; streamed bodies fail when read past the limit.
func BodyLimitWithConfig(cfg BodyLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := cfg.MaxBytes
		if cfg.UploadBytes > 0 && c.ContentType() == gin.MIMEMultipartPOSTForm {
			limit = cfg.UploadBytes
		}

		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodePayloadTooLarge, "Request body exceeds maximum allowed size", GetRequestID(c)))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
