package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects body-carrying requests whose Content-Type is not a
// JSON media type. Requests without a body pass through untouched.
func RequireJSON() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		switch ctx.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if ctx.Request.ContentLength == 0 {
				break
			}

			// ContentType strips parameters such as "; charset=utf-8"
			mediaType := strings.ToLower(ctx.ContentType())

			if mediaType != "application/json" && !strings.HasSuffix(mediaType, "+json") {
				ctx.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
					"error": gin.H{
						"code":    "unsupported_media_type",
						"message": "Content-Type must be application/json",
					},
				})
				return
			}
		}

		ctx.Next()
	}
}
