package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/interview-coach/internal/http/response"
	"github.com/yungbote/interview-coach/internal/pkg/apierr"
	"github.com/yungbote/interview-coach/internal/pkg/ctxutil"
	"github.com/yungbote/interview-coach/internal/pkg/logger"
	"github.com/yungbote/interview-coach/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), authService: authService}
}

// RequireAuth resolves the bearer token to a user before any handler runs.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			response.RespondError(c, &apierr.Error{
				Status:  http.StatusUnauthorized,
				Code:    apierr.CodeUnauthorized,
				Message: "Not authorized, no token",
			})
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			if ae := apierr.As(err); ae != nil && ae.Status >= http.StatusInternalServerError {
				response.RespondError(c, err)
				return
			}
			am.log.Debug("token rejected", "error", err)
			response.RespondError(c, apierr.Unauthorized(err))
			return
		}
		rd := ctxutil.GetRequestData(ctx)
		if rd == nil || rd.UserID == uuid.Nil {
			response.RespondError(c, apierr.Unauthorized(nil))
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
