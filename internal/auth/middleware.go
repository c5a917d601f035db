package auth

import (
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// JWTAuth requires a valid bearer token and stores the caller in the
// request context.
func JWTAuth(jwtUtil *JWTUtil, log logger.ZapLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqLog := logger.FromContext(c.Request().Context(), log)

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return apperr.New(apperr.ErrUnauthorized, "missing authorization header")
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return apperr.New(apperr.ErrUnauthorized, "invalid authorization header format")
			}

			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				reqLog.Warn("invalid or expired token", zap.Error(err))
				return apperr.New(apperr.ErrUnauthorized, "invalid or expired token")
			}

			ctx := WithUser(c.Request().Context(), UserContext{UserID: claims.Subject, Role: claims.Role})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RequireRole must run after JWTAuth.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := GetUser(c.Request().Context())
			if !ok {
				return apperr.New(apperr.ErrUnauthorized, "authentication required")
			}
			if u.Role != role {
				return apperr.New(apperr.ErrForbidden, "%s role required", role)
			}
			return next(c)
		}
	}
}
