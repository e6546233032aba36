package httpserver

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/retailpos/backoffice/internal/authz"
	"github.com/retailpos/backoffice/internal/logging"
	"github.com/retailpos/backoffice/internal/models"
	"github.com/retailpos/backoffice/internal/service"
	"github.com/retailpos/backoffice/internal/tokens"
)

const callerKey = "caller"

// RequestLogger installs a request-scoped slog logger into the request
// context and logs one line per request.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			l := base.With(
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
			)
			ctx := logging.IntoContext(c.Request().Context(), l)
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)

			l.Info("http_request",
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return err
		}
	}
}

// RequireAuth validates the bearer token, rejects revoked jtis, and builds
// the CallerContext every operation receives.
func RequireAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims, err := tokens.AccessClaimsFromToken(token, auth.JWTSecret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := c.Request().Context()
			revoked, err := auth.IsTokenRevoked(ctx, claims.ID)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
			}
			if revoked {
				return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
			}

			caller, err := auth.ResolveCaller(ctx, claims)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(callerKey, caller)
			return next(c)
		}
	}
}

// RequireRoles further restricts a route group to the given roles.
func RequireRoles(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller := CallerFrom(c)
			if caller == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			for _, r := range roles {
				if caller.Role == r {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "forbidden")
		}
	}
}

func CallerFrom(c echo.Context) *authz.CallerContext {
	if v, ok := c.Get(callerKey).(*authz.CallerContext); ok {
		return v
	}
	return nil
}
