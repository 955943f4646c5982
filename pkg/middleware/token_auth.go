package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Alwanly/hospital-polling/pkg/logger"
	"github.com/Alwanly/hospital-polling/pkg/wrapper"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// BearerTokenAuth rejects requests whose bearer token differs from token.
// An empty token disables the check.
func BearerTokenAuth(token string, log *logger.CanonicalLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return c.Next()
		}

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			log.Debug("missing authorization header",
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			return unauthorized(c, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Debug("malformed authorization header",
				zap.String("path", c.Path()),
			)
			return unauthorized(c, "malformed authorization header")
		}

		if parts[1] == "" {
			return unauthorized(c, "empty bearer token")
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(token)) != 1 {
			log.Debug("invalid api token",
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			return unauthorized(c, "invalid api token")
		}

		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, message string) error {
	res := wrapper.ResponseFailed(http.StatusUnauthorized, message, nil)
	return c.Status(res.Code).JSON(res)
}
