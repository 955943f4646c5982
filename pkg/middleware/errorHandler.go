package middleware

import (
	"errors"

	"github.com/Alwanly/hospital-polling/pkg/logger"
	"github.com/Alwanly/hospital-polling/pkg/wrapper"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders unhandled errors in the polling envelope so clients
// can surface the message.
func ErrorHandler(log *logger.CanonicalLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}

		log.HTTPError(c.Method(), c.Path(), code, err)

		res := wrapper.ResponseFailed(code, err.Error(), nil)
		return c.Status(res.Code).JSON(res)
	}
}
