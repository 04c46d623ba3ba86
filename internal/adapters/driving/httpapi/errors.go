package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/logger"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// errorHandler maps errors returned by handlers and middleware to a status
// code and a JSON body.
func errorHandler(c *fiber.Ctx, err error) error {
	status, message := statusFor(err)
	if status == fiber.StatusInternalServerError {
		logger.Error("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(errorResponse{Error: message})
}

func statusFor(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return fiber.StatusBadRequest, validationMessage(ve)
	}

	var reqErr *domain.RequestError
	if !errors.As(err, &reqErr) {
		reqErr = domain.NewRequestError(err)
	}
	switch reqErr.Kind {
	case domain.KindValidation:
		return fiber.StatusBadRequest, reqErr.Message
	case domain.KindTooLarge:
		return fiber.StatusRequestEntityTooLarge, reqErr.Message
	case domain.KindRateLimited:
		return fiber.StatusTooManyRequests, reqErr.Message
	case domain.KindConflict:
		return fiber.StatusConflict, reqErr.Message
	case domain.KindOracle:
		return fiber.StatusServiceUnavailable, reqErr.Message
	default:
		return fiber.StatusInternalServerError, reqErr.Message
	}
}

func validationMessage(ve validator.ValidationErrors) string {
	fe := ve[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}
