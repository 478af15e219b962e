package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/nano-midea/interactions/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool             `json:"success"`
	Code    models.ErrorKind `json:"code"`
	Message string           `json:"message"`
}

// StatusFor maps an error kind onto an HTTP status.
func StatusFor(kind models.ErrorKind) int {
	switch kind {
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindUnauthorized:
		return http.StatusForbidden
	case models.KindValidation:
		return http.StatusBadRequest
	case models.KindConflict:
		return http.StatusConflict
	case models.KindTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError writes err as an ErrorResponse. Internal errors are logged
// and their detail is kept out of the body.
func respondError(c echo.Context, log logrus.FieldLogger, err error) error {
	kind := models.KindOf(err)
	message := "internal error"
	var appErr *models.AppError
	if errors.As(err, &appErr) && kind != models.KindInternal {
		message = appErr.Message
	}
	if kind == models.KindInternal || kind == models.KindTimeout {
		log.WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
			"kind":   kind,
		}).WithError(err).Error("request failed")
	}
	return c.JSON(StatusFor(kind), ErrorResponse{Success: false, Code: kind, Message: message})
}

// bindAndValidate decodes the body into req and runs the struct validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return models.NewValidationError("Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}
