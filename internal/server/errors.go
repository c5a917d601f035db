package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/pkg/middleware"
	"github.com/fekuna/omnipos-stock-service/pkg/response"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var errorKinds = []struct {
	kind   error
	status int
	code   string
}{
	{apperr.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{apperr.ErrInvalidQuantity, http.StatusBadRequest, "INVALID_QUANTITY"},
	{apperr.ErrAlreadyInStock, http.StatusBadRequest, "ALREADY_IN_STOCK"},
	{apperr.ErrDuplicateSubscription, http.StatusBadRequest, "DUPLICATE_SUBSCRIPTION"},
	{apperr.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
	{apperr.ErrConflict, http.StatusConflict, "CONFLICT"},
	{apperr.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{apperr.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
}

// HTTPErrorHandler writes every handler error as a response.ErrorResponse.
// Errors without a known kind are logged and hidden behind a 500.
func HTTPErrorHandler(log logger.ZapLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := classify(err)
		if status == http.StatusInternalServerError {
			logger.FromContext(c.Request().Context(), log).Error("unhandled error",
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		body.RequestID = c.Response().Header().Get(middleware.HeaderRequestID)

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error("failed to write error response", zap.Error(err))
		}
	}
}

func classify(err error) (int, response.ErrorResponse) {
	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			return k.status, response.ErrorResponse{Error: response.APIError{Code: k.code, Message: apperr.Message(err)}}
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, response.ErrorResponse{Error: response.APIError{
			Code:    http.StatusText(he.Code),
			Message: fmt.Sprint(he.Message),
		}}
	}

	return http.StatusInternalServerError, response.ErrorResponse{Error: response.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "internal server error",
	}}
}
