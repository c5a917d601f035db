package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-stock-service/internal/alert"
	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/labstack/echo/v4"
)

type AlertHandler struct {
	uc     alert.UseCase
	logger logger.ZapLogger
}

func NewAlertHandler(uc alert.UseCase, log logger.ZapLogger) *AlertHandler {
	return &AlertHandler{
		uc:     uc,
		logger: log,
	}
}

// Subscribe handles POST /products/:id/alert. The subscriber is the caller.
func (h *AlertHandler) Subscribe(c echo.Context) error {
	ctx := c.Request().Context()
	a, err := h.uc.Subscribe(ctx, auth.GetUserID(ctx), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "you will be notified when this product is back in stock",
		"alert":   a,
	})
}

func (h *AlertHandler) Unsubscribe(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.uc.Unsubscribe(ctx, auth.GetUserID(ctx), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AlertHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.uc.ListSubscriptions(ctx, auth.GetUserID(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AlertHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.uc.UnsubscribeByID(ctx, auth.GetUserID(ctx), c.Param("alertId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
