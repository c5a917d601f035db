package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/labstack/echo/v4"
)

type stubUseCase struct {
	subscribeErr error
	gotUser      string
	gotProduct   string
	gotAlert     string
}

func (s *stubUseCase) Subscribe(_ context.Context, userID, productID string) (*model.StockAlert, error) {
	s.gotUser, s.gotProduct = userID, productID
	if s.subscribeErr != nil {
		return nil, s.subscribeErr
	}
	return &model.StockAlert{ID: "a1", UserID: userID, ProductID: productID, Status: model.AlertPending}, nil
}

func (s *stubUseCase) Unsubscribe(_ context.Context, userID, productID string) error {
	s.gotUser, s.gotProduct = userID, productID
	return nil
}

func (s *stubUseCase) UnsubscribeByID(_ context.Context, userID, alertID string) error {
	s.gotUser, s.gotAlert = userID, alertID
	return nil
}

func (s *stubUseCase) ListSubscriptions(_ context.Context, userID string) ([]model.StockAlert, error) {
	return []model.StockAlert{{ID: "a1", UserID: userID}}, nil
}

func (s *stubUseCase) PendingCount(context.Context, string) (int, error) { return 0, nil }

func (s *stubUseCase) OnRestock(context.Context, model.StockTarget, model.StockTransition) (int, error) {
	return 0, nil
}

func newContext(method, target string, names, values []string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	req = req.WithContext(auth.WithUser(req.Context(), auth.UserContext{UserID: "u1"}))
	rr := httptest.NewRecorder()
	c := e.NewContext(req, rr)
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rr
}

func TestSubscribeUsesCaller(t *testing.T) {
	uc := &stubUseCase{}
	h := NewAlertHandler(uc, logger.NewNop())
	c, rr := newContext(http.MethodPost, "/api/v1/products/p1/alert", []string{"id"}, []string{"p1"})

	if err := h.Subscribe(c); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if uc.gotUser != "u1" || uc.gotProduct != "p1" {
		t.Fatalf("unexpected call user=%q product=%q", uc.gotUser, uc.gotProduct)
	}
	var body struct {
		Alert model.StockAlert `json:"alert"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Alert.ID != "a1" {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestSubscribeReturnsDomainError(t *testing.T) {
	uc := &stubUseCase{subscribeErr: apperr.New(apperr.ErrAlreadyInStock, "product is already in stock")}
	h := NewAlertHandler(uc, logger.NewNop())
	c, _ := newContext(http.MethodPost, "/api/v1/products/p1/alert", []string{"id"}, []string{"p1"})

	if err := h.Subscribe(c); !errors.Is(err, apperr.ErrAlreadyInStock) {
		t.Fatalf("expected domain error to reach the error handler, got %v", err)
	}
}

func TestDeleteByID(t *testing.T) {
	uc := &stubUseCase{}
	h := NewAlertHandler(uc, logger.NewNop())
	c, rr := newContext(http.MethodDelete, "/api/v1/alerts/a9", []string{"alertId"}, []string{"a9"})

	if err := h.Delete(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rr.Code != http.StatusNoContent || uc.gotAlert != "a9" || uc.gotUser != "u1" {
		t.Fatalf("unexpected delete code=%d alert=%q user=%q", rr.Code, uc.gotAlert, uc.gotUser)
	}
}
