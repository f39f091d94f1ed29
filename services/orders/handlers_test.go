package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// MockOrderProcessor simula o orquestrador
type MockOrderProcessor struct {
	mock.Mock
}

func (m *MockOrderProcessor) ProcessOrder(ctx context.Context, customerName string, lines []OrderLine, correlationID string) (OrderResult, error) {
	args := m.Called(ctx, customerName, lines, correlationID)
	return args.Get(0).(OrderResult), args.Error(1)
}

func newTestRouter(processor OrderProcessor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewOrderHandler(processor, tracenoop.NewTracerProvider().Tracer("test"), zap.NewNop(), time.Second)

	r := gin.New()
	r.Use(CorrelationMiddleware())
	r.GET("/health", handler.HealthCheck)
	r.POST("/api/orders", handler.CreateOrder)
	return r
}

func postOrder(r http.Handler, body string, correlationID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if correlationID != "" {
		req.Header.Set(CorrelationIDHeader, correlationID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCreateOrder_Confirmed(t *testing.T) {
	// Arrange
	processor := new(MockOrderProcessor)
	lines := []OrderLine{{ProductID: "P1001", Quantity: 2}}
	processor.On("ProcessOrder", mock.Anything, "Alice", lines, "corr-1").Return(OrderResult{
		CorrelationID: "corr-1",
		Confirmed: NewConfirmedOrder("GH-1",
			[]Allocation{{ProductID: "P1001", SupplierID: "ElectroCom", Quantity: 2, UnitPrice: decimal.NewFromInt(100), EtaDays: 3}},
			[]SupplierOrderConfirmation{{SupplierID: "ElectroCom", SupplierOrderID: "EC-1001", ConfirmedEtaDays: 3}},
		),
	}, nil)
	r := newTestRouter(processor)

	// Act
	w := postOrder(r, `{"customer_name":"Alice","items":[{"product_id":"P1001","quantity":2}]}`, "corr-1")

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "corr-1", w.Header().Get(CorrelationIDHeader))
	body := decodeBody(t, w)
	assert.Equal(t, "GH-1", body["order_id"])
	assert.Equal(t, "Confirmed", body["status"])
	assert.Equal(t, float64(3), body["final_estimated_delivery_days"])
	assert.Equal(t, "corr-1", body["correlation_id"])
	assert.Len(t, body["allocations"], 1)
	assert.Len(t, body["supplier_orders"], 1)
	processor.AssertExpectations(t)
}

func TestCreateOrder_Rejected(t *testing.T) {
	// Arrange
	processor := new(MockOrderProcessor)
	processor.On("ProcessOrder", mock.Anything, "Bob", mock.Anything, mock.Anything).Return(OrderResult{
		CorrelationID: "corr-2",
		Rejected: &RejectedOrder{
			Reason:     RejectionReasonInsufficientStock,
			Shortfalls: []Shortfall{NewShortfall("W", 6, 4)},
		},
	}, nil)
	r := newTestRouter(processor)

	// Act
	w := postOrder(r, `{"customer_name":"Bob","items":[{"product_id":"W","quantity":6}]}`, "corr-2")

	// Assert
	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Rejected", body["status"])
	assert.Equal(t, RejectionReasonInsufficientStock, body["message"])
	shortfalls := body["shortfalls"].([]any)
	require.Len(t, shortfalls, 1)
	assert.Equal(t, float64(2), shortfalls[0].(map[string]any)["missing"])
}

func TestCreateOrder_GeneratesCorrelationID(t *testing.T) {
	// Arrange
	processor := new(MockOrderProcessor)
	var passed string
	processor.On("ProcessOrder", mock.Anything, "Carol", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { passed = args.String(3) }).
		Return(OrderResult{}, &ValidationError{Fields: map[string][]string{"items": {"At least one item is required."}}})
	r := newTestRouter(processor)

	// Act
	w := postOrder(r, `{"customer_name":"Carol","items":[]}`, "")

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, passed)
	assert.Equal(t, passed, w.Header().Get(CorrelationIDHeader))
	body := decodeBody(t, w)
	assert.Equal(t, "validation failed", body["error"])
	assert.Contains(t, body["errors"], "items")
	assert.Equal(t, passed, body["correlation_id"])
}

func TestCreateOrder_MalformedJSON(t *testing.T) {
	// Arrange
	processor := new(MockOrderProcessor)
	r := newTestRouter(processor)

	// Act
	w := postOrder(r, `{"customer_name":`, "corr-3")

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
	processor.AssertNotCalled(t, "ProcessOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrder_PartiallyPlaced(t *testing.T) {
	// Arrange
	processor := new(MockOrderProcessor)
	processor.On("ProcessOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(OrderResult{CorrelationID: "corr-4"}, &PartialPlacementError{
		OrderID: "GH-9",
		Placed:  []SupplierOrderConfirmation{{SupplierID: "A", SupplierOrderID: "A-1001", ConfirmedEtaDays: 2}},
		Failed: []SupplierFailure{{
			Supplier:    "B",
			Allocations: []Allocation{{ProductID: "Z", SupplierID: "B", Quantity: 3}},
			Err:         &SupplierCommunicationError{Supplier: "B", Phase: PhasePlacement, Err: errors.New("boom")},
		}},
	})
	r := newTestRouter(processor)

	// Act
	w := postOrder(r, `{"customer_name":"Dave","items":[{"product_id":"Z","quantity":6}]}`, "corr-4")

	// Assert
	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "PartiallyPlaced", body["status"])
	assert.Equal(t, "GH-9", body["order_id"])
	assert.Len(t, body["supplier_orders"], 1)
	failed := body["failed"].([]any)
	require.Len(t, failed, 1)
	assert.Equal(t, "B", failed[0].(map[string]any)["supplier"])
}

func TestCreateOrder_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"quote failure", &SupplierCommunicationError{Supplier: "A", Phase: PhaseQuote, Err: errors.New("refused")}, http.StatusServiceUnavailable},
		{"quote timeout", &SupplierCommunicationError{Supplier: "A", Phase: PhaseQuote, Err: fmt.Errorf("quote: %w", context.DeadlineExceeded)}, http.StatusGatewayTimeout},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"canceled", context.Canceled, http.StatusRequestTimeout},
		{"unknown", errors.New("unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := new(MockOrderProcessor)
			processor.On("ProcessOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(OrderResult{}, tt.err)
			r := newTestRouter(processor)

			w := postOrder(r, `{"customer_name":"Eve","items":[{"product_id":"X","quantity":1}]}`, "")

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestCreateOrder_AppliesRequestTimeout(t *testing.T) {
	// Arrange
	processor := new(MockOrderProcessor)
	processor.On("ProcessOrder", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), mock.Anything, mock.Anything, mock.Anything).Return(OrderResult{}, context.DeadlineExceeded)
	r := newTestRouter(processor)

	// Act
	w := postOrder(r, `{"customer_name":"Frank","items":[{"product_id":"X","quantity":1}]}`, "")

	// Assert
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	processor.AssertExpectations(t)
}

func TestHealthCheck(t *testing.T) {
	// Arrange
	r := newTestRouter(new(MockOrderProcessor))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	// Act
	r.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeBody(t, w)["status"])
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, httpStatus(nil))
	assert.Equal(t, http.StatusBadRequest, httpStatus(&ValidationError{}))
	assert.Equal(t, http.StatusBadGateway, httpStatus(fmt.Errorf("wrapped: %w", &PartialPlacementError{OrderID: "GH-1"})))
	assert.Equal(t, http.StatusInternalServerError, httpStatus(ErrUnknownSupplier))
}
