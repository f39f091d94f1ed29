package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// OrderProcessor define a interface do orquestrador usada pelos handlers
type OrderProcessor interface {
	ProcessOrder(ctx context.Context, customerName string, lines []OrderLine, correlationID string) (OrderResult, error)
}

// CreateOrderRequest representa a requisição para criar um pedido
type CreateOrderRequest struct {
	CustomerName string      `json:"customer_name"`
	Items        []OrderLine `json:"items"`
}

// CreateOrderResponse representa um pedido confirmado
type CreateOrderResponse struct {
	OrderID                    string                      `json:"order_id"`
	Status                     string                      `json:"status"`
	FinalEstimatedDeliveryDays int                         `json:"final_estimated_delivery_days"`
	Allocations                []Allocation                `json:"allocations"`
	SupplierOrders             []SupplierOrderConfirmation `json:"supplier_orders"`
	CorrelationID              string                      `json:"correlation_id"`
}

// RejectedOrderResponse representa um pedido rejeitado por falta de estoque
type RejectedOrderResponse struct {
	Status        string      `json:"status"`
	Message       string      `json:"message"`
	Shortfalls    []Shortfall `json:"shortfalls"`
	CorrelationID string      `json:"correlation_id"`
}

// FailedSupplierOrder descreve um fornecedor cuja colocação falhou
type FailedSupplierOrder struct {
	Supplier    string       `json:"supplier"`
	Allocations []Allocation `json:"allocations"`
	Error       string       `json:"error"`
}

// PartialPlacementResponse lista o que foi confirmado e o que falhou na colocação
type PartialPlacementResponse struct {
	OrderID        string                      `json:"order_id"`
	Status         string                      `json:"status"`
	Message        string                      `json:"message"`
	SupplierOrders []SupplierOrderConfirmation `json:"supplier_orders"`
	Failed         []FailedSupplierOrder       `json:"failed"`
	CorrelationID  string                      `json:"correlation_id"`
}

// kinder é satisfeito pelos erros de domínio que carregam uma classificação
type kinder interface {
	Kind() string
}

var kindToStatus = map[string]int{
	"validation":           http.StatusBadRequest,
	"supplier_unavailable": http.StatusServiceUnavailable,
	"partially_placed":     http.StatusBadGateway,
	"timeout":              http.StatusGatewayTimeout,
	"canceled":             http.StatusRequestTimeout,
}

func errorKind(err error) string {
	if err == nil {
		return ""
	}
	var k kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

func httpStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if s, ok := kindToStatus[errorKind(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// OrderHandler contém os handlers HTTP
type OrderHandler struct {
	useCase        OrderProcessor
	tracer         trace.Tracer
	logger         *zap.Logger
	requestTimeout time.Duration
}

// NewOrderHandler cria uma nova instância de OrderHandler
func NewOrderHandler(useCase OrderProcessor, tracer trace.Tracer, logger *zap.Logger, requestTimeout time.Duration) *OrderHandler {
	return &OrderHandler{
		useCase:        useCase,
		tracer:         tracer,
		logger:         logger,
		requestTimeout: requestTimeout,
	}
}

// CreateOrder recebe o pedido do cliente e devolve o resultado consolidado
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_order")
	defer span.End()

	correlationID := correlationIDFrom(c)
	span.SetAttributes(attribute.String("correlation_id", correlationID))

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "correlation_id": correlationID})
		return
	}

	if h.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.requestTimeout)
		defer cancel()
	}

	result, err := h.useCase.ProcessOrder(ctx, req.CustomerName, req.Items, correlationID)
	if result.CorrelationID != "" {
		correlationID = result.CorrelationID
	}
	if err != nil {
		span.RecordError(err)
		h.writeError(c, err, correlationID)
		return
	}

	if result.IsRejected() {
		c.JSON(http.StatusConflict, RejectedOrderResponse{
			Status:        OrderStatusRejected,
			Message:       result.Rejected.Reason,
			Shortfalls:    result.Rejected.Shortfalls,
			CorrelationID: correlationID,
		})
		return
	}

	order := result.Confirmed
	span.SetAttributes(attribute.String("order_id", order.OrderID))
	c.JSON(http.StatusOK, CreateOrderResponse{
		OrderID:                    order.OrderID,
		Status:                     order.Status,
		FinalEstimatedDeliveryDays: order.FinalEtaDays,
		Allocations:                order.Allocations,
		SupplierOrders:             order.Confirmations,
		CorrelationID:              correlationID,
	})
}

func (h *OrderHandler) writeError(c *gin.Context, err error, correlationID string) {
	status := httpStatus(err)

	var verr *ValidationError
	if errors.As(err, &verr) {
		c.JSON(status, gin.H{
			"error":          ErrValidation.Error(),
			"errors":         verr.Fields,
			"correlation_id": correlationID,
		})
		return
	}

	var perr *PartialPlacementError
	if errors.As(err, &perr) {
		failed := make([]FailedSupplierOrder, 0, len(perr.Failed))
		for _, f := range perr.Failed {
			failed = append(failed, FailedSupplierOrder{
				Supplier:    f.Supplier,
				Allocations: f.Allocations,
				Error:       f.Err.Error(),
			})
		}
		placed := perr.Placed
		if placed == nil {
			placed = []SupplierOrderConfirmation{}
		}
		c.JSON(status, PartialPlacementResponse{
			OrderID:        perr.OrderID,
			Status:         OrderStatusPartiallyPlaced,
			Message:        "Some supplier orders could not be placed; confirmed orders require reconciliation",
			SupplierOrders: placed,
			Failed:         failed,
			CorrelationID:  correlationID,
		})
		return
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("❌ Unexpected error processing order", zap.String("correlation_id", correlationID), zap.Error(err))
	}

	body := gin.H{"error": err.Error(), "correlation_id": correlationID}
	var cerr *SupplierCommunicationError
	if errors.As(err, &cerr) {
		body["supplier"] = cerr.Supplier
		body["retryable"] = cerr.Retryable()
	}
	c.JSON(status, body)
}

// HealthCheck verifica a saúde do serviço
func (h *OrderHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "orders-service",
	})
}
