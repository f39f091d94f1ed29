package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CorrelationIDHeader é o header que acompanha todas as chamadas de um mesmo pedido
const CorrelationIDHeader = "X-Correlation-ID"

// QuoteItemRequest representa um item da requisição de cotação
type QuoteItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

// QuoteRequest representa a requisição de cotação
type QuoteRequest struct {
	Items []QuoteItemRequest `json:"items" binding:"dive"`
}

// QuoteResponse representa a resposta de cotação
type QuoteResponse struct {
	Supplier string         `json:"supplier"`
	Quotes   []ProductQuote `json:"quotes"`
}

// AllocationRequest representa um item do pedido recebido
type AllocationRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// PlaceOrderRequest representa o pedido enviado pelo orquestrador
type PlaceOrderRequest struct {
	CustomerOrderID string              `json:"customer_order_id" binding:"required"`
	Allocations     []AllocationRequest `json:"allocations" binding:"required,min=1,dive"`
}

// PlaceOrderResponse representa a confirmação do pedido
type PlaceOrderResponse struct {
	Supplier              string `json:"supplier"`
	SupplierOrderID       string `json:"supplier_order_id"`
	ConfirmedDeliveryDays int    `json:"confirmed_delivery_days"`
}

// InventoryHandler contém os handlers HTTP para inventário
type InventoryHandler struct {
	useCase *InventoryUseCase
	tracer  trace.Tracer
	logger  *zap.Logger
}

// NewInventoryHandler cria uma nova instância de InventoryHandler
func NewInventoryHandler(useCase *InventoryUseCase, tracer trace.Tracer, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		useCase: useCase,
		tracer:  tracer,
		logger:  logger,
	}
}

// Quote responde preço, estoque e prazo de cada item pedido
func (h *InventoryHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "quote")
	defer span.End()
	span.SetAttributes(attribute.String("correlation_id", c.GetString(correlationIDKey)))

	items := make([]OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, OrderItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	quotes, err := h.useCase.Quote(ctx, items)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("❌ Quote failed", zap.String("correlation_id", c.GetString(correlationIDKey)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build quote"})
		return
	}

	c.JSON(http.StatusOK, QuoteResponse{Supplier: h.useCase.SupplierName(), Quotes: quotes})
}

// PlaceOrder debita o estoque de todos os itens de forma atômica
func (h *InventoryHandler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "place_order")
	defer span.End()
	span.SetAttributes(
		attribute.String("customer_order_id", req.CustomerOrderID),
		attribute.String("correlation_id", c.GetString(correlationIDKey)),
	)

	items := make([]OrderItem, 0, len(req.Allocations))
	for _, a := range req.Allocations {
		items = append(items, OrderItem{ProductID: a.ProductID, Quantity: a.Quantity})
	}

	order, replayed, err := h.useCase.PlaceOrder(ctx, req.CustomerOrderID, items)
	if err != nil {
		span.RecordError(err)
		fields := []zap.Field{
			zap.String("correlation_id", c.GetString(correlationIDKey)),
			zap.String("customer_order_id", req.CustomerOrderID),
			zap.Error(err),
		}

		switch {
		case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrDuplicateOrder):
			h.logger.Warn("⚠️ [PLACE ORDER] Rejected", fields...)
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrEmptyOrder):
			h.logger.Warn("⚠️ [PLACE ORDER] Invalid order", fields...)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("❌ [PLACE ORDER] Failed", fields...)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to place order"})
		}
		return
	}

	span.SetAttributes(attribute.Bool("replayed", replayed))
	c.JSON(http.StatusOK, PlaceOrderResponse{
		Supplier:              h.useCase.SupplierName(),
		SupplierOrderID:       order.ID,
		ConfirmedDeliveryDays: order.DeliveryDays,
	})
}

// GetOrder retorna um pedido confirmado pelo id do pedido do cliente
func (h *InventoryHandler) GetOrder(c *gin.Context) {
	order, err := h.useCase.GetOrder(c.Request.Context(), c.Param("customer_order_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get order"})
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListInventory retorna o catálogo com o estoque atual
func (h *InventoryHandler) ListInventory(c *gin.Context) {
	items, err := h.useCase.ListInventory(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list inventory"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"supplier": h.useCase.SupplierName(),
		"items":    items,
	})
}

// HealthCheck verifica a saúde do serviço
func (h *InventoryHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "supplier-service",
		"supplier": h.useCase.SupplierName(),
	})
}

const correlationIDKey = "correlation_id"

// RequestMiddleware garante o correlation id e registra cada requisição
func RequestMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := strings.TrimSpace(c.GetHeader(CorrelationIDHeader))
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		c.Set(correlationIDKey, correlationID)
		c.Header(CorrelationIDHeader, correlationID)

		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("correlation_id", correlationID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
