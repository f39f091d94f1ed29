package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	quotePath      = "/api/quote"
	placeOrderPath = "/api/orders"
)

// ErrEmptySupplierOrderID é retornado quando o fornecedor confirma sem informar o id do pedido
var ErrEmptySupplierOrderID = errors.New("supplier confirmed without an order id")

// SupplierClient abstrai as operações de cotação e colocação de pedido de um fornecedor
type SupplierClient interface {
	Name() string
	Quote(ctx context.Context, correlationID string, lines []OrderLine) ([]SupplierQuote, error)
	PlaceOrder(ctx context.Context, correlationID, orderID string, allocations []Allocation) (SupplierOrderConfirmation, error)
}

// QuoteItemRequest representa um item da requisição de cotação
type QuoteItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// QuoteRequest representa a requisição de cotação enviada a todos os fornecedores
type QuoteRequest struct {
	Items []QuoteItemRequest `json:"items"`
}

// QuoteItemResponse representa a cotação de um item retornada pelo fornecedor
type QuoteItemResponse struct {
	ProductID             string          `json:"product_id"`
	UnitPrice             decimal.Decimal `json:"unit_price"`
	AvailableQty          int             `json:"available_qty"`
	EstimatedDeliveryDays int             `json:"estimated_delivery_days"`
}

// QuoteResponse representa a resposta de cotação do fornecedor
type QuoteResponse struct {
	Supplier string              `json:"supplier"`
	Quotes   []QuoteItemResponse `json:"quotes"`
}

// SupplierOrderAllocation representa um item do pedido enviado ao fornecedor
type SupplierOrderAllocation struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// SupplierOrderRequest representa o pedido enviado a um fornecedor
type SupplierOrderRequest struct {
	CustomerOrderID string                    `json:"customer_order_id"`
	Allocations     []SupplierOrderAllocation `json:"allocations"`
}

// SupplierOrderResponse representa a confirmação do fornecedor
type SupplierOrderResponse struct {
	Supplier              string `json:"supplier"`
	SupplierOrderID       string `json:"supplier_order_id"`
	ConfirmedDeliveryDays int    `json:"confirmed_delivery_days"`
}

type supplierErrorResponse struct {
	Error string `json:"error"`
}

// SupplierHTTPError representa uma resposta não 2xx de um fornecedor
type SupplierHTTPError struct {
	Supplier   string
	StatusCode int
	Message    string
}

func (e *SupplierHTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("supplier %s responded %d", e.Supplier, e.StatusCode)
	}
	return fmt.Sprintf("supplier %s responded %d: %s", e.Supplier, e.StatusCode, e.Message)
}

// HTTPSupplierClient implementa SupplierClient sobre HTTP; uma instância por fornecedor
type HTTPSupplierClient struct {
	name    string
	client  *resty.Client
	tracer  trace.Tracer
	metrics *OrderMetrics
}

// NewHTTPSupplierClient cria um cliente para o fornecedor configurado.
// O cliente não faz retry, então cada colocação é enviada no máximo uma vez.
func NewHTTPSupplierClient(cfg SupplierConfig, timeout time.Duration, tracer trace.Tracer, metrics *OrderMetrics) *HTTPSupplierClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &HTTPSupplierClient{
		name:    cfg.Name,
		client:  client,
		tracer:  tracer,
		metrics: metrics,
	}
}

// Name retorna o nome de exibição do fornecedor
func (c *HTTPSupplierClient) Name() string {
	return c.name
}

// Quote pede preço, estoque e prazo de todos os itens ao fornecedor
func (c *HTTPSupplierClient) Quote(ctx context.Context, correlationID string, lines []OrderLine) ([]SupplierQuote, error) {
	ctx, span := StartSupplierSpan(ctx, c.tracer, c.name, PhaseQuote, correlationID)
	defer span.End()

	body := QuoteRequest{Items: make([]QuoteItemRequest, 0, len(lines))}
	for _, line := range lines {
		body.Items = append(body.Items, QuoteItemRequest{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	start := time.Now()
	var out QuoteResponse
	resp, err := c.request(ctx, correlationID).
		SetBody(body).
		SetResult(&out).
		Post(quotePath)
	err = c.checkResponse(resp, err)
	c.metrics.RecordSupplierCall(ctx, c.name, PhaseQuote, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "quote failed")
		return nil, fmt.Errorf("quote: %w", err)
	}

	quotes := make([]SupplierQuote, 0, len(out.Quotes))
	for _, q := range out.Quotes {
		quotes = append(quotes, SupplierQuote{
			SupplierID:   c.name,
			ProductID:    q.ProductID,
			UnitPrice:    q.UnitPrice,
			AvailableQty: max(q.AvailableQty, 0),
			EtaDays:      max(q.EstimatedDeliveryDays, 0),
		})
	}

	span.SetStatus(codes.Ok, "quote received")
	return quotes, nil
}

// PlaceOrder envia ao fornecedor o grupo de alocações que foi atribuído a ele
func (c *HTTPSupplierClient) PlaceOrder(ctx context.Context, correlationID, orderID string, allocations []Allocation) (SupplierOrderConfirmation, error) {
	ctx, span := StartSupplierSpan(ctx, c.tracer, c.name, PhasePlacement, correlationID)
	defer span.End()
	span.AddEvent("placing supplier order")

	body := SupplierOrderRequest{
		CustomerOrderID: orderID,
		Allocations:     make([]SupplierOrderAllocation, 0, len(allocations)),
	}
	for _, a := range allocations {
		body.Allocations = append(body.Allocations, SupplierOrderAllocation{ProductID: a.ProductID, Quantity: a.Quantity})
	}

	start := time.Now()
	var out SupplierOrderResponse
	resp, err := c.request(ctx, correlationID).
		SetBody(body).
		SetResult(&out).
		Post(placeOrderPath)
	err = c.checkResponse(resp, err)
	if err == nil && out.SupplierOrderID == "" {
		err = ErrEmptySupplierOrderID
	}
	c.metrics.RecordSupplierCall(ctx, c.name, PhasePlacement, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "placement failed")
		return SupplierOrderConfirmation{}, fmt.Errorf("place order: %w", err)
	}

	span.SetStatus(codes.Ok, "supplier order confirmed")
	return SupplierOrderConfirmation{
		SupplierID:       c.name,
		SupplierOrderID:  out.SupplierOrderID,
		ConfirmedEtaDays: out.ConfirmedDeliveryDays,
	}, nil
}

// request prepara a requisição com o correlation id e o trace context do span atual
func (c *HTTPSupplierClient) request(ctx context.Context, correlationID string) *resty.Request {
	headers := http.Header{}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))

	r := c.client.R().
		SetContext(ctx).
		SetHeader(CorrelationIDHeader, correlationID).
		SetError(&supplierErrorResponse{})
	for key := range headers {
		r.SetHeader(key, headers.Get(key))
	}
	return r
}

func (c *HTTPSupplierClient) checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		// *url.Error mantém context.Canceled e DeadlineExceeded acessíveis via errors.Is
		return err
	}
	if resp.IsError() {
		herr := &SupplierHTTPError{Supplier: c.name, StatusCode: resp.StatusCode()}
		if body, ok := resp.Error().(*supplierErrorResponse); ok && body != nil {
			herr.Message = body.Error
		}
		return herr
	}
	if !resp.IsSuccess() {
		return &SupplierHTTPError{Supplier: c.name, StatusCode: resp.StatusCode(), Message: "unexpected status"}
	}
	return nil
}
