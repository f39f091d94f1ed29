package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// OrderUseCase orquestra cotação, alocação e colocação dos pedidos nos fornecedores
type OrderUseCase struct {
	suppliers []SupplierClient
	byName    map[string]SupplierClient
	engine    AllocationEngine
	tracer    trace.Tracer
	metrics   *OrderMetrics
	logger    *zap.Logger

	newOrderID       func() string
	newCorrelationID func() string
}

// NewOrderUseCase cria o orquestrador com o conjunto fixo de fornecedores.
// A ordem de suppliers é a ordem usada no desempate da alocação.
func NewOrderUseCase(
	suppliers []SupplierClient,
	engine AllocationEngine,
	tracer trace.Tracer,
	metrics *OrderMetrics,
	logger *zap.Logger,
) (*OrderUseCase, error) {
	if len(suppliers) == 0 {
		return nil, errors.New("at least one supplier is required")
	}

	byName := make(map[string]SupplierClient, len(suppliers))
	for _, s := range suppliers {
		key := strings.ToLower(s.Name())
		if _, dup := byName[key]; dup {
			return nil, fmt.Errorf("duplicate supplier %q", s.Name())
		}
		byName[key] = s
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &OrderUseCase{
		suppliers:        suppliers,
		byName:           byName,
		engine:           engine,
		tracer:           tracer,
		metrics:          metrics,
		logger:           logger,
		newOrderID:       generateOrderID,
		newCorrelationID: uuid.NewString,
	}, nil
}

// generateOrderID gera um id opaco e único para o pedido do cliente
func generateOrderID() string {
	return "GH-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ProcessOrder executa o fluxo completo de um pedido.
//
// Retorna erro *ValidationError para entrada inválida, *SupplierCommunicationError
// quando alguma cotação falha e *PartialPlacementError quando alguma colocação falha.
// Falta de estoque não é erro: vem em OrderResult.Rejected.
func (uc *OrderUseCase) ProcessOrder(ctx context.Context, customerName string, lines []OrderLine, correlationID string) (OrderResult, error) {
	if correlationID == "" {
		correlationID = uc.newCorrelationID()
	}
	result := OrderResult{CorrelationID: correlationID}
	log := uc.logger.With(zap.String("correlation_id", correlationID))

	if verr := ValidateOrder(customerName, lines); verr != nil {
		log.Warn("⚠️ Invalid order request", zap.Error(verr))
		uc.metrics.RecordOrder(ctx, OutcomeInvalid)
		return result, verr
	}

	ctx, span := uc.tracer.Start(ctx, "orders.ProcessOrder")
	defer span.End()
	span.SetAttributes(
		attribute.String("correlation_id", correlationID),
		attribute.String("customer_name", customerName),
		attribute.Int("order.lines", len(lines)),
		attribute.Int("order.suppliers", len(uc.suppliers)),
	)

	log.Info("📦 Processing order", zap.String("customer", customerName), zap.Int("lines", len(lines)))

	// Fase 1: cotação em todos os fornecedores
	quotes, err := uc.collectQuotes(ctx, correlationID, lines)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "quote fan-out failed")
		log.Error("❌ Quote fan-out failed", zap.Error(err))
		uc.metrics.RecordOrder(ctx, outcomeFor(err, OutcomeQuoteFailed))
		return result, err
	}

	// Fase 2: alocação
	_, allocSpan := uc.tracer.Start(ctx, "orders.allocate")
	allocations, shortfalls := uc.engine.Allocate(lines, quotes)
	allocSpan.SetAttributes(
		attribute.Int("allocation.count", len(allocations)),
		attribute.Int("allocation.shortfalls", len(shortfalls)),
	)
	allocSpan.End()

	if len(shortfalls) > 0 {
		span.SetAttributes(attribute.String("order.status", OrderStatusRejected))
		log.Warn("⚠️ Insufficient stock for some items", zap.Int("shortfalls", len(shortfalls)))
		uc.metrics.RecordOrder(ctx, OutcomeRejected)
		result.Rejected = &RejectedOrder{
			Reason:     RejectionReasonInsufficientStock,
			Shortfalls: shortfalls,
		}
		return result, nil
	}

	// Nada foi enviado aos fornecedores ainda; cancelar aqui é limpo
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		uc.metrics.RecordOrder(ctx, OutcomeCanceled)
		return result, err
	}

	// Fase 3: colocação por fornecedor
	orderID := uc.newOrderID()
	span.SetAttributes(attribute.String("order_id", orderID))
	log = log.With(zap.String("order_id", orderID))

	confirmations, err := uc.placeOrders(ctx, correlationID, orderID, allocations)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "placement failed")
		log.Error("❌ Order placement failed", zap.Error(err))
		outcome := OutcomeFailed
		if errors.Is(err, ErrPartiallyPlaced) {
			outcome = OutcomePartiallyPlaced
		}
		uc.metrics.RecordOrder(ctx, outcome)
		return result, err
	}

	result.Confirmed = NewConfirmedOrder(orderID, allocations, confirmations)
	span.SetAttributes(
		attribute.String("order.status", OrderStatusConfirmed),
		attribute.Int("order.final_eta_days", result.Confirmed.FinalEtaDays),
	)
	span.SetStatus(codes.Ok, "order confirmed")
	log.Info("✅ Order processed successfully",
		zap.Int("supplier_orders", len(confirmations)),
		zap.Int("final_eta_days", result.Confirmed.FinalEtaDays),
	)
	uc.metrics.RecordOrder(ctx, OutcomeConfirmed)
	return result, nil
}

// collectQuotes envia a mesma cotação a todos os fornecedores em paralelo e espera todos.
// A primeira falha cancela as demais cotações.
func (uc *OrderUseCase) collectQuotes(ctx context.Context, correlationID string, lines []OrderLine) ([][]SupplierQuote, error) {
	ctx, span := uc.tracer.Start(ctx, "orders.quote_fanout")
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)
	quotes := make([][]SupplierQuote, len(uc.suppliers))

	for i, supplier := range uc.suppliers {
		g.Go(func() error {
			q, err := supplier.Quote(gctx, correlationID, lines)
			if err != nil {
				return &SupplierCommunicationError{Supplier: supplier.Name(), Phase: PhaseQuote, Err: err}
			}
			quotes[i] = q
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return quotes, nil
}

// supplierGroup é o conjunto de alocações de um único fornecedor
type supplierGroup struct {
	client      SupplierClient
	allocations []Allocation
}

// groupBySupplier agrupa as alocações mantendo a ordem da primeira aparição de cada fornecedor
func (uc *OrderUseCase) groupBySupplier(allocations []Allocation) ([]supplierGroup, error) {
	var groups []supplierGroup
	index := make(map[string]int)

	for _, a := range allocations {
		key := strings.ToLower(a.SupplierID)
		if i, ok := index[key]; ok {
			groups[i].allocations = append(groups[i].allocations, a)
			continue
		}

		client, ok := uc.byName[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSupplier, a.SupplierID)
		}
		index[key] = len(groups)
		groups = append(groups, supplierGroup{client: client, allocations: []Allocation{a}})
	}

	return groups, nil
}

type placementResult struct {
	confirmation SupplierOrderConfirmation
	err          error
}

// placeOrders envia um pedido por fornecedor em paralelo. Cada colocação roda até o fim
// mesmo que outra falhe, para que o resultado de todos os grupos seja conhecido.
func (uc *OrderUseCase) placeOrders(ctx context.Context, correlationID, orderID string, allocations []Allocation) ([]SupplierOrderConfirmation, error) {
	groups, err := uc.groupBySupplier(allocations)
	if err != nil {
		return nil, err
	}

	ctx, span := uc.tracer.Start(ctx, "orders.placement_fanout")
	defer span.End()
	span.SetAttributes(attribute.Int("placement.groups", len(groups)))

	results := make([]placementResult, len(groups))
	var g errgroup.Group
	for i, group := range groups {
		g.Go(func() error {
			conf, err := group.client.PlaceOrder(ctx, correlationID, orderID, group.allocations)
			results[i] = placementResult{confirmation: conf, err: err}
			return nil
		})
	}
	_ = g.Wait()

	confirmations := make([]SupplierOrderConfirmation, 0, len(groups))
	var failed []SupplierFailure
	for i, r := range results {
		if r.err != nil {
			failed = append(failed, SupplierFailure{
				Supplier:    groups[i].client.Name(),
				Allocations: groups[i].allocations,
				Err:         &SupplierCommunicationError{Supplier: groups[i].client.Name(), Phase: PhasePlacement, Err: r.err},
			})
			continue
		}
		confirmations = append(confirmations, r.confirmation)
	}

	if len(failed) > 0 {
		perr := &PartialPlacementError{OrderID: orderID, Placed: confirmations, Failed: failed}
		span.RecordError(perr)
		return nil, perr
	}

	return confirmations, nil
}

// outcomeFor distingue cancelamento e timeout das demais falhas na métrica
func outcomeFor(err error, fallback string) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return OutcomeCanceled
	}
	return fallback
}
