package main

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyOrder        = errors.New("order has no allocations")
)

// StockError informa qual produto não tem estoque suficiente para o pedido
type StockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// InventoryUseCase contém a lógica de negócio do ledger do fornecedor
type InventoryUseCase struct {
	repository   InventoryRepository
	tracer       trace.Tracer
	logger       *zap.Logger
	supplierName string
	orderPrefix  string
	placements   metric.Int64Counter
}

// NewInventoryUseCase cria uma nova instância de InventoryUseCase
func NewInventoryUseCase(
	repository InventoryRepository,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *zap.Logger,
	supplierName string,
	orderPrefix string,
) (*InventoryUseCase, error) {
	placements, err := meter.Int64Counter(
		"supplier.orders.placed",
		metric.WithDescription("Supplier order placements by outcome"),
	)
	if err != nil {
		return nil, err
	}

	return &InventoryUseCase{
		repository:   repository,
		tracer:       tracer,
		logger:       logger,
		supplierName: supplierName,
		orderPrefix:  orderPrefix,
		placements:   placements,
	}, nil
}

// SupplierName retorna o nome de exibição do fornecedor
func (uc *InventoryUseCase) SupplierName() string {
	return uc.supplierName
}

// Quote devolve uma cotação por item pedido, na mesma ordem. Não reserva estoque.
func (uc *InventoryUseCase) Quote(ctx context.Context, items []OrderItem) ([]ProductQuote, error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.quote")
	defer span.End()
	span.SetAttributes(attribute.Int("quote.items", len(items)))

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, err := uc.repository.GetProducts(ctx, ids)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	quotes := make([]ProductQuote, 0, len(items))
	for _, item := range items {
		product, ok := products[productKey(item.ProductID)]
		if !ok {
			quotes = append(quotes, ProductQuote{ProductID: item.ProductID, UnitPrice: decimal.Zero})
			continue
		}
		quotes = append(quotes, ProductQuote{
			ProductID:             item.ProductID,
			UnitPrice:             product.UnitPrice,
			AvailableQty:          product.CurrentStock,
			EstimatedDeliveryDays: product.EstimatedDeliveryDays,
		})
	}

	return quotes, nil
}

// aggregateItems soma quantidades do mesmo produto e ordena pelo id, que é a ordem de lock
func aggregateItems(items []OrderItem) []OrderItem {
	index := make(map[string]int, len(items))
	var out []OrderItem
	for _, item := range items {
		key := productKey(item.ProductID)
		if i, ok := index[key]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[key] = len(out)
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return productKey(out[i].ProductID) < productKey(out[j].ProductID) })
	return out
}

// PlaceOrder confirma o pedido usando Lock Pessimista: ou todos os itens são
// debitados ou nenhum. Um customerOrderID repetido devolve o pedido original
// sem debitar de novo; replayed indica esse caso.
func (uc *InventoryUseCase) PlaceOrder(ctx context.Context, customerOrderID string, items []OrderItem) (order *SupplierOrder, replayed bool, err error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.place_order")
	defer span.End()
	span.SetAttributes(
		attribute.String("customer_order_id", customerOrderID),
		attribute.Int("order.items", len(items)),
	)
	log := uc.logger.With(zap.String("customer_order_id", customerOrderID))

	defer func() {
		outcome := "confirmed"
		switch {
		case err != nil:
			outcome = "failed"
			span.RecordError(err)
			span.SetStatus(codes.Error, "placement failed")
		case replayed:
			outcome = "replayed"
		}
		uc.placements.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}()

	if len(items) == 0 {
		return nil, false, ErrEmptyOrder
	}
	lines := aggregateItems(items)

	log.Info("➡️ [PLACE ORDER] Processing", zap.Int("items", len(lines)))

	// 1. Inicia a transação
	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 2. Serializa pedidos com o mesmo id do cliente, mesmo com produtos diferentes
	if err := uc.repository.LockCustomerOrder(ctx, tx, customerOrderID); err != nil {
		return nil, false, err
	}

	// 3. Obtém os produtos com LOCK PESSIMISTA, sempre na mesma ordem
	products := make([]*InventoryItem, 0, len(lines))
	for _, line := range lines {
		product, err := uc.repository.GetProductForUpdate(ctx, tx, line.ProductID)
		if err != nil {
			log.Warn("❌ [PLACE ORDER] Product lookup failed", zap.String("product_id", line.ProductID), zap.Error(err))
			return nil, false, err
		}
		products = append(products, product)
	}

	// 4. Verificar idempotência dentro da transação
	existing, err := uc.repository.GetOrderByCustomerOrderID(ctx, tx, customerOrderID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing != nil {
		log.Info("ℹ️ [IDEMPOTENCY] Order already placed", zap.String("supplier_order_id", existing.ID))
		return existing, true, nil
	}

	// 5. Regra de Negócio: verifica estoque de todos os itens antes de debitar
	deliveryDays := 0
	for i, line := range lines {
		if line.Quantity > products[i].CurrentStock {
			serr := &StockError{ProductID: line.ProductID, Requested: line.Quantity, Available: products[i].CurrentStock}
			log.Warn("❌ [PLACE ORDER] Insufficient stock", zap.Error(serr))
			return nil, false, serr
		}
		deliveryDays = max(deliveryDays, products[i].EstimatedDeliveryDays)
	}

	// 6. Reserva o número do pedido
	n, err := uc.repository.NextOrderNumber(ctx, tx)
	if err != nil {
		return nil, false, err
	}
	order = &SupplierOrder{
		ID:              fmt.Sprintf("%s-%d", uc.orderPrefix, n),
		CustomerOrderID: customerOrderID,
		DeliveryDays:    deliveryDays,
		Items:           make([]OrderItem, 0, len(lines)),
	}

	// 7. Executa a atualização do estoque e cria o registro de movimento
	for i, line := range lines {
		if err := uc.repository.DecreaseStock(ctx, tx, products[i].ProductID, order.ID, line.Quantity); err != nil {
			log.Error("❌ [PLACE ORDER] Failed to update stock", zap.Error(err))
			return nil, false, err
		}
		order.Items = append(order.Items, OrderItem{ProductID: products[i].ProductID, Quantity: line.Quantity})
	}

	if err := uc.repository.CreateOrder(ctx, tx, order); err != nil {
		return nil, false, err
	}

	// 8. Commit da transação
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit order: %w", err)
	}

	span.SetAttributes(attribute.String("supplier_order_id", order.ID))
	log.Info("✅ [PLACE ORDER] Success",
		zap.String("supplier_order_id", order.ID),
		zap.Int("delivery_days", order.DeliveryDays),
	)
	return order, false, nil
}

// GetOrder busca um pedido confirmado pelo id do pedido do cliente
func (uc *InventoryUseCase) GetOrder(ctx context.Context, customerOrderID string) (*SupplierOrder, error) {
	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	return uc.repository.GetOrderByCustomerOrderID(ctx, tx, customerOrderID)
}

// ListInventory retorna o catálogo com o estoque atual
func (uc *InventoryUseCase) ListInventory(ctx context.Context) ([]InventoryItem, error) {
	return uc.repository.ListProducts(ctx)
}
