package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var errTxDone = errors.New("transaction already finished")

// MemoryInventoryRepository implementa InventoryRepository em memória.
// Uma transação segura o lock do ledger do BeginTx até o Commit ou Rollback,
// então check-and-decrement é serializado por fornecedor.
type MemoryInventoryRepository struct {
	mu        sync.Mutex
	items     map[string]InventoryItem
	orders    map[string]SupplierOrder
	movements []InventoryMovement
	orderSeq  int64
}

// NewMemoryInventoryRepository cria o ledger com o catálogo informado
func NewMemoryInventoryRepository(seed []InventoryItem) *MemoryInventoryRepository {
	items := make(map[string]InventoryItem, len(seed))
	for _, item := range seed {
		items[productKey(item.ProductID)] = item
	}

	return &MemoryInventoryRepository{
		items:    items,
		orders:   make(map[string]SupplierOrder),
		orderSeq: 1000,
	}
}

// memoryTx acumula as alterações até o Commit
type memoryTx struct {
	repo      *MemoryInventoryRepository
	stock     map[string]int
	orders    []SupplierOrder
	movements []InventoryMovement
	done      bool
}

func (t *memoryTx) Commit() error {
	if t.done {
		return errTxDone
	}
	t.done = true
	defer t.repo.mu.Unlock()

	now := time.Now()
	for key, stock := range t.stock {
		item := t.repo.items[key]
		item.CurrentStock = stock
		item.UpdatedAt = now
		t.repo.items[key] = item
	}
	for _, order := range t.orders {
		t.repo.orders[order.CustomerOrderID] = order
	}
	t.repo.movements = append(t.repo.movements, t.movements...)
	return nil
}

// Rollback depois de um Commit não faz nada
func (t *memoryTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.repo.mu.Unlock()
	return nil
}

func (r *MemoryInventoryRepository) memTx(tx Tx) (*memoryTx, error) {
	mtx, ok := tx.(*memoryTx)
	if !ok || mtx.repo != r {
		return nil, errForeignTx
	}
	if mtx.done {
		return nil, errTxDone
	}
	return mtx, nil
}

// BeginTx inicia uma nova transação
func (r *MemoryInventoryRepository) BeginTx(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	return &memoryTx{repo: r, stock: make(map[string]int)}, nil
}

// ListProducts retorna o catálogo completo ordenado pelo id do produto
func (r *MemoryInventoryRepository) ListProducts(ctx context.Context) ([]InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]InventoryItem, 0, len(r.items))
	for _, item := range r.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items, nil
}

// GetProducts busca os produtos informados; a chave do mapa é o id em minúsculas
func (r *MemoryInventoryRepository) GetProducts(ctx context.Context, productIDs []string) (map[string]InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]InventoryItem, len(productIDs))
	for _, id := range productIDs {
		key := productKey(id)
		if item, ok := r.items[key]; ok {
			out[key] = item
		}
	}
	return out, nil
}

// GetProductForUpdate retorna o produto como visto pela transação
func (r *MemoryInventoryRepository) GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*InventoryItem, error) {
	mtx, err := r.memTx(tx)
	if err != nil {
		return nil, err
	}

	key := productKey(productID)
	item, ok := r.items[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	if stock, staged := mtx.stock[key]; staged {
		item.CurrentStock = stock
	}
	return &item, nil
}

// GetOrderByCustomerOrderID busca um pedido já confirmado; retorna nil quando não existe
func (r *MemoryInventoryRepository) GetOrderByCustomerOrderID(ctx context.Context, tx Tx, customerOrderID string) (*SupplierOrder, error) {
	mtx, err := r.memTx(tx)
	if err != nil {
		return nil, err
	}

	for _, order := range mtx.orders {
		if order.CustomerOrderID == customerOrderID {
			return &order, nil
		}
	}
	if order, ok := r.orders[customerOrderID]; ok {
		return &order, nil
	}
	return nil, nil
}

// LockCustomerOrder não faz nada além de validar a transação: o lock do ledger já serializa tudo
func (r *MemoryInventoryRepository) LockCustomerOrder(ctx context.Context, tx Tx, customerOrderID string) error {
	_, err := r.memTx(tx)
	return err
}

// NextOrderNumber reserva o próximo número de pedido; números de transações desfeitas não são reutilizados
func (r *MemoryInventoryRepository) NextOrderNumber(ctx context.Context, tx Tx) (int64, error) {
	if _, err := r.memTx(tx); err != nil {
		return 0, err
	}
	r.orderSeq++
	return r.orderSeq, nil
}

// DecreaseStock diminui o estoque e registra o movimento
func (r *MemoryInventoryRepository) DecreaseStock(ctx context.Context, tx Tx, productID, orderID string, quantity int) error {
	mtx, err := r.memTx(tx)
	if err != nil {
		return err
	}

	key := productKey(productID)
	item, ok := r.items[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}

	current := item.CurrentStock
	if stock, staged := mtx.stock[key]; staged {
		current = stock
	}
	if quantity > current {
		return fmt.Errorf("failed to decrease stock: %s has %d, requested %d", productID, current, quantity)
	}
	mtx.stock[key] = current - quantity

	mtx.movements = append(mtx.movements, InventoryMovement{
		ID:             uuid.New().String(),
		ProductID:      item.ProductID,
		OrderID:        orderID,
		ChangeQuantity: quantity,
		MovementType:   MovementTypeDecreased,
		CreatedAt:      time.Now(),
	})
	return nil
}

// CreateOrder registra o pedido confirmado
func (r *MemoryInventoryRepository) CreateOrder(ctx context.Context, tx Tx, order *SupplierOrder) error {
	mtx, err := r.memTx(tx)
	if err != nil {
		return err
	}
	if _, exists := r.orders[order.CustomerOrderID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateOrder, order.CustomerOrderID)
	}
	for _, staged := range mtx.orders {
		if staged.CustomerOrderID == order.CustomerOrderID {
			return fmt.Errorf("%w: %s", ErrDuplicateOrder, order.CustomerOrderID)
		}
	}

	order.CreatedAt = time.Now()
	stored := *order
	stored.Items = append([]OrderItem(nil), order.Items...)
	mtx.orders = append(mtx.orders, stored)
	return nil
}

// movementsFor retorna as movimentações confirmadas de um pedido do fornecedor
func (r *MemoryInventoryRepository) movementsFor(orderID string) []InventoryMovement {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []InventoryMovement
	for _, m := range r.movements {
		if m.OrderID == orderID {
			out = append(out, m)
		}
	}
	return out
}
