package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrProductNotFound é retornado quando o produto não existe no catálogo
	ErrProductNotFound = errors.New("product not found")
	// ErrDuplicateOrder é retornado quando o pedido do cliente já foi registrado
	ErrDuplicateOrder = errors.New("customer order already placed")

	errForeignTx = errors.New("transaction does not belong to this repository")
)

const uniqueViolation = "23505"

// InventoryRepository define a interface para operações de banco de dados de inventário.
// Produtos são procurados sem diferenciar maiúsculas de minúsculas.
type InventoryRepository interface {
	BeginTx(ctx context.Context) (Tx, error)
	LockCustomerOrder(ctx context.Context, tx Tx, customerOrderID string) error
	ListProducts(ctx context.Context) ([]InventoryItem, error)
	GetProducts(ctx context.Context, productIDs []string) (map[string]InventoryItem, error)
	GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*InventoryItem, error)
	GetOrderByCustomerOrderID(ctx context.Context, tx Tx, customerOrderID string) (*SupplierOrder, error)
	NextOrderNumber(ctx context.Context, tx Tx) (int64, error)
	DecreaseStock(ctx context.Context, tx Tx, productID, orderID string, quantity int) error
	CreateOrder(ctx context.Context, tx Tx, order *SupplierOrder) error
}

// Tx interface para transações
type Tx interface {
	Commit() error
	Rollback() error
}

func productKey(productID string) string {
	return strings.ToLower(strings.TrimSpace(productID))
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS supplier_inventory (
	product_id    TEXT PRIMARY KEY,
	unit_price    NUMERIC(12, 2) NOT NULL CHECK (unit_price >= 0),
	current_stock INT NOT NULL CHECK (current_stock >= 0),
	delivery_days INT NOT NULL CHECK (delivery_days >= 0),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS supplier_inventory_product_lower_idx ON supplier_inventory (lower(product_id));

CREATE TABLE IF NOT EXISTS supplier_orders (
	id                TEXT PRIMARY KEY,
	customer_order_id TEXT NOT NULL UNIQUE,
	delivery_days     INT NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS inventory_movements (
	id              UUID PRIMARY KEY,
	product_id      TEXT NOT NULL REFERENCES supplier_inventory (product_id),
	order_id        TEXT NOT NULL,
	change_quantity INT NOT NULL,
	movement_type   TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS inventory_movements_order_idx ON inventory_movements (order_id);

CREATE SEQUENCE IF NOT EXISTS supplier_order_seq START WITH 1001;
`

// PostgresInventoryRepository implementa InventoryRepository usando PostgreSQL
type PostgresInventoryRepository struct {
	db *pgxpool.Pool
}

// NewPostgresInventoryRepository cria uma nova instância de PostgresInventoryRepository
func NewPostgresInventoryRepository(db *pgxpool.Pool) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{
		db: db,
	}
}

// EnsureSchema cria as tabelas do ledger caso ainda não existam
func (r *PostgresInventoryRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Seed insere o catálogo inicial; produtos já existentes não são alterados
func (r *PostgresInventoryRepository) Seed(ctx context.Context, items []InventoryItem) error {
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(`
			INSERT INTO supplier_inventory (product_id, unit_price, current_stock, delivery_days)
			VALUES ($1, $2::numeric, $3, $4)
			ON CONFLICT (product_id) DO NOTHING
		`, item.ProductID, item.UnitPrice.String(), item.CurrentStock, item.EstimatedDeliveryDays)
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to seed inventory: %w", err)
	}
	return nil
}

// PostgresTx implementa a interface Tx
type PostgresTx struct {
	tx pgx.Tx
}

func (t *PostgresTx) Commit() error {
	return t.tx.Commit(context.Background())
}

func (t *PostgresTx) Rollback() error {
	err := t.tx.Rollback(context.Background())
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// BeginTx inicia uma nova transação
func (r *PostgresInventoryRepository) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &PostgresTx{tx: tx}, nil
}

func pgTxFrom(tx Tx) (pgx.Tx, error) {
	ptx, ok := tx.(*PostgresTx)
	if !ok || ptx == nil {
		return nil, errForeignTx
	}
	return ptx.tx, nil
}

// LockCustomerOrder serializa as transações do mesmo pedido do cliente com um advisory lock,
// liberado no fim da transação. Deve ser chamado antes dos locks de produto.
func (r *PostgresInventoryRepository) LockCustomerOrder(ctx context.Context, tx Tx, customerOrderID string) error {
	pgTx, err := pgTxFrom(tx)
	if err != nil {
		return err
	}

	if _, err := pgTx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, customerOrderID); err != nil {
		return fmt.Errorf("failed to lock customer order: %w", err)
	}
	return nil
}

func scanInventoryItem(row pgx.Row) (InventoryItem, error) {
	var item InventoryItem
	var price string
	if err := row.Scan(&item.ProductID, &price, &item.CurrentStock, &item.EstimatedDeliveryDays, &item.UpdatedAt); err != nil {
		return InventoryItem{}, err
	}

	unitPrice, err := decimal.NewFromString(price)
	if err != nil {
		return InventoryItem{}, fmt.Errorf("invalid unit price for %s: %w", item.ProductID, err)
	}
	item.UnitPrice = unitPrice
	return item, nil
}

// ListProducts retorna o catálogo completo ordenado pelo id do produto
func (r *PostgresInventoryRepository) ListProducts(ctx context.Context) ([]InventoryItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT product_id, unit_price::text, current_stock, delivery_days, updated_at
		FROM supplier_inventory
		ORDER BY product_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []InventoryItem
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetProducts busca os produtos informados; a chave do mapa é o id em minúsculas
func (r *PostgresInventoryRepository) GetProducts(ctx context.Context, productIDs []string) (map[string]InventoryItem, error) {
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		keys = append(keys, productKey(id))
	}

	rows, err := r.db.Query(ctx, `
		SELECT product_id, unit_price::text, current_stock, delivery_days, updated_at
		FROM supplier_inventory
		WHERE lower(product_id) = ANY($1)
	`, keys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[string]InventoryItem, len(keys))
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, err
		}
		items[productKey(item.ProductID)] = item
	}
	return items, rows.Err()
}

// GetProductForUpdate obtém o produto com lock pessimista (FOR UPDATE)
func (r *PostgresInventoryRepository) GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*InventoryItem, error) {
	pgTx, err := pgTxFrom(tx)
	if err != nil {
		return nil, err
	}

	item, err := scanInventoryItem(pgTx.QueryRow(ctx, `
		SELECT product_id, unit_price::text, current_stock, delivery_days, updated_at
		FROM supplier_inventory
		WHERE lower(product_id) = $1
		FOR UPDATE
	`, productKey(productID)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product with lock: %w", err)
	}

	return &item, nil
}

// GetOrderByCustomerOrderID busca um pedido já confirmado; retorna nil quando não existe
func (r *PostgresInventoryRepository) GetOrderByCustomerOrderID(ctx context.Context, tx Tx, customerOrderID string) (*SupplierOrder, error) {
	pgTx, err := pgTxFrom(tx)
	if err != nil {
		return nil, err
	}

	var order SupplierOrder
	err = pgTx.QueryRow(ctx, `
		SELECT id, customer_order_id, delivery_days, created_at
		FROM supplier_orders
		WHERE customer_order_id = $1
	`, customerOrderID).Scan(&order.ID, &order.CustomerOrderID, &order.DeliveryDays, &order.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get supplier order: %w", err)
	}

	// Os itens do pedido são reconstruídos a partir das movimentações
	rows, err := pgTx.Query(ctx, `
		SELECT product_id, change_quantity
		FROM inventory_movements
		WHERE order_id = $1 AND movement_type = $2
		ORDER BY created_at, product_id
	`, order.ID, MovementTypeDecreased)
	if err != nil {
		return nil, fmt.Errorf("failed to get order movements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &order, nil
}

// NextOrderNumber reserva o próximo número de pedido
func (r *PostgresInventoryRepository) NextOrderNumber(ctx context.Context, tx Tx) (int64, error) {
	pgTx, err := pgTxFrom(tx)
	if err != nil {
		return 0, err
	}

	var n int64
	if err = pgTx.QueryRow(ctx, `SELECT nextval('supplier_order_seq')`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to reserve order number: %w", err)
	}
	return n, nil
}

// DecreaseStock diminui o estoque e registra o movimento
func (r *PostgresInventoryRepository) DecreaseStock(ctx context.Context, tx Tx, productID, orderID string, quantity int) error {
	pgTx, err := pgTxFrom(tx)
	if err != nil {
		return err
	}

	// 1. Atualiza o estoque do produto
	tag, err := pgTx.Exec(ctx, `
		UPDATE supplier_inventory
		SET current_stock = current_stock - $2,
		    updated_at = NOW()
		WHERE product_id = $1
	`, productID, quantity)
	if err != nil {
		return fmt.Errorf("failed to decrease stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}

	// 2. Insere o registro de movimentação
	_, err = pgTx.Exec(ctx, `
		INSERT INTO inventory_movements (id, product_id, order_id, change_quantity, movement_type)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New().String(), productID, orderID, quantity, MovementTypeDecreased)
	if err != nil {
		return fmt.Errorf("failed to insert movement record: %w", err)
	}

	return nil
}

// CreateOrder registra o pedido confirmado
func (r *PostgresInventoryRepository) CreateOrder(ctx context.Context, tx Tx, order *SupplierOrder) error {
	pgTx, err := pgTxFrom(tx)
	if err != nil {
		return err
	}

	err = pgTx.QueryRow(ctx, `
		INSERT INTO supplier_orders (id, customer_order_id, delivery_days)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, order.ID, order.CustomerOrderID, order.DeliveryDays).Scan(&order.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicateOrder, order.CustomerOrderID)
	}
	if err != nil {
		return fmt.Errorf("failed to create supplier order: %w", err)
	}
	return nil
}
