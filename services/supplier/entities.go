package main

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem representa um produto do catálogo do fornecedor com seu estoque
type InventoryItem struct {
	ProductID             string          `json:"product_id" db:"product_id"`
	UnitPrice             decimal.Decimal `json:"unit_price" db:"unit_price"`
	CurrentStock          int             `json:"current_stock" db:"current_stock"`
	EstimatedDeliveryDays int             `json:"estimated_delivery_days" db:"delivery_days"`
	UpdatedAt             time.Time       `json:"updated_at" db:"updated_at"`
}

// NewInventoryItem cria uma nova instância de InventoryItem
func NewInventoryItem(productID string, unitPrice decimal.Decimal, stock, deliveryDays int) InventoryItem {
	return InventoryItem{
		ProductID:             productID,
		UnitPrice:             unitPrice,
		CurrentStock:          stock,
		EstimatedDeliveryDays: deliveryDays,
		UpdatedAt:             time.Now(),
	}
}

// OrderItem é um par produto/quantidade, usado na cotação e no pedido
type OrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ProductQuote representa a cotação de um item; produtos desconhecidos vêm zerados
type ProductQuote struct {
	ProductID             string          `json:"product_id"`
	UnitPrice             decimal.Decimal `json:"unit_price"`
	AvailableQty          int             `json:"available_qty"`
	EstimatedDeliveryDays int             `json:"estimated_delivery_days"`
}

// SupplierOrder representa um pedido confirmado pelo fornecedor
type SupplierOrder struct {
	ID              string      `json:"supplier_order_id" db:"id"`
	CustomerOrderID string      `json:"customer_order_id" db:"customer_order_id"`
	DeliveryDays    int         `json:"confirmed_delivery_days" db:"delivery_days"`
	Items           []OrderItem `json:"items"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
}

// InventoryMovement representa uma movimentação de estoque
type InventoryMovement struct {
	ID             string    `json:"id" db:"id"`
	ProductID      string    `json:"product_id" db:"product_id"`
	OrderID        string    `json:"order_id" db:"order_id"`
	ChangeQuantity int       `json:"change_quantity" db:"change_quantity"`
	MovementType   string    `json:"movement_type" db:"movement_type"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// MovementType representa os tipos de movimentação de estoque
const (
	MovementTypeDecreased = "decreased"
)
