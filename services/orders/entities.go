package main

import (
	"github.com/shopspring/decimal"
)

// OrderStatus representa os possíveis status de um pedido
const (
	OrderStatusConfirmed       = "Confirmed"
	OrderStatusRejected        = "Rejected"
	OrderStatusPartiallyPlaced = "PartiallyPlaced"
)

// RejectionReasonInsufficientStock é o motivo usado quando algum item não tem estoque suficiente
const RejectionReasonInsufficientStock = "Insufficient stock for some items"

// OrderLine representa um item solicitado pelo cliente
type OrderLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// SupplierQuote representa a cotação de um fornecedor para um produto
type SupplierQuote struct {
	SupplierID   string          `json:"supplier_id"`
	ProductID    string          `json:"product_id"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	AvailableQty int             `json:"available_qty"`
	EtaDays      int             `json:"eta_days"`
}

// Allocation representa a quantidade de um produto atribuída a um fornecedor
type Allocation struct {
	ProductID  string          `json:"product_id"`
	SupplierID string          `json:"supplier"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	EtaDays    int             `json:"delivery_days"`
}

// Shortfall registra que um item não pode ser atendido somando todos os fornecedores
type Shortfall struct {
	ProductID      string `json:"product_id"`
	Requested      int    `json:"requested"`
	AvailableTotal int    `json:"available_total"`
	Missing        int    `json:"missing"`
}

// NewShortfall cria um Shortfall calculando a quantidade faltante
func NewShortfall(productID string, requested, availableTotal int) Shortfall {
	return Shortfall{
		ProductID:      productID,
		Requested:      requested,
		AvailableTotal: availableTotal,
		Missing:        requested - availableTotal,
	}
}

// SupplierOrderConfirmation representa o pedido confirmado por um fornecedor
type SupplierOrderConfirmation struct {
	SupplierID       string `json:"supplier"`
	SupplierOrderID  string `json:"supplier_order_id"`
	ConfirmedEtaDays int    `json:"delivery_days"`
}

// ConfirmedOrder é a variante de sucesso de OrderResult
type ConfirmedOrder struct {
	OrderID       string
	Status        string
	FinalEtaDays  int
	Allocations   []Allocation
	Confirmations []SupplierOrderConfirmation
}

// NewConfirmedOrder monta o pedido confirmado; o prazo final é o maior prazo confirmado
func NewConfirmedOrder(orderID string, allocations []Allocation, confirmations []SupplierOrderConfirmation) *ConfirmedOrder {
	finalEta := 0
	for _, c := range confirmations {
		if c.ConfirmedEtaDays > finalEta {
			finalEta = c.ConfirmedEtaDays
		}
	}

	return &ConfirmedOrder{
		OrderID:       orderID,
		Status:        OrderStatusConfirmed,
		FinalEtaDays:  finalEta,
		Allocations:   allocations,
		Confirmations: confirmations,
	}
}

// RejectedOrder é a variante de rejeição de OrderResult
type RejectedOrder struct {
	Reason     string
	Shortfalls []Shortfall
}

// OrderResult é o resultado do processamento; exatamente uma variante é preenchida
type OrderResult struct {
	CorrelationID string
	Confirmed     *ConfirmedOrder
	Rejected      *RejectedOrder
}

// IsRejected indica se o pedido foi rejeitado por falta de estoque
func (r OrderResult) IsRejected() bool {
	return r.Rejected != nil
}
