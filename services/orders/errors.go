package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Erros sentinela usados para classificar falhas com errors.Is
var (
	ErrValidation      = errors.New("validation failed")
	ErrQuoteFailed     = errors.New("supplier quote failed")
	ErrPartiallyPlaced = errors.New("order partially placed")
	ErrUnknownSupplier = errors.New("unknown supplier")
)

// Phase identifica em qual etapa a comunicação com o fornecedor falhou
type Phase string

const (
	PhaseQuote     Phase = "quote"
	PhasePlacement Phase = "placement"
)

// ValidationError agrupa os problemas encontrados na entrada do cliente, por campo
type ValidationError struct {
	Fields map[string][]string
}

// Add registra uma mensagem para o campo
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// HasErrors indica se algum campo foi registrado
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
func (e *ValidationError) Kind() string  { return "validation" }

// SupplierCommunicationError representa uma falha ao falar com um fornecedor
type SupplierCommunicationError struct {
	Supplier string
	Phase    Phase
	Err      error
}

func (e *SupplierCommunicationError) Error() string {
	return fmt.Sprintf("supplier %s %s failed: %v", e.Supplier, e.Phase, e.Err)
}

// Is permite errors.Is(err, ErrQuoteFailed) para falhas de cotação
func (e *SupplierCommunicationError) Is(target error) bool {
	return target == ErrQuoteFailed && e.Phase == PhaseQuote
}

func (e *SupplierCommunicationError) Unwrap() error { return e.Err }

// Retryable indica que nenhum estado foi confirmado em nenhum fornecedor
func (e *SupplierCommunicationError) Retryable() bool {
	return e.Phase == PhaseQuote
}

func (e *SupplierCommunicationError) Kind() string {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(e.Err, context.Canceled) {
		return "canceled"
	}
	return "supplier_unavailable"
}

// SupplierFailure descreve um grupo de alocações cuja colocação falhou
type SupplierFailure struct {
	Supplier    string
	Allocations []Allocation
	Err         error
}

// PartialPlacementError é retornado quando pelo menos uma colocação falhou depois
// que o pedido passou pela checagem de estoque. Placed lista o que já foi confirmado
// e precisa de reconciliação externa.
type PartialPlacementError struct {
	OrderID string
	Placed  []SupplierOrderConfirmation
	Failed  []SupplierFailure
}

func (e *PartialPlacementError) Error() string {
	failed := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		failed = append(failed, fmt.Sprintf("%s (%v)", f.Supplier, f.Err))
	}
	return fmt.Sprintf("order %s partially placed: %d supplier order(s) confirmed, failed: %s",
		e.OrderID, len(e.Placed), strings.Join(failed, ", "))
}

func (e *PartialPlacementError) Unwrap() error { return ErrPartiallyPlaced }
func (e *PartialPlacementError) Kind() string  { return "partially_placed" }
