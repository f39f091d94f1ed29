package main

import (
	"fmt"
	"strings"
)

// ValidateOrder verifica a entrada do cliente antes de qualquer chamada de rede.
// Retorna nil quando a entrada é válida.
func ValidateOrder(customerName string, lines []OrderLine) *ValidationError {
	verr := &ValidationError{}

	if strings.TrimSpace(customerName) == "" {
		verr.Add("customer_name", "Customer name is required.")
	}

	if len(lines) == 0 {
		verr.Add("items", "At least one item is required.")
		return verr
	}

	// Um produto por linha: a alocação trata cada linha contra o estoque total cotado
	seen := make(map[string]int, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line.ProductID) == "" {
			verr.Add("items", fmt.Sprintf("Item %d: product_id is required.", i+1))
		} else {
			key := strings.ToLower(line.ProductID)
			if first, ok := seen[key]; ok {
				verr.Add("items", fmt.Sprintf("Item %d: product_id %s duplicates item %d.", i+1, line.ProductID, first))
			} else {
				seen[key] = i + 1
			}
		}
		if line.Quantity <= 0 {
			verr.Add("items", fmt.Sprintf("Item %d: quantity must be greater than zero.", i+1))
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}
