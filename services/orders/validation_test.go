package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOrder(t *testing.T) {
	tests := []struct {
		name     string
		customer string
		lines    []OrderLine
		fields   []string
		message  string
	}{
		{
			name:     "valid",
			customer: "Alice",
			lines:    []OrderLine{{ProductID: "P1001", Quantity: 1}, {ProductID: "P1002", Quantity: 3}},
		},
		{
			name:     "blank customer",
			customer: "   ",
			lines:    []OrderLine{{ProductID: "P1001", Quantity: 1}},
			fields:   []string{"customer_name"},
			message:  "Customer name is required.",
		},
		{
			name:     "no items",
			customer: "Alice",
			fields:   []string{"items"},
			message:  "At least one item is required.",
		},
		{
			name:     "blank product",
			customer: "Alice",
			lines:    []OrderLine{{ProductID: " ", Quantity: 1}},
			fields:   []string{"items"},
			message:  "Item 1: product_id is required.",
		},
		{
			name:     "zero quantity",
			customer: "Alice",
			lines:    []OrderLine{{ProductID: "P1001", Quantity: 1}, {ProductID: "P1002", Quantity: 0}},
			fields:   []string{"items"},
			message:  "Item 2: quantity must be greater than zero.",
		},
		{
			name:     "negative quantity",
			customer: "Alice",
			lines:    []OrderLine{{ProductID: "P1001", Quantity: -4}},
			fields:   []string{"items"},
			message:  "Item 1: quantity must be greater than zero.",
		},
		{
			// Duas linhas do mesmo produto veriam o mesmo estoque de cada fornecedor
			name:     "duplicate product ignoring case",
			customer: "Alice",
			lines:    []OrderLine{{ProductID: "P1001", Quantity: 1}, {ProductID: "p1001", Quantity: 2}},
			fields:   []string{"items"},
			message:  "Item 2: product_id p1001 duplicates item 1.",
		},
		{
			name:     "everything wrong",
			customer: "",
			lines:    []OrderLine{{ProductID: "", Quantity: 0}},
			fields:   []string{"customer_name", "items"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateOrder(tt.customer, tt.lines)

			if len(tt.fields) == 0 {
				assert.Nil(t, verr)
				return
			}

			require.NotNil(t, verr)
			for _, f := range tt.fields {
				assert.Contains(t, verr.Fields, f)
			}
			assert.Len(t, verr.Fields, len(tt.fields))
			if tt.message != "" {
				assert.Contains(t, verr.Fields[tt.fields[0]], tt.message)
			}
		})
	}
}
