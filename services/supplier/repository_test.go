package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostgresRepository_RejectsForeignTransaction(t *testing.T) {
	// Arrange
	repo := NewPostgresInventoryRepository(nil)
	foreign := &memoryTx{}
	ctx := context.Background()

	// Act & Assert: nenhum método entra em pânico com uma transação de outro repositório
	assert.ErrorIs(t, repo.LockCustomerOrder(ctx, foreign, "GH-1"), errForeignTx)
	_, err := repo.GetProductForUpdate(ctx, foreign, "P1001")
	assert.ErrorIs(t, err, errForeignTx)
	_, err = repo.GetOrderByCustomerOrderID(ctx, foreign, "GH-1")
	assert.ErrorIs(t, err, errForeignTx)
	_, err = repo.NextOrderNumber(ctx, foreign)
	assert.ErrorIs(t, err, errForeignTx)
	assert.ErrorIs(t, repo.DecreaseStock(ctx, foreign, "P1001", "TW-1", 1), errForeignTx)
	assert.ErrorIs(t, repo.CreateOrder(ctx, foreign, &SupplierOrder{ID: "TW-1"}), errForeignTx)
}
