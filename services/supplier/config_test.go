package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogFor(t *testing.T) {
	for _, name := range []string{"TechWorld", "electrocom", "GADGETCENTRAL"} {
		c, err := CatalogFor(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, c.Items)
		assert.NotEmpty(t, c.OrderPrefix)
	}

	_, err := CatalogFor("Nobody")
	assert.Error(t, err)
}

func TestCatalogFor_ReturnsACopy(t *testing.T) {
	c, err := CatalogFor("ElectroCom")
	require.NoError(t, err)
	c.Items[0].CurrentStock = -1

	again, err := CatalogFor("ElectroCom")
	require.NoError(t, err)
	assert.Equal(t, 7, again.Items[0].CurrentStock)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SUPPLIER_NAME", "electrocom")
	t.Setenv("SUPPLIER_ORDER_PREFIX", "")
	t.Setenv("STORAGE", "")
	t.Setenv("DATABASE_HOST", "db")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "ElectroCom", cfg.SupplierName)
	assert.Equal(t, "EC", cfg.OrderPrefix)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Contains(t, cfg.DatabaseDSN, "@db:5432/")
}

func TestLoadConfig_InvalidStorage(t *testing.T) {
	t.Setenv("STORAGE", "redis")

	_, err := LoadConfig()

	assert.Error(t, err)
}
