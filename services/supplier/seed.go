package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Catalog é o catálogo inicial de um fornecedor
type Catalog struct {
	Name        string
	OrderPrefix string
	Items       []InventoryItem
}

type seedRow struct {
	productID    string
	price        int64
	stock        int
	deliveryDays int
}

func newCatalog(name, prefix string, rows []seedRow) Catalog {
	items := make([]InventoryItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, NewInventoryItem(r.productID, decimal.NewFromInt(r.price), r.stock, r.deliveryDays))
	}
	return Catalog{Name: name, OrderPrefix: prefix, Items: items}
}

var catalogs = []Catalog{
	newCatalog("TechWorld", "TW", []seedRow{
		{"P1001", 120, 10, 3},
		{"P1002", 90, 5, 4},
		{"P1003", 75, 8, 2},
		{"P1004", 200, 3, 6},
		{"P1005", 150, 6, 5},
		{"P1006", 780, 4, 5},
		{"P1007", 330, 7, 4},
		{"P1008", 110, 12, 2},
		{"P1009", 65, 10, 2},
		{"P1010", 180, 5, 3},
		{"P1011", 110, 8, 3},
		{"P1012", 120, 6, 3},
		{"P1013", 65, 14, 2},
		{"P1014", 140, 6, 4},
		{"P1015", 280, 5, 4},
		{"P1016", 220, 4, 5},
		{"P1017", 450, 5, 3},
		{"P1018", 48, 20, 2},
		{"P1019", 175, 5, 3},
		{"P1020", 160, 7, 3},
		{"P1021", 380, 4, 4},
		{"P1022", 65, 12, 2},
		{"P1023", 42, 25, 2},
		{"P1024", 210, 6, 3},
	}),
	newCatalog("ElectroCom", "EC", []seedRow{
		{"P1001", 125, 7, 5},
		{"P1002", 85, 10, 5},
		{"P1003", 80, 4, 3},
		{"P1004", 190, 6, 7},
		{"P1005", 160, 5, 4},
		{"P1006", 760, 5, 6},
		{"P1007", 345, 5, 5},
		{"P1008", 115, 10, 3},
	}),
	newCatalog("GadgetCentral", "GC", []seedRow{
		{"P1001", 118, 4, 6},
		{"P1002", 92, 8, 3},
		{"P1004", 195, 5, 5},
		{"P1006", 770, 3, 8},
		{"P1008", 108, 6, 4},
		{"P1010", 175, 9, 4},
		{"P1013", 62, 10, 4},
		{"P1018", 50, 15, 1},
		{"P1023", 40, 30, 5},
	}),
}

// CatalogFor retorna o catálogo inicial do fornecedor pelo nome
func CatalogFor(name string) (Catalog, error) {
	for _, c := range catalogs {
		if strings.EqualFold(c.Name, name) {
			items := make([]InventoryItem, len(c.Items))
			copy(items, c.Items)
			c.Items = items
			return c, nil
		}
	}
	return Catalog{}, fmt.Errorf("no catalog for supplier %q", name)
}
