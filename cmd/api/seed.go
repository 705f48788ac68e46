package main

import (
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
)

// seedDemo carga un catálogo mínimo para probar la API sin base de datos.
func seedDemo(store *memory.Store) {
	store.AddLocation(entity.Location{ID: "loc-main", Code: "MAIN", Name: "Bodega principal", Active: true})
	store.AddLocation(entity.Location{ID: "loc-north", Code: "NORTH", Name: "Bodega norte", Active: true})
	store.AddSupplier(entity.Supplier{ID: "sup-acme", Name: "Acme Distribuciones", Active: true})
	store.AddProduct(entity.Product{
		ID: "prod-cable", SKU: "CAB-001", Name: "Cable UTP Cat6 (caja)",
		Cost: decimal.NewFromInt(42), ReorderPoint: 10, ReorderQuantity: 50, Active: true,
	})
	store.AddProduct(entity.Product{
		ID: "prod-switch", SKU: "SW-024", Name: "Switch 24 puertos",
		Cost: decimal.NewFromInt(180), ReorderPoint: 3, ReorderQuantity: 10, Active: true,
	})
}
