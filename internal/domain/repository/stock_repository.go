package repository

import (
	"context"

	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// StockLevelRepository define el puerto para consultar/actualizar existencias por producto+ubicación.
// GetForUpdate y Save solo tienen sentido dentro de una unidad de trabajo.
type StockLevelRepository interface {
	// Get devuelve la existencia o una en cero si la fila aún no existe.
	Get(ctx context.Context, productID, locationID string) (*entity.StockLevel, error)
	// GetForUpdate crea la fila si falta y la bloquea hasta el fin de la unidad de trabajo.
	GetForUpdate(ctx context.Context, productID, locationID string) (*entity.StockLevel, error)
	Save(ctx context.Context, level *entity.StockLevel) error
	List(ctx context.Context, filter StockLevelFilter) ([]*entity.StockLevel, error)
	SumByProduct(ctx context.Context, productID string) (entity.ProductStock, error)
}

// StockLevelFilter filtros opcionales para listar existencias.
type StockLevelFilter struct {
	ProductID  string
	LocationID string
	Limit      int
	Offset     int
}
