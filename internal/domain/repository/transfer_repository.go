package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// StockTransferRepository persiste transferencias entre ubicaciones.
type StockTransferRepository interface {
	Create(ctx context.Context, t *entity.StockTransfer) error
	GetByID(ctx context.Context, id string) (*entity.StockTransfer, error)
	GetForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error)
	Update(ctx context.Context, t *entity.StockTransfer) error
}

// StockAlertRepository persiste alertas de existencias.
type StockAlertRepository interface {
	// FindOpen devuelve la alerta abierta del tipo para la clave, o nil.
	FindOpen(ctx context.Context, productID, locationID string, typ entity.AlertType) (*entity.StockAlert, error)
	Create(ctx context.Context, a *entity.StockAlert) error
	GetByID(ctx context.Context, id string) (*entity.StockAlert, error)
	Resolve(ctx context.Context, id string, at time.Time) error
	ListOpen(ctx context.Context, limit, offset int) ([]*entity.StockAlert, error)
}
