package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// TransactionRepository persiste el historial inmutable de transacciones. No hay Update ni Delete.
type TransactionRepository interface {
	Create(ctx context.Context, tx *entity.Transaction) error
	GetByID(ctx context.Context, id string) (*entity.Transaction, error)
	// List ordena por secuencia descendente (lo más reciente primero).
	List(ctx context.Context, filter TransactionFilter) ([]*entity.Transaction, error)
}

// TransactionFilter filtros del historial. Campos vacíos no filtran; To es exclusivo.
type TransactionFilter struct {
	ProductID  string
	LocationID string
	Type       entity.TransactionType
	Reference  string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}
