package inventory

import (
	"context"
	"errors"
	"io"
	"sort"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; si no, Commit. Errores de bloqueo se traducen a
// domain.ErrConcurrency y de unicidad a domain.ErrConflict.
type TxRunner interface {
	Run(ctx context.Context, fn func(uow repository.UnitOfWork) error) error
}

// IDGenerator provee la secuencia de transacciones y los números de documento.
type IDGenerator interface {
	NextSequence() int64
	Number(prefix string) string
}

// TransactionExporter escribe el historial en un formato de reporte.
type TransactionExporter interface {
	WriteTransactions(w io.Writer, txs []*entity.Transaction) error
	ContentType() string
	FileExtension() string
}

// LevelKey identifica una fila de existencias.
type LevelKey struct {
	ProductID  string
	LocationID string
}

// LockLevels bloquea las existencias en orden (producto, ubicación) para que dos unidades de
// trabajo que tocan las mismas claves no se bloqueen mutuamente.
func LockLevels(ctx context.Context, uow repository.UnitOfWork, keys ...LevelKey) error {
	sorted := append([]LevelKey(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ProductID != sorted[j].ProductID {
			return sorted[i].ProductID < sorted[j].ProductID
		}
		return sorted[i].LocationID < sorted[j].LocationID
	})
	for _, k := range sorted {
		if _, err := uow.Stock().GetForUpdate(ctx, k.ProductID, k.LocationID); err != nil {
			return err
		}
	}
	return nil
}

// RetryOnConflict repite fn mientras falle con domain.ErrConflict, hasta attempts veces.
// Solo aplica cuando el número en conflicto fue generado por el sistema; fn debe generar uno nuevo
// en cada intento.
func RetryOnConflict(attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}
	}
	return err
}
