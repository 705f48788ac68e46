package inventory

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/access"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

const (
	defaultLimit = 50
	maxLimit     = 500
	exportLimit  = 10000
)

// StockQueryUseCase expone las lecturas del libro: existencias, historial, alertas y exportación.
type StockQueryUseCase struct {
	repos    repository.UnitOfWork
	txRunner TxRunner
	exporter TransactionExporter
	audit    audit.Recorder
	now      func() time.Time
}

// NewStockQueryUseCase construye el caso de uso.
func NewStockQueryUseCase(repos repository.UnitOfWork, txRunner TxRunner, exporter TransactionExporter, auditor audit.Recorder) *StockQueryUseCase {
	return &StockQueryUseCase{repos: repos, txRunner: txRunner, exporter: exporter, audit: auditor, now: time.Now}
}

// Level devuelve la existencia de una clave (cero si nunca tuvo transacciones).
func (uc *StockQueryUseCase) Level(ctx context.Context, actor entity.Actor, productID, locationID string) (*entity.StockLevel, error) {
	if err := access.Require(actor.Role, access.ViewStock); err != nil {
		return nil, err
	}
	return uc.repos.Stock().Get(ctx, productID, locationID)
}

// Levels lista existencias filtradas por producto y/o ubicación.
func (uc *StockQueryUseCase) Levels(ctx context.Context, actor entity.Actor, filter repository.StockLevelFilter) ([]*entity.StockLevel, error) {
	if err := access.Require(actor.Role, access.ViewStock); err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)
	return uc.repos.Stock().List(ctx, filter)
}

// ProductAvailability agrega la existencia del producto en todas las ubicaciones.
func (uc *StockQueryUseCase) ProductAvailability(ctx context.Context, actor entity.Actor, productID string) (entity.ProductStock, error) {
	if err := access.Require(actor.Role, access.ViewStock); err != nil {
		return entity.ProductStock{}, err
	}
	p, err := uc.repos.Products().GetByID(ctx, productID)
	if err != nil {
		return entity.ProductStock{}, err
	}
	if p == nil {
		return entity.ProductStock{}, domain.NotFoundf("producto %s", productID)
	}
	return uc.repos.Stock().SumByProduct(ctx, productID)
}

// History lista transacciones (más recientes primero).
func (uc *StockQueryUseCase) History(ctx context.Context, actor entity.Actor, filter repository.TransactionFilter) ([]*entity.Transaction, error) {
	if err := access.Require(actor.Role, access.ViewTransactions); err != nil {
		return nil, err
	}
	if err := validateRange(filter); err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)
	return uc.repos.Transactions().List(ctx, filter)
}

// Export escribe el historial filtrado en w y registra la exportación en auditoría.
func (uc *StockQueryUseCase) Export(ctx context.Context, actor entity.Actor, filter repository.TransactionFilter, w io.Writer) error {
	if err := access.Require(actor.Role, access.ExportReports); err != nil {
		return err
	}
	if err := validateRange(filter); err != nil {
		return err
	}
	filter.Limit, filter.Offset = exportLimit, 0
	txs, err := uc.repos.Transactions().List(ctx, filter)
	if err != nil {
		return err
	}
	if err := uc.exporter.WriteTransactions(w, txs); err != nil {
		return fmt.Errorf("exportar transacciones: %w", err)
	}
	uc.audit.Record(ctx, audit.Entry{
		Actor:       actor,
		Action:      entity.AuditExport,
		ModelName:   "Transaction",
		Description: fmt.Sprintf("Exportación de %d transacciones", len(txs)),
		Changes:     filter,
	})
	return nil
}

// Exporter devuelve el exportador configurado (tipo de contenido y extensión para la respuesta).
func (uc *StockQueryUseCase) Exporter() TransactionExporter {
	return uc.exporter
}

// OpenAlerts lista alertas sin resolver.
func (uc *StockQueryUseCase) OpenAlerts(ctx context.Context, actor entity.Actor, limit, offset int) ([]*entity.StockAlert, error) {
	if err := access.Require(actor.Role, access.ViewStock); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	return uc.repos.Alerts().ListOpen(ctx, limit, offset)
}

// ResolveAlert marca una alerta como resuelta.
func (uc *StockQueryUseCase) ResolveAlert(ctx context.Context, actor entity.Actor, id string) (*entity.StockAlert, error) {
	if err := access.Require(actor.Role, access.AdjustStock); err != nil {
		return nil, err
	}
	var alert *entity.StockAlert
	err := uc.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		var err error
		alert, err = uow.Alerts().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if alert == nil {
			return domain.NotFoundf("alerta %s", id)
		}
		if alert.Resolved {
			return domain.Validationf("la alerta ya está resuelta")
		}
		now := uc.now().UTC()
		if err := uow.Alerts().Resolve(ctx, id, now); err != nil {
			return err
		}
		alert.Resolved = true
		alert.ResolvedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, audit.Entry{
		Actor:       actor,
		Action:      entity.AuditUpdate,
		ModelName:   "StockAlert",
		ObjectID:    alert.ID,
		ObjectRepr:  string(alert.Type),
		Description: "Alerta de existencias resuelta",
	})
	return alert, nil
}

func validateRange(f repository.TransactionFilter) error {
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return domain.Validationf("el rango de fechas es inválido")
	}
	return nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
