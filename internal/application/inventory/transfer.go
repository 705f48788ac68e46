package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/access"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

// TransferInput entrada para crear una transferencia.
type TransferInput struct {
	ProductID      string
	FromLocationID string
	ToLocationID   string
	Quantity       int64
	Notes          string
}

// TransferUseCase gestiona transferencias entre ubicaciones. Completar una transferencia aplica
// salida en origen y entrada en destino en una sola unidad de trabajo.
type TransferUseCase struct {
	txRunner TxRunner
	repos    repository.UnitOfWork
	recorder *RecordTransactionUseCase
	ids      IDGenerator
	audit    audit.Recorder
	retries  int
	now      func() time.Time
}

// NewTransferUseCase construye el caso de uso. retries acota los reintentos por número duplicado.
func NewTransferUseCase(
	txRunner TxRunner,
	repos repository.UnitOfWork,
	recorder *RecordTransactionUseCase,
	ids IDGenerator,
	auditor audit.Recorder,
	retries int,
) *TransferUseCase {
	return &TransferUseCase{
		txRunner: txRunner,
		repos:    repos,
		recorder: recorder,
		ids:      ids,
		audit:    auditor,
		retries:  retries,
		now:      time.Now,
	}
}

// Create registra la transferencia en estado PENDING sin mover existencias.
func (uc *TransferUseCase) Create(ctx context.Context, actor entity.Actor, in TransferInput) (*entity.StockTransfer, error) {
	if err := access.Require(actor.Role, access.AdjustStock); err != nil {
		return nil, err
	}
	if in.ProductID == "" || in.FromLocationID == "" || in.ToLocationID == "" {
		return nil, domain.Validationf("producto, origen y destino son obligatorios")
	}
	if in.FromLocationID == in.ToLocationID {
		return nil, domain.Validationf("origen y destino deben ser distintos")
	}
	if in.Quantity <= 0 {
		return nil, domain.Validationf("la cantidad debe ser mayor que cero")
	}
	if err := uc.checkReferences(ctx, in); err != nil {
		return nil, err
	}

	var t *entity.StockTransfer
	err := RetryOnConflict(uc.retries, func() error {
		t = &entity.StockTransfer{
			ID:             uuid.New().String(),
			Number:         uc.ids.Number("TR"),
			ProductID:      in.ProductID,
			FromLocationID: in.FromLocationID,
			ToLocationID:   in.ToLocationID,
			Quantity:       in.Quantity,
			Status:         entity.TransferPending,
			Notes:          in.Notes,
			InitiatedBy:    actor.UserID,
			CreatedAt:      uc.now().UTC(),
		}
		return uc.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
			return uow.Transfers().Create(ctx, t)
		})
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Record(ctx, audit.Entry{
		Actor:       actor,
		Action:      entity.AuditCreate,
		ModelName:   "StockTransfer",
		ObjectID:    t.ID,
		ObjectRepr:  t.Number,
		Description: fmt.Sprintf("Transferencia %s de %d unidades creada", t.Number, t.Quantity),
	})
	return t, nil
}

// Dispatch marca la transferencia en tránsito.
func (uc *TransferUseCase) Dispatch(ctx context.Context, actor entity.Actor, id string) (*entity.StockTransfer, error) {
	return uc.transition(ctx, actor, id, "despachada", func(_ repository.UnitOfWork, t *entity.StockTransfer) error {
		return t.Dispatch()
	})
}

// Cancel cancela una transferencia pendiente o en tránsito.
func (uc *TransferUseCase) Cancel(ctx context.Context, actor entity.Actor, id string) (*entity.StockTransfer, error) {
	return uc.transition(ctx, actor, id, "cancelada", func(_ repository.UnitOfWork, t *entity.StockTransfer) error {
		return t.Cancel()
	})
}

// Complete aplica la transferencia: TRANSFER/OUT en origen y TRANSFER/IN en destino con la misma
// referencia. Si la salida falla ninguna de las dos existencias cambia.
func (uc *TransferUseCase) Complete(ctx context.Context, actor entity.Actor, id string) (*entity.StockTransfer, error) {
	return uc.transition(ctx, actor, id, "completada", func(uow repository.UnitOfWork, t *entity.StockTransfer) error {
		if err := t.Complete(actor.UserID, uc.now().UTC()); err != nil {
			return err
		}
		err := LockLevels(ctx, uow,
			LevelKey{ProductID: t.ProductID, LocationID: t.FromLocationID},
			LevelKey{ProductID: t.ProductID, LocationID: t.ToLocationID},
		)
		if err != nil {
			return err
		}
		legs := []RecordInput{
			{LocationID: t.FromLocationID, Direction: entity.DirectionOut},
			{LocationID: t.ToLocationID, Direction: entity.DirectionIn},
		}
		for _, leg := range legs {
			leg.Type = entity.TransactionTransfer
			leg.ProductID = t.ProductID
			leg.Quantity = t.Quantity
			leg.Reference = t.Number
			leg.Notes = "Transferencia " + t.Number
			if _, _, err := uc.recorder.RecordInTx(ctx, uow, actor.UserID, leg); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get devuelve una transferencia.
func (uc *TransferUseCase) Get(ctx context.Context, actor entity.Actor, id string) (*entity.StockTransfer, error) {
	if err := access.Require(actor.Role, access.ViewStock); err != nil {
		return nil, err
	}
	t, err := uc.repos.Transfers().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.NotFoundf("transferencia %s", id)
	}
	return t, nil
}

func (uc *TransferUseCase) transition(
	ctx context.Context,
	actor entity.Actor,
	id, verb string,
	apply func(uow repository.UnitOfWork, t *entity.StockTransfer) error,
) (*entity.StockTransfer, error) {
	if err := access.Require(actor.Role, access.AdjustStock); err != nil {
		return nil, err
	}
	var (
		t    *entity.StockTransfer
		prev entity.TransferStatus
	)
	err := uc.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		var err error
		t, err = uow.Transfers().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.NotFoundf("transferencia %s", id)
		}
		prev = t.Status
		if err := apply(uow, t); err != nil {
			return err
		}
		return uow.Transfers().Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Record(ctx, audit.Entry{
		Actor:       actor,
		Action:      entity.AuditUpdate,
		ModelName:   "StockTransfer",
		ObjectID:    t.ID,
		ObjectRepr:  t.Number,
		Description: fmt.Sprintf("Transferencia %s %s", t.Number, verb),
		Changes:     map[string]string{"status_before": string(prev), "status_after": string(t.Status)},
	})
	return t, nil
}

func (uc *TransferUseCase) checkReferences(ctx context.Context, in TransferInput) error {
	p, err := uc.repos.Products().GetByID(ctx, in.ProductID)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.NotFoundf("producto %s", in.ProductID)
	}
	for _, id := range []string{in.FromLocationID, in.ToLocationID} {
		loc, err := uc.repos.Locations().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if loc == nil {
			return domain.NotFoundf("ubicación %s", id)
		}
	}
	return nil
}
