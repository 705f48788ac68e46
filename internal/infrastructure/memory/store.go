// Package memory implementa los puertos de persistencia en memoria con el mismo contrato
// transaccional que PostgreSQL: bloqueos por clave con espera acotada, escrituras preparadas
// que se confirman de forma atómica y unicidad de números al confirmar.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

type levelKey struct {
	productID  string
	locationID string
}

// Store estado confirmado. Toda lectura o escritura pasa por mu.
type Store struct {
	mu          sync.RWMutex
	locks       *keyLocks
	lockTimeout time.Duration

	products  map[string]entity.Product
	locations map[string]entity.Location
	suppliers map[string]entity.Supplier
	users     map[string]entity.User
	levels    map[levelKey]entity.StockLevel
	txs       []entity.Transaction
	orders    map[string]*entity.PurchaseOrder
	receipts  map[string]*entity.GoodsReceipt
	transfers map[string]entity.StockTransfer
	alerts    map[string]entity.StockAlert
	audit     []entity.AuditLogEntry
}

// New crea un store vacío. lockTimeout acota la espera por una clave bloqueada.
func New(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &Store{
		locks:       newKeyLocks(),
		lockTimeout: lockTimeout,
		products:    make(map[string]entity.Product),
		locations:   make(map[string]entity.Location),
		suppliers:   make(map[string]entity.Supplier),
		users:       make(map[string]entity.User),
		levels:      make(map[levelKey]entity.StockLevel),
		orders:      make(map[string]*entity.PurchaseOrder),
		receipts:    make(map[string]*entity.GoodsReceipt),
		transfers:   make(map[string]entity.StockTransfer),
		alerts:      make(map[string]entity.StockAlert),
	}
}

// AddProduct registra un producto de referencia.
func (s *Store) AddProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// AddLocation registra una ubicación.
func (s *Store) AddLocation(l entity.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[l.ID] = l
}

// AddSupplier registra un proveedor.
func (s *Store) AddSupplier(sp entity.Supplier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppliers[sp.ID] = sp
}

// AddUser registra un usuario.
func (s *Store) AddUser(u entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// Repositories devuelve repositorios fuera de transacción: cada escritura se confirma de inmediato.
func (s *Store) Repositories() repository.UnitOfWork {
	return newUnitOfWork(s, true)
}

// Run ejecuta fn en una unidad de trabajo. Los bloqueos se liberan después de confirmar o descartar.
func (s *Store) Run(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	u := newUnitOfWork(s, false)
	defer u.release()

	if err := fn(u); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(u)
}

// commit valida unicidad de números y aplica todas las escrituras preparadas.
func (s *Store) commit(u *unitOfWork) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range u.newOrders {
		num := u.orders[id].Number
		for _, o := range s.orders {
			if o.Number == num && o.ID != id {
				return fmt.Errorf("%w: la orden %s ya existe", domain.ErrConflict, num)
			}
		}
	}
	for _, r := range u.receipts {
		for _, existing := range s.receipts {
			if existing.Number == r.Number {
				return fmt.Errorf("%w: la recepción %s ya existe", domain.ErrConflict, r.Number)
			}
		}
	}
	for id := range u.newTransfers {
		num := u.transfers[id].Number
		for _, t := range s.transfers {
			if t.Number == num && t.ID != id {
				return fmt.Errorf("%w: la transferencia %s ya existe", domain.ErrConflict, num)
			}
		}
	}

	for k, l := range u.levels {
		s.levels[k] = l
	}
	s.txs = append(s.txs, u.txs...)
	for id, o := range u.orders {
		s.orders[id] = cloneOrder(o)
	}
	for _, r := range u.receipts {
		s.receipts[r.ID] = cloneReceipt(r)
	}
	for id, t := range u.transfers {
		s.transfers[id] = t
	}
	for id, a := range u.alerts {
		s.alerts[id] = a
	}
	for id, c := range u.costs {
		p := s.products[id]
		p.Cost = c.cost
		p.UpdatedAt = c.at
		s.products[id] = p
	}
	return nil
}

// keyLocks mutex por clave con espera acotada.
type keyLocks struct {
	mu sync.Mutex
	m  map[string]chan struct{}
}

func newKeyLocks() *keyLocks {
	return &keyLocks{m: make(map[string]chan struct{})}
}

func (k *keyLocks) acquire(ctx context.Context, key string, timeout time.Duration) error {
	k.mu.Lock()
	ch, ok := k.m[key]
	if !ok {
		ch = make(chan struct{}, 1)
		k.m[key] = ch
	}
	k.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: espera de bloqueo agotada (%s)", domain.ErrConcurrency, key)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (k *keyLocks) release(key string) {
	k.mu.Lock()
	ch := k.m[key]
	k.mu.Unlock()
	<-ch
}
