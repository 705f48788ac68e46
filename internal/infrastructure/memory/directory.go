package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

// Users repositorio de usuarios sobre el store.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// AuditLog repositorio de auditoría sobre el store.
func (s *Store) AuditLog() repository.AuditLogRepository { return auditRepo{s} }

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return fmt.Errorf("%w: el usuario %s ya existe", domain.ErrConflict, user.Username)
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u, ok := r.s.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (r userRepo) UpdateRole(_ context.Context, id string, role entity.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.NotFoundf("usuario %s", id)
	}
	u.Role = role
	r.s.users[id] = u
	return nil
}

type auditRepo struct{ s *Store }

func (r auditRepo) Create(_ context.Context, e *entity.AuditLogEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, *e)
	return nil
}

func (r auditRepo) List(_ context.Context, f repository.AuditLogFilter) ([]*entity.AuditLogEntry, error) {
	r.s.mu.RLock()
	entries := append([]entity.AuditLogEntry(nil), r.s.audit...)
	r.s.mu.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Timestamp.After(entries[j].Timestamp) })
	var out []*entity.AuditLogEntry
	for _, e := range entries {
		switch {
		case f.ActorID != "" && e.ActorID != f.ActorID,
			f.ModelName != "" && e.ModelName != f.ModelName,
			f.ObjectID != "" && e.ObjectID != f.ObjectID,
			f.Action != "" && e.Action != f.Action:
			continue
		}
		out = append(out, &e)
	}
	return paginate(out, f.Limit, f.Offset), nil
}
