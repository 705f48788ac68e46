package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

var (
	_ repository.UserRepository     = (*UserRepo)(nil)
	_ repository.AuditLogRepository = (*AuditLogRepo)(nil)
)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

const userColumns = `id, username, password_hash, name, role, active, created_at, updated_at`

// Create persiste un nuevo usuario. Username duplicado → domain.ErrConflict.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	_, err := r.q.Exec(ctx, `INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Username, user.PasswordHash, user.Name, user.Role, user.Active, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return mapError("insert user "+user.Username, err)
	}
	return nil
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, `id = $1`, id)
}

// GetByUsername obtiene un usuario por nombre de usuario.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findOne(ctx, `username = $1`, username)
}

func (r *UserRepo) findOne(ctx context.Context, cond string, arg any) (*entity.User, error) {
	var u entity.User
	err := r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+cond, arg).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Name, &u.Role, &u.Active, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// UpdateRole cambia el rol del usuario.
func (r *UserRepo) UpdateRole(ctx context.Context, id string, role entity.Role) error {
	tag, err := r.q.Exec(ctx, `UPDATE users SET role = $2, updated_at = now() WHERE id = $1`, id, role)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("usuario %s", id)
	}
	return nil
}

// AuditLogRepo bitácora de solo inserción.
type AuditLogRepo struct {
	q Querier
}

// NewAuditLogRepository construye el adaptador.
func NewAuditLogRepository(q Querier) *AuditLogRepo {
	return &AuditLogRepo{q: q}
}

const auditColumns = `id, COALESCE(actor_id, ''), action, model_name, object_id, object_repr, description, changes,
	ip_address, user_agent, timestamp`

// Create inserta la entrada.
func (r *AuditLogRepo) Create(ctx context.Context, e *entity.AuditLogEntry) error {
	var changes []byte
	if len(e.Changes) > 0 {
		changes = e.Changes
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO audit_log (id, actor_id, action, model_name, object_id, object_repr, description, changes,
			ip_address, user_agent, timestamp)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.ActorID, e.Action, e.ModelName, e.ObjectID, e.ObjectRepr, e.Description, changes,
		e.IPAddress, e.UserAgent, e.Timestamp)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// List entradas filtradas, más recientes primero.
func (r *AuditLogRepo) List(ctx context.Context, f repository.AuditLogFilter) ([]*entity.AuditLogEntry, error) {
	var c conds
	if f.ActorID != "" {
		c.add("actor_id = $%d", f.ActorID)
	}
	if f.ModelName != "" {
		c.add("model_name = $%d", f.ModelName)
	}
	if f.ObjectID != "" {
		c.add("object_id = $%d", f.ObjectID)
	}
	if f.Action != "" {
		c.add("action = $%d", f.Action)
	}
	query := `SELECT ` + auditColumns + ` FROM audit_log` + c.where() + ` ORDER BY timestamp DESC` + c.page(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	defer rows.Close()
	var list []*entity.AuditLogEntry
	for rows.Next() {
		var (
			e       entity.AuditLogEntry
			changes []byte
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.ModelName, &e.ObjectID, &e.ObjectRepr, &e.Description,
			&changes, &e.IPAddress, &e.UserAgent, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		e.Changes = changes
		list = append(list, &e)
	}
	return list, rows.Err()
}
