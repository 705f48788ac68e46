// Package auth implementa login, capacidades del rol y administración de usuarios.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/access"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/jhoicas/stockledger/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase casos de uso de autenticación y usuarios.
type AuthUseCase struct {
	userRepo repository.UserRepository
	audit    audit.Recorder
	jwtCfg   JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, auditor audit.Recorder, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, audit: auditor, jwtCfg: jwtCfg}
}

// Login verifica usuario/password, genera JWT y retorna token + usuario.
// ip y userAgent solo alimentan la bitácora.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest, ip, userAgent string) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		return nil, err
	}
	// Mismo error para usuario inexistente y password incorrecto.
	if user == nil || !user.Active {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, string(user.Role), uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}

	uc.audit.Record(ctx, audit.Entry{
		Actor:       entity.Actor{UserID: user.ID, Role: user.Role, IP: ip, UserAgent: userAgent},
		Action:      entity.AuditLogin,
		ModelName:   "User",
		ObjectID:    user.ID,
		ObjectRepr:  user.Username,
		Description: "Inicio de sesión",
	})
	return &dto.LoginResponse{Token: token, User: *toUserResponse(user)}, nil
}

// Capabilities devuelve las capacidades efectivas del rol del actor.
func (uc *AuthUseCase) Capabilities(actor entity.Actor) dto.CapabilitiesResponse {
	caps := access.CapabilitiesFor(actor.Role)
	names := make([]string, 0, len(caps))
	for _, c := range caps {
		names = append(names, c.String())
	}
	return dto.CapabilitiesResponse{UserID: actor.UserID, Role: string(actor.Role), Capabilities: names}
}

// CreateUser alta de usuario; requiere ManageUsers.
func (uc *AuthUseCase) CreateUser(ctx context.Context, actor entity.Actor, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := access.Require(actor.Role, access.ManageUsers); err != nil {
		return nil, err
	}
	user, err := uc.newUser(in)
	if err != nil {
		return nil, err
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, audit.Entry{
		Actor:       actor,
		Action:      entity.AuditCreate,
		ModelName:   "User",
		ObjectID:    user.ID,
		ObjectRepr:  user.Username,
		Description: fmt.Sprintf("Usuario %s creado con rol %s", user.Username, user.Role),
	})
	return toUserResponse(user), nil
}

// UpdateRole cambia el rol de un usuario; requiere ManageUsers.
func (uc *AuthUseCase) UpdateRole(ctx context.Context, actor entity.Actor, userID, role string) (*dto.UserResponse, error) {
	if err := access.Require(actor.Role, access.ManageUsers); err != nil {
		return nil, err
	}
	newRole, err := entity.ParseRole(role)
	if err != nil {
		return nil, err
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NotFoundf("usuario %s", userID)
	}
	prev := user.Role
	if err := uc.userRepo.UpdateRole(ctx, userID, newRole); err != nil {
		return nil, err
	}
	user.Role = newRole

	uc.audit.Record(ctx, audit.Entry{
		Actor:       actor,
		Action:      entity.AuditUpdate,
		ModelName:   "User",
		ObjectID:    user.ID,
		ObjectRepr:  user.Username,
		Description: fmt.Sprintf("Rol de %s cambiado de %s a %s", user.Username, prev, newRole),
		Changes:     map[string]string{"role_before": string(prev), "role_after": string(newRole)},
	})
	return toUserResponse(user), nil
}

// CurrentRole devuelve el rol vigente del usuario. Un usuario inexistente o inactivo no está autorizado
// aunque su token siga vigente.
func (uc *AuthUseCase) CurrentRole(ctx context.Context, userID string) (entity.Role, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil || !user.Active {
		return "", fmt.Errorf("%w: usuario %s inexistente o inactivo", domain.ErrUnauthorized, userID)
	}
	return user.Role, nil
}

// Bootstrap crea el administrador inicial si el usuario no existe. No audita: no hay actor.
func (uc *AuthUseCase) Bootstrap(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	existing, err := uc.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	user, err := uc.newUser(dto.CreateUserRequest{Username: username, Password: password, Role: string(entity.RoleAdmin)})
	if err != nil {
		return false, err
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return false, err
	}
	return true, nil
}

func (uc *AuthUseCase) newUser(in dto.CreateUserRequest) (*entity.User, error) {
	role, err := entity.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < 8 {
		return nil, domain.Validationf("el password debe tener al menos 8 caracteres")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	name := in.Name
	if name == "" {
		name = in.Username
	}
	return &entity.User{
		ID:           uuid.New().String(),
		Username:     strings.TrimSpace(in.Username),
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Role:      string(u.Role),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
