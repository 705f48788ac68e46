package http

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/access"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/pkg/jwt"
	"github.com/rs/zerolog"
)

// Locals keys para UserID y Role en Fiber.
const (
	LocalUserID = "user_id"
	LocalRole   = "role"
)

// AuthMiddleware valida el Bearer Token JWT y extrae UserID y Role a c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		userID, role, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		parsed, err := entity.ParseRole(role)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_ROLE", Message: "rol desconocido en el token"})
		}
		c.Locals(LocalUserID, userID)
		c.Locals(LocalRole, string(parsed))
		return c.Next()
	}
}

// RoleResolver entrega el rol vigente de un usuario.
type RoleResolver interface {
	CurrentRole(ctx context.Context, userID string) (entity.Role, error)
}

// ActiveUser relee el usuario del token: un cambio de rol o una desactivación rige desde la petición
// siguiente y no al expirar el token. Debe usarse DESPUÉS de AuthMiddleware.
func ActiveUser(users RoleResolver, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, err := users.CurrentRole(c.UserContext(), GetUserID(c))
		if errors.Is(err, domain.ErrUnauthorized) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INACTIVE_USER", Message: "el usuario no existe o está inactivo"})
		}
		if err != nil {
			return writeError(c, log, err)
		}
		c.Locals(LocalRole, string(role))
		return c.Next()
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalUserID).(string)
	return s
}

// GetRole devuelve el rol del contexto (después del middleware de auth).
func GetRole(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalRole).(string)
	return s
}

// ActorFrom arma el actor de la petición: usuario y rol del token, IP y user agent del cliente.
func ActorFrom(c *fiber.Ctx) entity.Actor {
	return entity.Actor{
		UserID:    GetUserID(c),
		Role:      entity.Role(GetRole(c)),
		IP:        clientIP(c),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}

// clientIP primera entrada de X-Forwarded-For, o la dirección remota.
func clientIP(c *fiber.Ctx) string {
	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return c.IP()
}

// RequireCapability corta con 403 si el rol del token no tiene la capacidad. El rechazo se audita.
// Debe usarse DESPUÉS de AuthMiddleware.
func RequireCapability(capability access.Capability, auditor audit.Recorder) fiber.Handler {
	return RequireAnyCapability(auditor, capability)
}

// RequireAnyCapability deja pasar si el rol tiene al menos una de las capacidades.
func RequireAnyCapability(auditor audit.Recorder, caps ...access.Capability) fiber.Handler {
	required := make([]string, len(caps))
	for i, c := range caps {
		required[i] = c.String()
	}
	want := strings.Join(required, "|")

	return func(c *fiber.Ctx) error {
		actor := ActorFrom(c)
		if access.AllowedAny(actor.Role, caps...) {
			return c.Next()
		}
		if auditor != nil {
			auditor.Record(c.UserContext(), audit.Entry{
				Actor:       actor,
				Action:      entity.AuditView,
				ModelName:   "PermissionDenied",
				ObjectID:    c.Path(),
				Description: "Acceso denegado: requiere " + want,
			})
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Code:    "FORBIDDEN",
			Message: "el rol " + string(actor.Role) + " no tiene el permiso " + want,
		})
	}
}
