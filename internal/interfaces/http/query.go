package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

// pageParams lee limit/offset; el caso de uso aplica los topes.
func pageParams(c *fiber.Ctx) (limit, offset int) {
	return c.QueryInt("limit", 0), c.QueryInt("offset", 0)
}

// queryTime acepta RFC3339 o fecha YYYY-MM-DD. Con wholeDay, una fecha sin hora se lleva al inicio del
// día siguiente para que el límite exclusivo incluya el día completo.
func queryTime(c *fiber.Ctx, key string, wholeDay bool) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, domain.Validationf("%s: fecha inválida %q", key, raw)
	}
	if wholeDay {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}

// transactionFilter arma el filtro del historial desde la query string.
func transactionFilter(c *fiber.Ctx) (repository.TransactionFilter, error) {
	f := repository.TransactionFilter{
		ProductID:  c.Query("product_id"),
		LocationID: c.Query("location_id"),
		Reference:  c.Query("reference"),
	}
	f.Limit, f.Offset = pageParams(c)
	if raw := c.Query("type"); raw != "" {
		typ, err := entity.ParseTransactionType(raw)
		if err != nil {
			return f, err
		}
		f.Type = typ
	}
	var err error
	if f.From, err = queryTime(c, "from", false); err != nil {
		return f, err
	}
	if f.To, err = queryTime(c, "to", true); err != nil {
		return f, err
	}
	return f, nil
}
