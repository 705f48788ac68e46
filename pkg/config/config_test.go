package config_test

import (
	"testing"
	"time"

	"github.com/jhoicas/stockledger/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "reject", cfg.Ledger.NegativeStock)
	assert.Equal(t, 5*time.Second, cfg.Ledger.LockTimeout)
	assert.Equal(t, "warn", cfg.PO.OverReceipt)
	assert.Equal(t, 5, cfg.PO.NumberRetries)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Empty(t, cfg.Seed.AdminUsername)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("LEDGER_LOCK_TIMEOUT", "750ms")
	t.Setenv("PO_OVER_RECEIPT", "reject")
	t.Setenv("PO_NUMBER_RETRIES", "0")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SEED_ADMIN_USERNAME", "admin")
	t.Setenv("SEED_ADMIN_PASSWORD", "secreto")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 750*time.Millisecond, cfg.Ledger.LockTimeout)
	assert.Equal(t, "reject", cfg.PO.OverReceipt)
	assert.Equal(t, 1, cfg.PO.NumberRetries, "se fuerza al menos un intento")
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "admin", cfg.Seed.AdminUsername)
	assert.Equal(t, "secreto", cfg.Seed.AdminPassword)
}

func TestLoad_LockTimeoutEnSegundos(t *testing.T) {
	t.Setenv("LEDGER_LOCK_TIMEOUT", "2")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Ledger.LockTimeout)
}

func TestLoad_Invalido(t *testing.T) {
	cases := map[string][2]string{
		"driver":      {"STORAGE_DRIVER", "mysql"},
		"negativo":    {"LEDGER_NEGATIVE_STOCK", "maybe"},
		"sobre-recep": {"PO_OVER_RECEIPT", "sometimes"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestDSN_EscapaCaracteres(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:w/rd", DBName: "stock", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aw%2Frd@db:5432/stock?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}
