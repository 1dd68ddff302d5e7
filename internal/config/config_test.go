package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("PORT", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, "licores.events", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.True(t, cfg.SeedCatalog)
	assert.False(t, cfg.TrustPrices)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "stock")
	t.Setenv("DB_DSN", "")
	t.Setenv("STAFF_USERS", "Jefe@Licores.com:admin, chofer@licores.com:driver ,oficina@licores.com")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("TRUST_CALLER_PRICES", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Contains(t, cfg.Database.ConnString(), "host=db")
	assert.Contains(t, cfg.Database.ConnString(), "dbname=stock")
	assert.Equal(t, map[string]string{
		"jefe@licores.com":    "admin",
		"chofer@licores.com":  "driver",
		"oficina@licores.com": "admin",
	}, cfg.Auth.StaffUsers)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.TrustPrices)
}

func TestDSNWins(t *testing.T) {
	d := DatabaseConfig{DSN: "postgres://x", Host: "ignored"}
	assert.Equal(t, "postgres://x", d.ConnString())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	_, err := Load()
	assert.Error(t, err)
}

func TestProductionNeedsSecret(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "")
	_, err := Load()
	assert.Error(t, err)
}
