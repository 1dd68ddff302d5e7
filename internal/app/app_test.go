package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/licores/internal/config"
	"github.com/phenrril/licores/internal/domain"
)

func TestNewAppMemorySeedsOnce(t *testing.T) {
	a, err := NewApp(&config.Config{StoreDriver: config.DriverMemory, SeedCatalog: true}, nil)
	require.NoError(t, err)
	defer a.Close()
	ctx := context.Background()

	require.NoError(t, a.MigrateAndSeed(ctx))
	require.NoError(t, a.MigrateAndSeed(ctx))
	list, total, err := a.ProductUC.List(ctx, domain.ProductFilter{PageSize: -1})
	require.NoError(t, err)
	assert.EqualValues(t, len(SeedCatalog()), total)
	assert.Len(t, list, len(SeedCatalog()))
	assert.Nil(t, a.OAuthConfig)
}

func TestNewAppFileStorePersists(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{StoreDriver: config.DriverFile, DataDir: dir, SeedCatalog: true}
	a, err := NewApp(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, a.MigrateAndSeed(context.Background()))

	cfg.SeedCatalog = false
	b, err := NewApp(cfg, nil)
	require.NoError(t, err)
	_, total, err := b.ProductUC.List(context.Background(), domain.ProductFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, len(SeedCatalog()), total)
}

func TestNewAppPostgresNeedsDB(t *testing.T) {
	_, err := NewApp(&config.Config{StoreDriver: config.DriverPostgres}, nil)
	assert.Error(t, err)
}

func TestNewAppGoogleLogin(t *testing.T) {
	cfg := &config.Config{StoreDriver: config.DriverMemory, BaseURL: "http://localhost:8080"}
	cfg.Auth.GoogleClientID = "id"
	cfg.Auth.GoogleClientSecret = "secret"
	a, err := NewApp(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, a.OAuthConfig)
	assert.Equal(t, "http://localhost:8080/auth/google/callback", a.OAuthConfig.RedirectURL)

	rec := httptest.NewRecorder()
	a.HTTPHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/auth/google/login", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "accounts.google.com")
}

func TestSeedCatalogIsValid(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range SeedCatalog() {
		assert.False(t, seen[p.SKU], p.SKU)
		seen[p.SKU] = true
		assert.NoError(t, p.Stock.Validate())
		assert.Positive(t, p.Price)
	}
}
