package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/phenrril/licores/internal/adapters/httpserver"
	"github.com/phenrril/licores/internal/adapters/notify"
	"github.com/phenrril/licores/internal/adapters/repo/postgres"
	"github.com/phenrril/licores/internal/adapters/repo/snapshot"
	"github.com/phenrril/licores/internal/adapters/storage/localfs"
	"github.com/phenrril/licores/internal/config"
	"github.com/phenrril/licores/internal/domain"
	"github.com/phenrril/licores/internal/usecase"
)

type App struct {
	Config      *config.Config
	DB          *gorm.DB
	Store       domain.Store
	Events      *notify.Broker
	Notifier    domain.Notifier
	ProductUC   *usecase.ProductUC
	CustomerUC  *usecase.CustomerUC
	OrderUC     *usecase.OrderUC
	InvoiceUC   *usecase.InvoiceUC
	SalesUC     *usecase.SalesUC
	OAuthConfig *oauth2.Config

	kafka *notify.Kafka
}

// NewApp arma la aplicación. db sólo se usa con STORE_DRIVER=postgres.
func NewApp(cfg *config.Config, db *gorm.DB) (*App, error) {
	store, err := openStore(cfg, db)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, DB: db, Store: store, Events: notify.NewBroker()}
	notifiers := notify.Multi{a.Events, notify.Log{}}
	if len(cfg.Kafka.Brokers) > 0 {
		a.kafka = notify.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		notifiers = append(notifiers, a.kafka)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publicando cambios en kafka")
	}
	a.Notifier = notifiers

	a.ProductUC = &usecase.ProductUC{Store: store, Notifier: a.Notifier}
	a.CustomerUC = &usecase.CustomerUC{Store: store}
	a.OrderUC = &usecase.OrderUC{Store: store, Notifier: a.Notifier, TrustCallerPrices: cfg.TrustPrices}
	a.InvoiceUC = &usecase.InvoiceUC{Store: store, Notifier: a.Notifier}
	a.SalesUC = &usecase.SalesUC{Store: store}

	if cfg.Auth.GoogleClientID != "" && cfg.Auth.GoogleClientSecret != "" {
		a.OAuthConfig = &oauth2.Config{
			ClientID:     cfg.Auth.GoogleClientID,
			ClientSecret: cfg.Auth.GoogleClientSecret,
			RedirectURL:  cfg.BaseURL + "/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}
	return a, nil
}

func openStore(cfg *config.Config, db *gorm.DB) (domain.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if db == nil {
			return nil, errors.New("STORE_DRIVER=postgres sin conexión a la base")
		}
		return postgres.NewStore(db), nil
	case config.DriverFile:
		b, err := localfs.New(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("directorio de datos: %w", err)
		}
		return snapshot.New(b), nil
	default:
		return snapshot.NewMemory(), nil
	}
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(a.ProductUC, a.CustomerUC, a.OrderUC, a.InvoiceUC, a.SalesUC, a.Events, httpserver.AuthOptions{
		Secret:       []byte(a.Config.Auth.SessionSecret),
		DemoPassword: a.Config.Auth.DemoPassword,
		Staff:        a.Config.Auth.StaffUsers,
		Secure:       a.Config.IsProduction(),
	}, a.OAuthConfig)
}

func (a *App) MigrateAndSeed(ctx context.Context) error {
	if a.DB != nil {
		if err := postgres.Migrate(a.DB); err != nil {
			return err
		}
	}
	if !a.Config.SeedCatalog {
		return nil
	}
	n, err := a.ProductUC.SeedIfEmpty(ctx, SeedCatalog())
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if n > 0 {
		log.Info().Int("products", n).Msg("catálogo inicial cargado")
	}
	return nil
}

func (a *App) Close() error {
	if a.kafka != nil {
		return a.kafka.Close()
	}
	return nil
}
