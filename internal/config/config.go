package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverFile     = "file"
	DriverMemory   = "memory"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	StoreDriver string
	DataDir     string
	Database    DatabaseConfig
	Auth        AuthConfig
	Kafka       KafkaConfig
	TrustPrices bool
	SeedCatalog bool
	BaseURL     string
}

type DatabaseConfig struct {
	DSN      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AuthConfig struct {
	SessionSecret      string
	DemoPassword       string
	StaffUsers         map[string]string // email -> rol
	GoogleClientID     string
	GoogleClientSecret string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// ConnString arma el DSN a partir de DB_* cuando no viene DB_DSN.
func (d DatabaseConfig) ConnString() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.DBName, d.Port, d.SSLMode)
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("env")
	v.SetConfigName(".env")
	v.AddConfigPath(".")

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", DriverMemory)
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error leyendo configuración: %w", err)
		}
	}

	get := func(key, def string) string { return getEnvOrViper(v, key, def) }

	cfg := &Config{
		Port:        get("PORT", "8080"),
		Environment: get("APP_ENV", "development"),
		LogLevel:    strings.ToLower(get("LOG_LEVEL", "info")),
		StoreDriver: strings.ToLower(get("STORE_DRIVER", DriverMemory)),
		DataDir:     get("DATA_DIR", "data"),
		Database: DatabaseConfig{
			DSN:      strings.TrimSpace(get("DB_DSN", "")),
			Host:     get("DB_HOST", "localhost"),
			Port:     get("DB_PORT", "5432"),
			User:     get("DB_USER", "postgres"),
			Password: get("DB_PASSWORD", "postgres"),
			DBName:   get("DB_NAME", "licores"),
			SSLMode:  get("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			SessionSecret:      get("SESSION_SECRET", ""),
			DemoPassword:       get("DEMO_PASSWORD", "demo123"),
			StaffUsers:         parseStaff(get("STAFF_USERS", "")),
			GoogleClientID:     strings.TrimSpace(get("GOOGLE_CLIENT_ID", "")),
			GoogleClientSecret: strings.TrimSpace(get("GOOGLE_CLIENT_SECRET", "")),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(get("KAFKA_BROKERS", "")),
			Topic:   get("KAFKA_TOPIC", "licores.events"),
		},
		TrustPrices: parseBool(get("TRUST_CALLER_PRICES", "false")),
		SeedCatalog: parseBool(get("SEED_CATALOG", "true")),
		BaseURL:     strings.TrimRight(get("BASE_URL", ""), "/"),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.Port
	}

	switch cfg.StoreDriver {
	case DriverPostgres, DriverFile, DriverMemory:
	default:
		return nil, fmt.Errorf("STORE_DRIVER inválido: %q", cfg.StoreDriver)
	}
	if cfg.IsProduction() && cfg.Auth.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET es obligatorio en producción")
	}
	return cfg, nil
}

func getEnvOrViper(v *viper.Viper, key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseBool(raw string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && b
}

// parseStaff interpreta "mail:rol,mail2:rol2". Sin rol se asume admin.
func parseStaff(raw string) map[string]string {
	out := map[string]string{}
	for _, entry := range splitList(raw) {
		email, role, _ := strings.Cut(entry, ":")
		email = strings.ToLower(strings.TrimSpace(email))
		role = strings.ToLower(strings.TrimSpace(role))
		if email == "" {
			continue
		}
		if role == "" {
			role = "admin"
		}
		out[email] = role
	}
	return out
}
