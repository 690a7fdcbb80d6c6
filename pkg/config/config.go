package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Remote  RemoteConfig
	GCP     GCPConfig
	Redis   RedisConfig
	DB      DBConfig
	Auth    AuthConfig
	PubSub  PubSubConfig
	Pricing PricingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Remote.Backend {
	case RemoteBackendMemory:
	case RemoteBackendFirestore:
		if strings.TrimSpace(c.GCP.ProjectID) == "" {
			return fmt.Errorf("%s is required for the firestore backend", EnvGCPProjectID)
		}
	case RemoteBackendRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("either %s or %s is required for the redis backend", EnvRedisURL, EnvRedisAddr)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvRemoteBackend, c.Remote.Backend)
	}

	switch c.Auth.Provider {
	case AuthProviderJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("%s is required for jwt auth", EnvJWTSecret)
		}
	case AuthProviderFirebase:
		if strings.TrimSpace(c.GCP.ProjectID) == "" {
			return fmt.Errorf("%s is required for firebase auth", EnvGCPProjectID)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvAuthProvider, c.Auth.Provider)
	}

	if c.PubSub.AnalyticsEnabled && strings.TrimSpace(c.PubSub.AnalyticsTopic) == "" {
		return fmt.Errorf("%s is required when analytics is enabled", EnvPubSubAnalyticsTopic)
	}
	if c.Pricing.TaxRate < 0 {
		return fmt.Errorf("%s must not be negative", EnvPricingTaxRate)
	}
	return nil
}

type AppConfig struct {
	Env          string   `envconfig:"PACKFINDERZ_APP_ENV" required:"true"`
	Port         string   `envconfig:"PACKFINDERZ_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"PACKFINDERZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"PACKFINDERZ_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"PACKFINDERZ_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// RemoteConfig selects the document store behind the cart and wishlist
// collections and names those collections.
type RemoteConfig struct {
	Backend            string `envconfig:"PACKFINDERZ_REMOTE_BACKEND" default:"memory"`
	UsersCollection    string `envconfig:"PACKFINDERZ_REMOTE_USERS_COLLECTION" default:"users"`
	CartCollection     string `envconfig:"PACKFINDERZ_REMOTE_CART_COLLECTION" default:"cart"`
	WishlistCollection string `envconfig:"PACKFINDERZ_REMOTE_WISHLIST_COLLECTION" default:"wishlist"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"PACKFINDERZ_GCP_PROJECT_ID"`
	CredentialsFile string `envconfig:"PACKFINDERZ_GOOGLE_APPLICATION_CREDENTIALS"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PACKFINDERZ_REDIS_URL"`
	Address      string        `envconfig:"PACKFINDERZ_REDIS_ADDR"`
	Password     string        `envconfig:"PACKFINDERZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"PACKFINDERZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PACKFINDERZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PACKFINDERZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PACKFINDERZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PACKFINDERZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PACKFINDERZ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type DBConfig struct {
	Driver string `envconfig:"PACKFINDERZ_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"PACKFINDERZ_DB_DSN" default:"file:catalog.db?cache=shared"`

	MaxOpenConns    int           `envconfig:"PACKFINDERZ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PACKFINDERZ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PACKFINDERZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PACKFINDERZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	AutoMigrate     bool          `envconfig:"PACKFINDERZ_DB_AUTO_MIGRATE" default:"false"`
	// SlowQuery is the duration above which statements are logged as warnings.
	SlowQuery time.Duration `envconfig:"PACKFINDERZ_DB_SLOW_QUERY" default:"200ms"`

	// SeedFile is a JSON array of catalog products upserted at startup.
	SeedFile string `envconfig:"PACKFINDERZ_DB_SEED_FILE"`
}

// AuthConfig picks how bearer tokens resolve to a user id.
type AuthConfig struct {
	Provider      string        `envconfig:"PACKFINDERZ_AUTH_PROVIDER" default:"jwt"`
	JWTSecret     string        `envconfig:"PACKFINDERZ_JWT_SECRET"`
	JWTIssuer     string        `envconfig:"PACKFINDERZ_JWT_ISSUER" default:"packfinderz"`
	JWTExpiration time.Duration `envconfig:"PACKFINDERZ_JWT_EXPIRATION" default:"60m"`
}

type PubSubConfig struct {
	AnalyticsEnabled bool   `envconfig:"PACKFINDERZ_PUBSUB_ANALYTICS_ENABLED" default:"false"`
	AnalyticsTopic   string `envconfig:"PACKFINDERZ_PUBSUB_ANALYTICS_TOPIC" default:"pf-storefront-events"`
}

// PricingConfig holds money values in cents so env parsing stays exact.
type PricingConfig struct {
	FreeShippingThresholdCents int64   `envconfig:"PACKFINDERZ_PRICING_FREE_SHIPPING_THRESHOLD_CENTS" default:"5000"`
	TaxRate                    float64 `envconfig:"PACKFINDERZ_PRICING_TAX_RATE" default:"0.08"`
	DeliveryFeeCents           int64   `envconfig:"PACKFINDERZ_PRICING_DELIVERY_FEE_CENTS" default:"599"`
}
