package config

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	RemoteBackendMemory    = "memory"
	RemoteBackendFirestore = "firestore"
	RemoteBackendRedis     = "redis"
)

const (
	AuthProviderJWT      = "jwt"
	AuthProviderFirebase = "firebase"
)

const (
	EnvAppEnv               = "PACKFINDERZ_APP_ENV"
	EnvPort                 = "PACKFINDERZ_APP_PORT"
	EnvRemoteBackend        = "PACKFINDERZ_REMOTE_BACKEND"
	EnvGCPProjectID         = "PACKFINDERZ_GCP_PROJECT_ID"
	EnvRedisURL             = "PACKFINDERZ_REDIS_URL"
	EnvRedisAddr            = "PACKFINDERZ_REDIS_ADDR"
	EnvDBDriver             = "PACKFINDERZ_DB_DRIVER"
	EnvDBDSN                = "PACKFINDERZ_DB_DSN"
	EnvAuthProvider         = "PACKFINDERZ_AUTH_PROVIDER"
	EnvJWTSecret            = "PACKFINDERZ_JWT_SECRET"
	EnvPubSubAnalyticsOn    = "PACKFINDERZ_PUBSUB_ANALYTICS_ENABLED"
	EnvPubSubAnalyticsTopic = "PACKFINDERZ_PUBSUB_ANALYTICS_TOPIC"
	EnvPricingThreshold     = "PACKFINDERZ_PRICING_FREE_SHIPPING_THRESHOLD_CENTS"
	EnvPricingTaxRate       = "PACKFINDERZ_PRICING_TAX_RATE"
)
