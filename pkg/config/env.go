package config

const (
	EnvAppEnv   = "APP_ENV"
	EnvPort     = "PORT"
	EnvBaseURL  = "BASE_URL"
	EnvLogLevel = "LOG_LEVEL"

	EnvStoreDriver = "STORE_DRIVER"
	EnvSQLitePath  = "SQLITE_PATH"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvSessionStore        = "SESSION_STORE"
	EnvRedisAddr           = "REDIS_ADDR"
	EnvRedisPassword       = "REDIS_PASSWORD"
	EnvRedisDB             = "REDIS_DB"
	EnvSessionCookieName   = "SESSION_COOKIE_NAME"
	EnvSessionHashKey      = "SESSION_HASH_KEY"
	EnvSessionBlockKey     = "SESSION_BLOCK_KEY"
	EnvSessionIdleTimeout  = "SESSION_IDLE_TIMEOUT"
	EnvSessionLifetime     = "SESSION_LIFETIME"
	EnvSessionSecureCookie = "SESSION_SECURE_COOKIE"

	EnvTemplatesDir = "TEMPLATES_DIR"
	EnvStaticDir    = "STATIC_DIR"

	EnvLoginRateLimit = "LOGIN_RATE_LIMIT"
	EnvLoginRateBurst = "LOGIN_RATE_BURST"
	EnvTrustProxy     = "TRUST_PROXY"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvBookingLockTTL = "BOOKING_LOCK_TTL"
	EnvMaxStayNights  = "MAX_STAY_NIGHTS"

	EnvKafkaEnabled      = "KAFKA_ENABLED"
	EnvKafkaBookingTopic = "KAFKA_BOOKING_TOPIC"
	EnvKafkaContactTopic = "KAFKA_CONTACT_TOPIC"
	EnvKafkaDLQTopic     = "KAFKA_DLQ_TOPIC"

	EnvNotifierFrontDesk   = "NOTIFIER_FRONT_DESK_EMAIL"
	EnvNotifierConcurrency = "NOTIFIER_CONCURRENCY"

	EnvAdminUsername = "ADMIN_USERNAME"
	EnvAdminPassword = "ADMIN_PASSWORD"
	EnvAdminEmail    = "ADMIN_EMAIL"
)
