package config

import "time"

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

const (
	DefaultAppEnv   = EnvProduction
	DefaultPort     = "8080"
	DefaultBaseURL  = "http://localhost:8080"
	DefaultLogLevel = "info"

	DefaultStoreDriver = StoreSQLite
	DefaultSQLitePath  = "data/hotel.db"

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "hotel"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultSessionStore        = SessionStoreMemory
	DefaultRedisAddr           = "localhost:6379"
	DefaultRedisDB             = 0
	DefaultSessionCookieName   = "hotel_session"
	DefaultSessionIdleTimeout  = 30 * time.Minute
	DefaultSessionLifetime     = 24 * time.Hour
	DefaultSessionSecureCookie = false

	DefaultLoginRateLimit = 10 // attempts per minute per client
	DefaultLoginRateBurst = 5
	DefaultTrustProxy     = false

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 10 * time.Minute
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultBookingLockTTL = 10 * time.Second
	DefaultMaxStayNights  = 30

	DefaultKafkaEnabled      = false
	DefaultKafkaBookingTopic = "hotel.bookings"
	DefaultKafkaContactTopic = "hotel.contact"
	DefaultKafkaDLQTopic     = "hotel.dlq"

	DefaultNotifierConcurrency = 8

	DefaultAdminUsername = "admin"
	DefaultAdminEmail    = "admin@example.com"

	DefaultPaginationLimit = 50
	DefaultPageSize        = 12
)
