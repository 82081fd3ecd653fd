package config

import (
	"errors"
	"fmt"
	"hotelbooking/pkg/logger"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv  string
	Port    string
	BaseURL string

	StoreDriver string
	SQLitePath  string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	SessionStore        string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	SessionCookieName   string
	SessionHashKey      string
	SessionBlockKey     string
	SessionIdleTimeout  time.Duration
	SessionLifetime     time.Duration
	SessionSecureCookie bool

	TemplatesDir string
	StaticDir    string

	LoginRateLimit int
	LoginRateBurst int
	TrustProxy     bool

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	BookingLockTTL time.Duration
	MaxStayNights  int

	KafkaEnabled      bool
	KafkaBookingTopic string
	KafkaContactTopic string
	KafkaDLQTopic     string

	NotifierFrontDesk   string
	NotifierConcurrency int

	AdminUsername string
	AdminPassword string
	AdminEmail    string

	Log *logger.Logger
}

// Load reads the environment (after an optional .env file), validates it and
// exits the process when the configuration is unusable.
func Load(serviceName string) *Config {
	return load(serviceName, (*Config).Validate)
}

// LoadNotifier is Load for the event consumer, which needs neither a store
// nor the session settings.
func LoadNotifier(serviceName string) *Config {
	return load(serviceName, (*Config).ValidateNotifier)
}

func load(serviceName string, validate func(*Config) error) *Config {
	dotenvErr := godotenv.Load()

	cfg := FromEnv()
	format := logger.JSON
	if cfg.IsDevelopment() {
		format = logger.TEXT
	}
	cfg.Log = logger.New(logger.Config{
		Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
		Format:    format,
		AddSource: true,
		Service:   serviceName,
	})

	if dotenvErr != nil && !errors.Is(dotenvErr, fs.ErrNotExist) {
		cfg.Log.Warn("Failed to read .env file", "error", dotenvErr)
	}

	if err := validate(cfg); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv builds a Config from environment variables and defaults without
// validating it.
func FromEnv() *Config {
	return &Config{
		AppEnv:  strings.ToLower(getEnvStr(EnvAppEnv, DefaultAppEnv)),
		Port:    getEnvStr(EnvPort, DefaultPort),
		BaseURL: getEnvStr(EnvBaseURL, DefaultBaseURL),

		StoreDriver: strings.ToLower(getEnvStr(EnvStoreDriver, DefaultStoreDriver)),
		SQLitePath:  getEnvStr(EnvSQLitePath, DefaultSQLitePath),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		SessionStore:        strings.ToLower(getEnvStr(EnvSessionStore, DefaultSessionStore)),
		RedisAddr:           getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword:       getEnvStr(EnvRedisPassword, ""),
		RedisDB:             getEnvNum(EnvRedisDB, DefaultRedisDB),
		SessionCookieName:   getEnvStr(EnvSessionCookieName, DefaultSessionCookieName),
		SessionHashKey:      getEnvStr(EnvSessionHashKey, ""),
		SessionBlockKey:     getEnvStr(EnvSessionBlockKey, ""),
		SessionIdleTimeout:  getEnvDuration(EnvSessionIdleTimeout, DefaultSessionIdleTimeout),
		SessionLifetime:     getEnvDuration(EnvSessionLifetime, DefaultSessionLifetime),
		SessionSecureCookie: getEnvBool(EnvSessionSecureCookie, DefaultSessionSecureCookie),

		TemplatesDir: getEnvStr(EnvTemplatesDir, ""),
		StaticDir:    getEnvStr(EnvStaticDir, ""),

		LoginRateLimit: getEnvNum(EnvLoginRateLimit, DefaultLoginRateLimit),
		LoginRateBurst: getEnvNum(EnvLoginRateBurst, DefaultLoginRateBurst),
		TrustProxy:     getEnvBool(EnvTrustProxy, DefaultTrustProxy),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		BookingLockTTL: getEnvDuration(EnvBookingLockTTL, DefaultBookingLockTTL),
		MaxStayNights:  getEnvNum(EnvMaxStayNights, DefaultMaxStayNights),

		KafkaEnabled:      getEnvBool(EnvKafkaEnabled, DefaultKafkaEnabled),
		KafkaBookingTopic: getEnvStr(EnvKafkaBookingTopic, DefaultKafkaBookingTopic),
		KafkaContactTopic: getEnvStr(EnvKafkaContactTopic, DefaultKafkaContactTopic),
		KafkaDLQTopic:     getEnvStr(EnvKafkaDLQTopic, DefaultKafkaDLQTopic),

		NotifierFrontDesk:   getEnvStr(EnvNotifierFrontDesk, ""),
		NotifierConcurrency: getEnvNum(EnvNotifierConcurrency, DefaultNotifierConcurrency),

		AdminUsername: getEnvStr(EnvAdminUsername, DefaultAdminUsername),
		AdminPassword: getEnvStr(EnvAdminPassword, ""),
		AdminEmail:    getEnvStr(EnvAdminEmail, DefaultAdminEmail),
	}
}

func (cfg *Config) IsDevelopment() bool {
	return cfg.AppEnv == EnvDevelopment
}

func (cfg *Config) Validate() error {
	var errors []string

	if cfg.AppEnv != EnvDevelopment && cfg.AppEnv != EnvProduction {
		errors = append(errors, fmt.Sprintf("AppEnv must be '%s' or '%s', got: %s", EnvDevelopment, EnvProduction, cfg.AppEnv))
	}

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StoreDriver {
	case StoreSQLite:
		if cfg.SQLitePath == "" {
			errors = append(errors, "SQLitePath cannot be empty")
		}
	case StoreMongo:
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	default:
		errors = append(errors, fmt.Sprintf("StoreDriver must be '%s' or '%s', got: %s", StoreSQLite, StoreMongo, cfg.StoreDriver))
	}

	switch cfg.SessionStore {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if cfg.RedisAddr == "" {
			errors = append(errors, "RedisAddr cannot be empty when SessionStore is redis")
		}
	default:
		errors = append(errors, fmt.Sprintf("SessionStore must be '%s' or '%s', got: %s", SessionStoreMemory, SessionStoreRedis, cfg.SessionStore))
	}

	if cfg.SessionCookieName == "" {
		errors = append(errors, "SessionCookieName cannot be empty")
	}
	if cfg.SessionIdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("SessionIdleTimeout must be positive, got: %s", cfg.SessionIdleTimeout))
	}
	if cfg.SessionLifetime < cfg.SessionIdleTimeout {
		errors = append(errors, fmt.Sprintf("SessionLifetime (%s) must be >= SessionIdleTimeout (%s)", cfg.SessionLifetime, cfg.SessionIdleTimeout))
	}
	if !cfg.IsDevelopment() {
		if len(cfg.SessionHashKey) < 32 {
			errors = append(errors, "SessionHashKey must be at least 32 characters in production")
		}
		if k := len(cfg.SessionBlockKey); k != 0 && k != 16 && k != 24 && k != 32 {
			errors = append(errors, fmt.Sprintf("SessionBlockKey must be 16, 24 or 32 characters, got %d", k))
		}
	}

	if cfg.LoginRateLimit <= 0 {
		errors = append(errors, fmt.Sprintf("LoginRateLimit must be positive, got: %d", cfg.LoginRateLimit))
	}
	if cfg.LoginRateBurst <= 0 {
		errors = append(errors, fmt.Sprintf("LoginRateBurst must be positive, got: %d", cfg.LoginRateBurst))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}
	if cfg.BookingLockTTL <= 0 {
		errors = append(errors, fmt.Sprintf("BookingLockTTL must be positive, got: %s", cfg.BookingLockTTL))
	}
	if cfg.MaxStayNights <= 0 {
		errors = append(errors, fmt.Sprintf("MaxStayNights must be positive, got: %d", cfg.MaxStayNights))
	}

	if cfg.KafkaEnabled && cfg.KafkaBookingTopic == "" {
		errors = append(errors, "KafkaBookingTopic cannot be empty when Kafka is enabled")
	}

	return joinErrors(errors)
}

func (cfg *Config) ValidateNotifier() error {
	var errors []string

	if cfg.AppEnv != EnvDevelopment && cfg.AppEnv != EnvProduction {
		errors = append(errors, fmt.Sprintf("AppEnv must be '%s' or '%s', got: %s", EnvDevelopment, EnvProduction, cfg.AppEnv))
	}
	if cfg.KafkaBookingTopic == "" {
		errors = append(errors, "KafkaBookingTopic cannot be empty")
	}
	if cfg.NotifierConcurrency <= 0 {
		errors = append(errors, fmt.Sprintf("NotifierConcurrency must be positive, got: %d", cfg.NotifierConcurrency))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	return joinErrors(errors)
}

func joinErrors(errors []string) error {
	if len(errors) == 0 {
		return nil
	}
	errMsg := "Configuration validation failed:\n"
	for i, err := range errors {
		errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
	}
	return fmt.Errorf("%s", errMsg)
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"app_env", cfg.AppEnv,
		"port", cfg.Port,
		"base_url", cfg.BaseURL,
		"store_driver", cfg.StoreDriver,
		"sqlite_path", cfg.SQLitePath,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"session_store", cfg.SessionStore,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"session_cookie", cfg.SessionCookieName,
		"session_keys_set", cfg.SessionHashKey != "",
		"session_idle_timeout", cfg.SessionIdleTimeout,
		"session_lifetime", cfg.SessionLifetime,
		"session_secure_cookie", cfg.SessionSecureCookie,
		"templates_dir", cfg.TemplatesDir,
		"static_dir", cfg.StaticDir,
		"login_rate_limit", cfg.LoginRateLimit,
		"login_rate_burst", cfg.LoginRateBurst,
		"trust_proxy", cfg.TrustProxy,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"booking_lock_ttl", cfg.BookingLockTTL,
		"max_stay_nights", cfg.MaxStayNights,
		"kafka_enabled", cfg.KafkaEnabled,
		"kafka_booking_topic", cfg.KafkaBookingTopic,
		"kafka_contact_topic", cfg.KafkaContactTopic,
		"notifier_front_desk", cfg.NotifierFrontDesk,
		"notifier_concurrency", cfg.NotifierConcurrency,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = DefaultPageSize
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
