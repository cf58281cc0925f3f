// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	liststr "kycore/pkg/platform/strings"
)

// Config is everything the server binary needs.
type Config struct {
	Server    Server
	KYC       KYC
	ShuftiPro ShuftiPro
	Jumio     Jumio
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	Environment     string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// KYC holds the provider-independent verification settings.
type KYC struct {
	DefaultDriver            string
	RequireEmailVerification bool
	MaxAttempts              int
	URLExpiry                time.Duration
	AutoDownloadDocuments    bool
	DocumentStoragePath      string
	DocumentStorageRoot      string
	// DuplicateDetection keeps the provider's duplicate_detected flag in record data.
	DuplicateDetection bool
	// WebhookSignatureValidation gates the driver signature check on ingress.
	WebhookSignatureValidation bool
	// ProviderTimeout bounds the status refresh made while resuming.
	ProviderTimeout     time.Duration
	LockTTL             time.Duration
	SupportedCountries  []string
	RestrictedCountries []string
}

type ShuftiPro struct {
	Enabled     bool
	BaseURL     string
	ClientID    string
	SecretKey   string
	CallbackURL string
	RedirectURL string
	Timeout     time.Duration
}

type Jumio struct {
	Enabled       bool
	BaseURL       string
	AuthURL       string
	ClientID      string
	ClientSecret  string
	WebhookSecret string
	WorkflowKey   string
	CallbackURL   string
	SuccessURL    string
	Timeout       time.Duration
}

// DatabaseConfig selects the record store. An empty URL keeps records in memory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// RedisConfig configures the shared lock backend. An empty URL uses in-process locks.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the notification sink. No brokers means log-only notifications.
type KafkaConfig struct {
	Brokers           []string
	Topic             string
	ClientID          string
	Partitions        int32
	ReplicationFactor int16
	CreateTopic       bool
	// PublishTimeout bounds one notification publish, independent of the request.
	PublishTimeout  time.Duration
	BreakerCooldown time.Duration
}

var DefaultSupportedCountries = []string{
	"US", "GB", "CA", "AU", "DE", "FR", "IT", "ES", "NL", "BE",
	"CH", "AT", "SE", "NO", "DK", "FI", "IE", "PT", "LU", "MT",
	"CY", "EE", "LV", "LT", "SI", "SK", "CZ", "HU", "PL", "RO",
	"BG", "HR", "GR", "JP", "SG", "HK", "NZ", "AE", "SA", "QA",
}

var DefaultRestrictedCountries = []string{"IR", "KP", "SY", "CU", "MM", "BY", "VE", "AF", "IQ", "LY"}

// FromEnv loads an optional .env file and then reads the environment.
func FromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Load(os.LookupEnv)
}

// Load builds a Config from lookup so tests can supply their own environment.
func Load(lookup func(string) (string, bool)) (Config, error) {
	e := env{lookup: lookup}
	cfg := Config{
		Server: Server{
			Addr:            e.str("KYC_ADDR", ":8080"),
			Environment:     e.str("APP_ENV", "development"),
			LogLevel:        e.str("LOG_LEVEL", "info"),
			ShutdownTimeout: e.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		KYC: KYC{
			DefaultDriver:              e.str("KYC_DEFAULT_DRIVER", "shuftipro"),
			RequireEmailVerification:   e.bool("KYC_REQUIRE_EMAIL_VERIFICATION", true),
			MaxAttempts:                e.int("KYC_MAX_ATTEMPTS", 3),
			URLExpiry:                  time.Duration(e.int("KYC_URL_EXPIRY_HOURS", 24)) * time.Hour,
			AutoDownloadDocuments:      e.bool("KYC_AUTO_DOWNLOAD_DOCUMENTS", true),
			DocumentStoragePath:        e.str("KYC_DOCUMENT_STORAGE_PATH", "kyc/documents"),
			DocumentStorageRoot:        e.str("KYC_DOCUMENT_STORAGE_ROOT", ""),
			DuplicateDetection:         e.bool("KYC_ENABLE_DUPLICATE_DETECTION", true),
			WebhookSignatureValidation: e.bool("KYC_WEBHOOK_SIGNATURE_VALIDATION", true),
			ProviderTimeout:            e.duration("KYC_PROVIDER_TIMEOUT", 10*time.Second),
			LockTTL:                    e.duration("KYC_LOCK_TTL", 30*time.Second),
			SupportedCountries:         e.countries("KYC_SUPPORTED_COUNTRIES", DefaultSupportedCountries),
			RestrictedCountries:        e.countries("KYC_RESTRICTED_COUNTRIES", DefaultRestrictedCountries),
		},
		ShuftiPro: ShuftiPro{
			Enabled:     e.bool("SHUFTIPRO_ENABLED", true),
			BaseURL:     e.str("SHUFTIPRO_BASE_URL", ""),
			ClientID:    e.str("SHUFTIPRO_CLIENT_ID", ""),
			SecretKey:   e.str("SHUFTIPRO_SECRET_KEY", ""),
			CallbackURL: e.str("SHUFTIPRO_CALLBACK_URL", ""),
			RedirectURL: e.str("SHUFTIPRO_REDIRECT_URL", ""),
			Timeout:     e.duration("SHUFTIPRO_TIMEOUT", 30*time.Second),
		},
		Jumio: Jumio{
			Enabled:       e.bool("JUMIO_ENABLED", false),
			BaseURL:       e.str("JUMIO_BASE_URL", ""),
			AuthURL:       e.str("JUMIO_AUTH_URL", ""),
			ClientID:      e.str("JUMIO_CLIENT_ID", ""),
			ClientSecret:  e.str("JUMIO_CLIENT_SECRET", ""),
			WebhookSecret: e.str("JUMIO_WEBHOOK_SECRET", ""),
			WorkflowKey:   e.str("JUMIO_WORKFLOW_KEY", ""),
			CallbackURL:   e.str("JUMIO_CALLBACK_URL", ""),
			SuccessURL:    e.str("JUMIO_SUCCESS_URL", ""),
			Timeout:       e.duration("JUMIO_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:             e.str("DATABASE_URL", ""),
			MaxOpenConns:    e.int("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    e.int("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: e.duration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			AutoMigrate:     e.bool("DATABASE_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:          e.str("REDIS_URL", ""),
			PoolSize:     e.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: e.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  e.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  e.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: e.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:           e.list("KAFKA_BROKERS", nil),
			Topic:             e.str("KAFKA_NOTIFICATION_TOPIC", "kyc.notifications"),
			ClientID:          e.str("KAFKA_CLIENT_ID", "kycore"),
			Partitions:        int32(e.int("KAFKA_TOPIC_PARTITIONS", 3)),
			ReplicationFactor: int16(e.int("KAFKA_TOPIC_REPLICATION", 1)),
			CreateTopic:       e.bool("KAFKA_CREATE_TOPIC", true),
			PublishTimeout:    e.duration("KAFKA_PUBLISH_TIMEOUT", 5*time.Second),
			BreakerCooldown:   e.duration("KAFKA_BREAKER_COOLDOWN", 30*time.Second),
		},
	}
	if len(e.errs) > 0 {
		return Config{}, errors.Join(e.errs...)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.KYC.DefaultDriver == "" {
		errs = append(errs, errors.New("KYC_DEFAULT_DRIVER must not be empty"))
	}
	if c.KYC.MaxAttempts < 0 {
		errs = append(errs, errors.New("KYC_MAX_ATTEMPTS must not be negative"))
	}
	if c.KYC.URLExpiry <= 0 {
		errs = append(errs, errors.New("KYC_URL_EXPIRY_HOURS must be positive"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("KAFKA_NOTIFICATION_TOPIC must be set when brokers are configured"))
	}
	return errors.Join(errs...)
}

type env struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *env) raw(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e *env) str(key, def string) string {
	if v, ok := e.raw(key); ok {
		return v
	}
	return def
}

func (e *env) bool(key string, def bool) bool {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (e *env) int(key string, def int) int {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

// list splits a comma separated value, dropping empty and repeated items.
func (e *env) list(key string, def []string) []string {
	v, ok := e.raw(key)
	if !ok {
		return append([]string(nil), def...)
	}
	return liststr.SplitList(v)
}

// countries is list with codes upper-cased.
func (e *env) countries(key string, def []string) []string {
	return liststr.DedupeAndTrimUpper(e.list(key, def))
}
