package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress      string
	DatabaseURI     string
	RedisAddress    string
	JWTSecret       string
	VaultKey        string
	LogLevel        string
	TokenTTL        time.Duration
	ShutdownTimeout time.Duration

	CJBaseURL         string
	AliExpressBaseURL string
	BigBuyBaseURL     string
	ShopifyAPIVersion string

	SupplierTimeout time.Duration
	SupplierRPS     float64
	SupplierBurst   int
	IdempotencyTTL  time.Duration

	TrackingSyncInterval time.Duration
	TrackingBatchSize    int
	TrackingWorkers      int

	QueueInterval   time.Duration
	QueueBatchSize  int
	QueueMaxRetries int
	QueueLease      time.Duration
}

const (
	defaultRunAddress           = ":8080"
	defaultJWTSecret            = "change-me-in-production"
	defaultLogLevel             = "info"
	defaultTokenTTL             = 24 * time.Hour
	defaultShutdownTimeout      = 10 * time.Second
	defaultCJBaseURL            = "https://developers.cjdropshipping.com/api2.0/v1"
	defaultAliExpressBaseURL    = "https://api-sg.aliexpress.com"
	defaultBigBuyBaseURL        = "https://api.bigbuy.eu"
	defaultShopifyAPIVersion    = "2024-07"
	defaultSupplierTimeout      = 30 * time.Second
	defaultSupplierRPS          = 1.0
	defaultSupplierBurst        = 1
	defaultIdempotencyTTL       = 24 * time.Hour
	defaultTrackingSyncInterval = 15 * time.Minute
	defaultTrackingBatchSize    = 50
	defaultTrackingWorkers      = 1
	defaultQueueInterval        = time.Minute
	defaultQueueBatchSize       = 10
	defaultQueueMaxRetries      = 5
	defaultQueueLease           = 10 * time.Minute
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:           getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:          getString(lookup, "DATABASE_URI", ""),
		RedisAddress:         getString(lookup, "REDIS_ADDRESS", ""),
		JWTSecret:            getString(lookup, "JWT_SECRET", defaultJWTSecret),
		VaultKey:             getString(lookup, "VAULT_KEY", ""),
		LogLevel:             getString(lookup, "LOG_LEVEL", defaultLogLevel),
		TokenTTL:             getDuration(lookup, "TOKEN_TTL", defaultTokenTTL),
		ShutdownTimeout:      getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		CJBaseURL:            getString(lookup, "CJ_BASE_URL", defaultCJBaseURL),
		AliExpressBaseURL:    getString(lookup, "ALIEXPRESS_BASE_URL", defaultAliExpressBaseURL),
		BigBuyBaseURL:        getString(lookup, "BIGBUY_BASE_URL", defaultBigBuyBaseURL),
		ShopifyAPIVersion:    getString(lookup, "SHOPIFY_API_VERSION", defaultShopifyAPIVersion),
		SupplierTimeout:      getDuration(lookup, "SUPPLIER_TIMEOUT", defaultSupplierTimeout),
		SupplierRPS:          getFloat(lookup, "SUPPLIER_RPS", defaultSupplierRPS),
		SupplierBurst:        getInt(lookup, "SUPPLIER_BURST", defaultSupplierBurst),
		IdempotencyTTL:       getDuration(lookup, "IDEMPOTENCY_TTL", defaultIdempotencyTTL),
		TrackingSyncInterval: getDuration(lookup, "TRACKING_SYNC_INTERVAL", defaultTrackingSyncInterval),
		TrackingBatchSize:    getInt(lookup, "TRACKING_BATCH_SIZE", defaultTrackingBatchSize),
		TrackingWorkers:      getInt(lookup, "TRACKING_WORKERS", defaultTrackingWorkers),
		QueueInterval:        getDuration(lookup, "QUEUE_INTERVAL", defaultQueueInterval),
		QueueBatchSize:       getInt(lookup, "QUEUE_BATCH_SIZE", defaultQueueBatchSize),
		QueueMaxRetries:      getInt(lookup, "QUEUE_MAX_RETRIES", defaultQueueMaxRetries),
		QueueLease:           getDuration(lookup, "QUEUE_LEASE", defaultQueueLease),
	}

	fs := flag.NewFlagSet("autoorder", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		supplierTimeoutStr = cfg.SupplierTimeout.String()
		syncIntervalStr    = cfg.TrackingSyncInterval.String()
		queueIntervalStr   = cfg.QueueInterval.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.RedisAddress, "redis", cfg.RedisAddress, "Redis address for idempotency keys")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&supplierTimeoutStr, "supplier-timeout", supplierTimeoutStr, "Per-call supplier API timeout")
	fs.Float64Var(&cfg.SupplierRPS, "supplier-rps", cfg.SupplierRPS, "Requests per second allowed per supplier")
	fs.StringVar(&syncIntervalStr, "sync-interval", syncIntervalStr, "Interval between tracking sweeps")
	fs.IntVar(&cfg.TrackingBatchSize, "sync-batch", cfg.TrackingBatchSize, "Maximum supplier orders per tracking sweep")
	fs.IntVar(&cfg.TrackingWorkers, "sync-workers", cfg.TrackingWorkers, "Number of concurrent tracking workers")
	fs.StringVar(&queueIntervalStr, "queue-interval", queueIntervalStr, "Interval between auto-order queue passes")
	fs.IntVar(&cfg.QueueBatchSize, "queue-batch", cfg.QueueBatchSize, "Maximum queued orders per pass")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.SupplierTimeout, err = time.ParseDuration(supplierTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid supplier timeout: %w", err)
	}

	if cfg.TrackingSyncInterval, err = time.ParseDuration(syncIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid sync interval: %w", err)
	}

	if cfg.QueueInterval, err = time.ParseDuration(queueIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid queue interval: %w", err)
	}

	if secretFile, ok := lookup("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = string(content)
	}

	if keyFile, ok := lookup("VAULT_KEY_FILE"); ok && keyFile != "" {
		content, err := os.ReadFile(keyFile)
		if err != nil {
			return nil, fmt.Errorf("read vault key file: %w", err)
		}
		cfg.VaultKey = strings.TrimSpace(string(content))
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	if cfg.SupplierTimeout <= 0 {
		cfg.SupplierTimeout = defaultSupplierTimeout
	}

	if cfg.SupplierRPS <= 0 {
		cfg.SupplierRPS = defaultSupplierRPS
	}

	if cfg.SupplierBurst <= 0 {
		cfg.SupplierBurst = defaultSupplierBurst
	}

	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = defaultIdempotencyTTL
	}

	if cfg.TrackingSyncInterval <= 0 {
		cfg.TrackingSyncInterval = defaultTrackingSyncInterval
	}

	if cfg.TrackingBatchSize <= 0 {
		cfg.TrackingBatchSize = defaultTrackingBatchSize
	}

	if cfg.TrackingWorkers <= 0 {
		cfg.TrackingWorkers = defaultTrackingWorkers
	}

	if cfg.QueueInterval <= 0 {
		cfg.QueueInterval = defaultQueueInterval
	}

	if cfg.QueueBatchSize <= 0 {
		cfg.QueueBatchSize = defaultQueueBatchSize
	}

	if cfg.QueueMaxRetries <= 0 {
		cfg.QueueMaxRetries = defaultQueueMaxRetries
	}

	if cfg.QueueLease <= 0 {
		cfg.QueueLease = defaultQueueLease
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.VaultKey == "" {
		return nil, fmt.Errorf("vault key must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(lookup envLookup, key string, def float64) float64 {
	if v, ok := lookup(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
