package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/DRSN-tech/ordering-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverKafka    = "kafka"
	DriverNone     = "none"
)

type Config struct {
	App    *AppCfg
	Http   *HTTPConfig
	Grpc   *GRPCConfig
	Db     *PGDBCfg
	Redis  *RedisCfg
	Cache  *CacheCfg
	Notify *NotifyCfg
	Kafka  *KafkaCfg
	Retry  *RetryCfg
}

type AppCfg struct {
	Name            string
	Env             string
	LogLevel        string
	DBDriver        string        // postgres | memory
	ShutdownTimeout time.Duration // общее время на graceful shutdown
}

type HTTPConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	AllowedOrigins  []string
	EnableSwaggerUI bool
}

type GRPCConfig struct {
	Port        string
	NetworkMode string
}

type PGDBCfg struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
}

// CacheCfg: настройки слоя кэша. Capacity, Shards и EvictionPercentage
// используются только in-process бэкендом.
type CacheCfg struct {
	Driver             string // redis | memory
	TTL                time.Duration
	Capacity           int
	Shards             int
	EvictionPercentage int
}

type NotifyCfg struct {
	Driver    string // redis | kafka | none
	QueueSize int
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

type RetryCfg struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// LoadEnvFile подгружает переменные из .env (или из перечисленных файлов).
// Отсутствующий файл ошибкой не считается: в контейнере переменные приходят из окружения.
func LoadEnvFile(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return e.Wrap(whereami.WhereAmI(), err)
		}
		existing = append(existing, f)
	}

	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	app, err := loadAppCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var db *PGDBCfg
	if app.DBDriver == DriverPostgres {
		db, err = loadPGDBCfg(log)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	cache, err := loadCacheCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	notify, err := loadNotifyCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var kafka *KafkaCfg
	if notify.Driver == DriverKafka {
		kafka, err = loadKafkaCfg()
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	retry, err := loadRetryCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		App:    app,
		Http:   http,
		Grpc:   loadGRPCConfig(),
		Db:     db,
		Redis:  redis,
		Cache:  cache,
		Notify: notify,
		Kafka:  kafka,
		Retry:  retry,
	}, nil
}

func loadAppCfg() (*AppCfg, error) {
	const (
		defaultName            = "ordering-backend"
		defaultEnv             = "development"
		defaultLogLevel        = "info"
		defaultShutdownTimeout = 10 * time.Second
	)

	driver := strings.ToLower(getEnvOrDefault("DB_DRIVER", DriverPostgres))
	if driver != DriverPostgres && driver != DriverMemory {
		return nil, e.Wrap("DB_DRIVER", e.ErrUnknownDriver)
	}

	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", defaultShutdownTimeout)
	if err != nil {
		return nil, e.Wrap("SHUTDOWN_TIMEOUT", err)
	}

	return &AppCfg{
		Name:            getEnvOrDefault("APP_NAME", defaultName),
		Env:             getEnvOrDefault("APP_ENV", defaultEnv),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", defaultLogLevel),
		DBDriver:        driver,
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort           = "8080"
		defaultReadTimeout    = 5 * time.Second
		defaultWriteTimeout   = 10 * time.Second
		defaultIdleTimeout    = 60 * time.Second
		defaultAllowedOrigins = "*"
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	swaggerUI, err := strconv.ParseBool(getEnvOrDefault("SWAGGER_UI", "true"))
	if err != nil {
		log.Errorf(err, "invalid SWAGGER_UI")
		return nil, err
	}

	return &HTTPConfig{
		Port:            port,
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		AllowedOrigins:  splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", defaultAllowedOrigins)),
		EnableSwaggerUI: swaggerUI,
	}, nil
}

func loadGRPCConfig() *GRPCConfig {
	const (
		defaultPort        = "8091"
		defaultNetworkMode = "tcp"
	)

	return &GRPCConfig{
		Port:        getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode: getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
	}
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost           = "localhost"
		defaultPort           = "5432"
		defaultSSLMode        = "disable"
		defaultMigrationsPath = "file://db/migrations"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:           getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:           getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:           user,
		Password:       password,
		DBName:         dbName,
		SSLMode:        getEnvOrDefault("SSL_MODE", defaultSSLMode),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath),
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
	)

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("REDIS_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid REDIS_MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("REDIS_DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("REDIS_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("REDIS_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_WRITE_TIMEOUT")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
	}, nil
}

func loadCacheCfg(log logger.Logger) (*CacheCfg, error) {
	const (
		defaultTTL                = 60 * time.Second
		defaultCapacity           = 10000
		defaultShards             = 10
		defaultEvictionPercentage = 10
	)

	driver := strings.ToLower(getEnvOrDefault("CACHE_DRIVER", DriverRedis))
	if driver != DriverRedis && driver != DriverMemory {
		err := e.Wrap("CACHE_DRIVER", e.ErrUnknownDriver)
		log.Errorf(err, "invalid CACHE_DRIVER")
		return nil, err
	}

	ttl, err := parseDurationEnv("CACHE_TTL", defaultTTL)
	if err != nil {
		log.Errorf(err, "invalid CACHE_TTL")
		return nil, err
	}

	capacity, err := parseIntEnv("CACHE_CAPACITY", defaultCapacity)
	if err != nil {
		log.Errorf(err, "invalid CACHE_CAPACITY")
		return nil, err
	}

	shards, err := parseIntEnv("CACHE_SHARDS", defaultShards)
	if err != nil {
		log.Errorf(err, "invalid CACHE_SHARDS")
		return nil, err
	}

	eviction, err := parseIntEnv("CACHE_EVICTION_PERCENTAGE", defaultEvictionPercentage)
	if err != nil {
		log.Errorf(err, "invalid CACHE_EVICTION_PERCENTAGE")
		return nil, err
	}

	return &CacheCfg{
		Driver:             driver,
		TTL:                ttl,
		Capacity:           capacity,
		Shards:             shards,
		EvictionPercentage: eviction,
	}, nil
}

func loadNotifyCfg(log logger.Logger) (*NotifyCfg, error) {
	const defaultQueueSize = 256

	driver := strings.ToLower(getEnvOrDefault("NOTIFY_DRIVER", DriverRedis))
	switch driver {
	case DriverRedis, DriverKafka, DriverNone:
	default:
		err := e.Wrap("NOTIFY_DRIVER", e.ErrUnknownDriver)
		log.Errorf(err, "invalid NOTIFY_DRIVER")
		return nil, err
	}

	queueSize, err := parseIntEnv("NOTIFY_QUEUE_SIZE", defaultQueueSize)
	if err != nil {
		log.Errorf(err, "invalid NOTIFY_QUEUE_SIZE")
		return nil, err
	}

	return &NotifyCfg{
		Driver:    driver,
		QueueSize: queueSize,
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
		defaultTopic             = "ordering.events"
	)

	brokerStr := os.Getenv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	return &KafkaCfg{
		Brokers:           splitList(brokerStr),
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

func loadRetryCfg(log logger.Logger) (*RetryCfg, error) {
	const (
		defaultAttempts  = 3
		defaultBaseDelay = 50 * time.Millisecond
		defaultMaxDelay  = time.Second
	)

	attempts, err := parseIntEnv("RETRY_ATTEMPTS", defaultAttempts)
	if err != nil {
		log.Errorf(err, "invalid RETRY_ATTEMPTS")
		return nil, err
	}

	baseDelay, err := parseDurationEnv("RETRY_BASE_DELAY", defaultBaseDelay)
	if err != nil {
		log.Errorf(err, "invalid RETRY_BASE_DELAY")
		return nil, err
	}

	maxDelay, err := parseDurationEnv("RETRY_MAX_DELAY", defaultMaxDelay)
	if err != nil {
		log.Errorf(err, "invalid RETRY_MAX_DELAY")
		return nil, err
	}

	return &RetryCfg{
		Attempts:  attempts,
		BaseDelay: baseDelay,
		MaxDelay:  maxDelay,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
