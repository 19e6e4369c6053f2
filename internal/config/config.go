package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	CatalogStatic  = "static"
	CatalogSQLite  = "sqlite"
	CatalogGraphQL = "graphql"

	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageMongo  = "mongo"

	SinkLog     = "log"
	SinkGraphQL = "graphql"
	SinkKafka   = "kafka"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string

	CatalogSource  string
	CatalogFile    string
	CatalogDBPath  string
	MigrationsPath string
	CatalogCache   bool

	GraphQLURL string
	APIKey     string

	StorageBackend string
	StoragePrefix  string
	PersistTimeout time.Duration
	RedisAddr      string
	RedisPassword  string
	MongoURI       string
	MongoDBName    string

	OrderSink    string
	KafkaBrokers []string
	OrdersTopic  string
}

// Load reads the environment, after filling unset variables from envFiles
// (".env" when none are given). Missing env files are ignored.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var errs []error
	duration := func(key, def string) time.Duration {
		d, err := time.ParseDuration(getenv(key, def))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}

	cfg := Config{
		HTTPPort:        getenv("HTTP_PORT", "8080"),
		RequestTimeout:  duration("REQUEST_TIMEOUT", "30s"),
		ShutdownTimeout: duration("SHUTDOWN_TIMEOUT", "10s"),
		LogLevel:        getenv("LOG_LEVEL", "info"),

		CatalogSource:  getenv("CATALOG_SOURCE", CatalogStatic),
		CatalogFile:    getenv("CATALOG_FILE", ""),
		CatalogDBPath:  getenv("CATALOG_DB_PATH", "catalog.db"),
		MigrationsPath: getenv("MIGRATIONS_PATH", "internal/repository/migrations"),

		GraphQLURL: getenv("GRAPHQL_URL", ""),
		APIKey:     getenv("API_KEY", ""),

		StorageBackend: getenv("STORAGE_BACKEND", StorageMemory),
		StoragePrefix:  getenv("STORAGE_PREFIX", "storefront"),
		PersistTimeout: duration("PERSIST_TIMEOUT", "5s"),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getenv("REDIS_PASSWORD", ""),
		MongoURI:       getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:    getenv("MONGO_DB_NAME", "storefront"),

		OrderSink:    getenv("ORDER_SINK", SinkLog),
		KafkaBrokers: splitCSV(getenv("KAFKA_BROKERS", "localhost:9092")),
		OrdersTopic:  getenv("ORDERS_TOPIC", "orders"),
	}

	cache, err := strconv.ParseBool(getenv("CATALOG_CACHE", "false"))
	if err != nil {
		errs = append(errs, fmt.Errorf("CATALOG_CACHE: %w", err))
	}
	cfg.CatalogCache = cache

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

func (c Config) validate() []error {
	var errs []error
	oneOf := func(key, v string, allowed ...string) {
		for _, a := range allowed {
			if v == a {
				return
			}
		}
		errs = append(errs, fmt.Errorf("%s: %q is not one of %s", key, v, strings.Join(allowed, ", ")))
	}

	oneOf("CATALOG_SOURCE", c.CatalogSource, CatalogStatic, CatalogSQLite, CatalogGraphQL)
	oneOf("STORAGE_BACKEND", c.StorageBackend, StorageMemory, StorageRedis, StorageMongo)
	oneOf("ORDER_SINK", c.OrderSink, SinkLog, SinkGraphQL, SinkKafka)

	if (c.CatalogSource == CatalogGraphQL || c.OrderSink == SinkGraphQL) && c.GraphQLURL == "" {
		errs = append(errs, errors.New("GRAPHQL_URL is required for the graphql catalog source or order sink"))
	}
	if c.OrderSink == SinkKafka && len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required for the kafka order sink"))
	}
	return errs
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
