package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/DRSN-tech/products-api/pkg/e"
	"github.com/DRSN-tech/products-api/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/joho/godotenv"
)

const (
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	App    *AppCfg
	Http   *HTTPConfig
	Store  *StoreCfg
	Dynamo *DynamoCfg
	Db     *PGDBCfg
	Redis  *RedisCfg
	Kafka  *KafkaCfg
}

type AppCfg struct {
	Name            string
	Version         string
	ShutdownTimeout time.Duration
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	SwaggerURL   string
}

type StoreCfg struct {
	Backend string // dynamodb | postgres | memory
}

type DynamoCfg struct {
	Region          string
	Table           string
	Endpoint        string // Пусто — стандартный endpoint AWS; для DynamoDB Local задаётся явно
	AccessKeyID     string
	SecretAccessKey string
}

type PGDBCfg struct {
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	MaxConns      int32
	MigrationsURL string
}

// RedisCfg — кэш карточек продукта. Enabled == false, если REDIS_ADDR не задан.
type RedisCfg struct {
	Enabled     bool
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	ProductTTL  time.Duration
}

// KafkaCfg — публикация событий изменения продуктов. Enabled == false, если KAFKA_BROKERS не задан.
type KafkaCfg struct {
	Enabled      bool
	Topic        string
	Brokers      []string
	WriteTimeout time.Duration
}

// Load читает конфигурацию из окружения. Если в рабочей директории есть .env,
// он подхватывается первым (уже заданные переменные не перезаписываются).
// Все некорректные переменные возвращаются одной ошибкой.
func Load(log logger.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	env := &envReader{}

	store, err := loadStoreCfg(env)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	c := &Config{
		App:    loadAppCfg(env),
		Http:   loadHTTPConfig(env),
		Store:  store,
		Dynamo: loadDynamoCfg(env),
		Redis:  loadRedisCfg(env),
		Kafka:  loadKafkaCfg(env),
	}
	if store.Backend == BackendPostgres {
		c.Db = loadPGDBCfg(env)
	}

	if err := env.err(); err != nil {
		log.Errorf(err, "invalid configuration")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return c, nil
}

func loadAppCfg(env *envReader) *AppCfg {
	return &AppCfg{
		Name:            env.str("APP_NAME", "products-api"),
		Version:         env.str("API_VERSION", "v1"),
		ShutdownTimeout: env.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadHTTPConfig(env *envReader) *HTTPConfig {
	port := env.str("HTTP_PORT", "8080")

	return &HTTPConfig{
		Port:         port,
		ReadTimeout:  env.duration("HTTP_READ_TIMEOUT", 5*time.Second),
		WriteTimeout: env.duration("HTTP_WRITE_TIMEOUT", 10*time.Second),
		IdleTimeout:  env.duration("KEEP_ALIVE", time.Minute),
		SwaggerURL:   env.str("SWAGGER_URL", "http://localhost:"+port+"/swagger/doc.json"),
	}
}

func loadStoreCfg(env *envReader) (*StoreCfg, error) {
	backend := strings.ToLower(env.str("STORE_BACKEND", BackendDynamoDB))

	switch backend {
	case BackendDynamoDB, BackendPostgres, BackendMemory:
		return &StoreCfg{Backend: backend}, nil
	default:
		return nil, e.Wrap(fmt.Sprintf("STORE_BACKEND=%q", backend), e.ErrUnknownStoreBackend)
	}
}

func loadDynamoCfg(env *envReader) *DynamoCfg {
	return &DynamoCfg{
		Region:          env.str("AWS_REGION", "us-east-1"),
		Table:           env.str("DYNAMODB_TABLE", "ProductsTable"),
		Endpoint:        env.str("DYNAMODB_ENDPOINT", ""),
		AccessKeyID:     env.str("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.str("AWS_SECRET_ACCESS_KEY", ""),
	}
}

func loadPGDBCfg(env *envReader) *PGDBCfg {
	return &PGDBCfg{
		Host:          env.str("POSTGRES_HOST", "localhost"),
		Port:          env.str("POSTGRES_PORT", "5432"),
		User:          env.required("POSTGRES_USER"),
		Password:      env.required("POSTGRES_PASSWORD"),
		DBName:        env.required("POSTGRES_DB"),
		SSLMode:       env.str("SSL_MODE", "disable"),
		MaxConns:      int32(env.int("POSTGRES_MAX_CONNS", 10)),
		MigrationsURL: env.str("MIGRATIONS_URL", "file://db/migrations"),
	}
}

// loadRedisCfg: без REDIS_ADDR кэш выключен, остальные переменные не читаются.
func loadRedisCfg(env *envReader) *RedisCfg {
	addr := env.str("REDIS_ADDR", "")
	if addr == "" {
		return &RedisCfg{}
	}

	// go-redis принимает один таймаут на чтение и запись, берём больший
	timeout := max(
		env.duration("READ_TIMEOUT", 3*time.Second),
		env.duration("WRITE_TIMEOUT", 3*time.Second),
	)

	return &RedisCfg{
		Enabled:     true,
		Addr:        addr,
		Password:    env.str("REDIS_PASSWORD", ""),
		User:        env.str("REDIS_USER", ""),
		DB:          env.int("REDIS_DB_ID", 0),
		MaxRetries:  env.int("MAX_RETRIES", 3),
		DialTimeout: env.duration("DIAL_TIMEOUT", 5*time.Second),
		Timeout:     timeout,
		ProductTTL:  env.duration("PRODUCT_TTL", 3*time.Minute),
	}
}

// loadKafkaCfg: без KAFKA_BROKERS события не публикуются.
func loadKafkaCfg(env *envReader) *KafkaCfg {
	brokers := splitCSV(env.str("KAFKA_BROKERS", ""))
	if len(brokers) == 0 {
		return &KafkaCfg{}
	}

	return &KafkaCfg{
		Enabled:      true,
		Brokers:      brokers,
		Topic:        env.str("KAFKA_TOPIC", "products.events"),
		WriteTimeout: env.duration("KAFKA_WRITE_TIMEOUT", 10*time.Second),
	}
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
