// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/magabrotheeeer/warranty-tracker/internal/ratelimit"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"migrations"`
	// MetricsAddress адрес /metrics фоновых сервисов.
	MetricsAddress string `yaml:"metrics_address" env:"METRICS_ADDRESS" env-default:":9091"`
	HTTPServer              `yaml:"http_server"`
	RedisConnection         `yaml:"redis_connection"`
	JWTToken                `yaml:"jwttoken"`

	RabbitMQ  RabbitMQ  `yaml:"rabbitmq"`
	SMTP      SMTP      `yaml:"smtp"`
	RateLimit RateLimit `yaml:"rate_limit"`
	Scheduler Scheduler `yaml:"scheduler"`
	CORS      CORS      `yaml:"cors"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
	CacheTTL     time.Duration `yaml:"cache_ttl" env-default:"5m"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
}

// RabbitMQ настройки брокера уведомлений
type RabbitMQ struct {
	URL         string        `yaml:"url" env:"RABBITMQ_URL"`
	Exchange    string        `yaml:"exchange" env-default:"notifications"`
	Queue       string        `yaml:"queue" env-default:"notification.warranty_expiry"`
	RoutingKey  string        `yaml:"routing_key" env-default:"warranty.expiry"`
	MaxRetries  int           `yaml:"max_retries" env-default:"5"`
	RetryDelay  time.Duration `yaml:"retry_delay" env-default:"2s"`
	Concurrency int           `yaml:"concurrency" env-default:"10"`
}

// SMTP настройки почтового сервера
type SMTP struct {
	Host           string  `yaml:"host" env:"SMTP_HOST"`
	Port           int     `yaml:"port" env-default:"587"`
	User           string  `yaml:"user" env:"SMTP_USER"`
	Password       string  `yaml:"password" env:"SMTP_PASSWORD"`
	From           string  `yaml:"from"`
	SendsPerSecond float64 `yaml:"sends_per_second" env-default:"5"`
}

// RateLimit настройки ограничителя запросов
type RateLimit struct {
	// Store "memory" или "redis".
	Store         string           `yaml:"store" env-default:"memory"`
	SweepInterval time.Duration    `yaml:"sweep_interval" env-default:"1m"`
	Auth          ratelimit.Config `yaml:"auth"`
	AI            ratelimit.Config `yaml:"ai"`
	General       ratelimit.Config `yaml:"general"`
}

// Configs возвращает лимиты по категориям; незаданные категории
// получат значения по умолчанию в ratelimit.NewLimiter.
func (r RateLimit) Configs() map[ratelimit.Category]ratelimit.Config {
	return map[ratelimit.Category]ratelimit.Config{
		ratelimit.CategoryAuth:    r.Auth,
		ratelimit.CategoryAI:      r.AI,
		ratelimit.CategoryGeneral: r.General,
	}
}

// Scheduler настройки фоновых задач
type Scheduler struct {
	ReconcileInterval time.Duration `yaml:"reconcile_interval" env-default:"1h"`
	NotifyInterval    time.Duration `yaml:"notify_interval" env-default:"24h"`
	BatchSize         int           `yaml:"batch_size" env-default:"500"`
	RunOnStart        bool          `yaml:"run_on_start" env-default:"true"`
}

// CORS разрешенные источники
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:","`
}

// Load читает конфиг из файла path, переменные окружения имеют приоритет.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%s: file %s: %w", op, path, err)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига по пути из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Redis:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ:\n"+
			"  Exchange: %s\n"+
			"  Queue: %s\n"+
			"RateLimit:\n"+
			"  Store: %s\n"+
			"  SweepInterval: %s\n"+
			"Scheduler:\n"+
			"  ReconcileInterval: %s\n"+
			"  NotifyInterval: %s\n",
		c.Env,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.AddressRedis,
		c.DB,
		c.RabbitMQ.Exchange,
		c.RabbitMQ.Queue,
		c.RateLimit.Store,
		c.RateLimit.SweepInterval,
		c.Scheduler.ReconcileInterval,
		c.Scheduler.NotifyInterval,
	)
}
