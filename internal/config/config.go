package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer HTTPServer `yaml:"http_server"`
	API        API        `yaml:"api"`
	Session    Session    `yaml:"session"`
	Redis      Redis      `yaml:"redis"`
	Quiz       Quiz       `yaml:"quiz"`
	Demo       Demo       `yaml:"demo"`
	Postgres   Postgres   `yaml:"postgres"`
	JWT        JWT        `yaml:"jwt"`
	ES         ES         `yaml:"elasticsearch"`
	Minio      Minio      `yaml:"minio"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// API is the remote REST backend the web tier talks to.
type API struct {
	BaseURL string        `yaml:"base_url" env:"API_BASE_URL" env-default:"http://localhost:8081/api"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
	// JWTSecret, when set, makes the web tier verify token signatures
	// instead of only reading their claims.
	JWTSecret string `yaml:"jwt_secret" env:"API_JWT_SECRET"`
}

type Session struct {
	CookieName   string        `yaml:"cookie_name" env-default:"emstudy_session"`
	CookieSecret string        `yaml:"cookie_secret" env:"SESSION_COOKIE_SECRET"`
	Secure       bool          `yaml:"secure"`
	TTL          time.Duration `yaml:"ttl" env-default:"12h"`
	Store        string        `yaml:"store" env:"SESSION_STORE" env-default:"memory"`
}

type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix" env-default:"emstudy:session:"`
}

type Quiz struct {
	TickInterval    time.Duration `yaml:"tick_interval" env-default:"1s"`
	RefreshInterval time.Duration `yaml:"refresh_interval" env-default:"5s"`
	Retention       time.Duration `yaml:"retention" env-default:"10m"`
}

// Demo configures the stand-in backend.
type Demo struct {
	Address     string        `yaml:"address" env:"DEMO_ADDRESS" env-default:"localhost:8081"`
	Seed        bool          `yaml:"seed" env:"DEMO_SEED" env-default:"true"`
	Storage     string        `yaml:"storage" env:"DEMO_STORAGE" env-default:"memory"`
	CORSOrigins []string      `yaml:"cors_origins" env-default:"http://localhost:5173,http://localhost:8080"`
	MaxUpload   int64         `yaml:"max_upload_bytes" env-default:"20971520"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
	// PublicURL is the API base as browsers reach it, used in material download links.
	PublicURL   string        `yaml:"public_url" env:"DEMO_PUBLIC_URL" env-default:"http://localhost:8081/api"`
}

type JWT struct {
	SecretKey string        `yaml:"secret_key" env:"JWT_SECRET"`
	AccessTTL time.Duration `yaml:"access_token_ttl" env-default:"12h"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"PG_HOST"`
	Port     string `yaml:"port" env:"PG_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"PG_USER"`
	Password string `yaml:"password" env:"PG_PASSWORD"`
	DBName   string `yaml:"dbname" env:"PG_DBNAME"`
}

func (p Postgres) Enabled() bool {
	return p.Host != ""
}

type ES struct {
	Hosts    []string `yaml:"hosts" env:"ES_HOSTS"`
	Index    string   `yaml:"index" env-default:"courses"`
	Password string   `yaml:"password" env:"ES_PASSWORD"`
}

func (e ES) Enabled() bool {
	return len(e.Hosts) > 0
}

type Minio struct {
	Endpoint   string        `yaml:"endpoint" env:"MINIO_ENDPOINT"`
	AccessKey  string        `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey  string        `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	UseSSL     bool          `yaml:"use_ssl"`
	Bucket     string        `yaml:"bucket" env-default:"materials"`
	PresignTTL time.Duration `yaml:"presign_ttl" env-default:"1h"`
}

func (m Minio) Enabled() bool {
	return m.Endpoint != ""
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	switch c.Session.Store {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("session.store must be %q or %q, got %q", StoreMemory, StoreRedis, c.Session.Store)
	}
	switch c.Demo.Storage {
	case "memory", "postgres":
	default:
		return fmt.Errorf("demo.storage must be memory or postgres, got %q", c.Demo.Storage)
	}
	if c.Demo.Storage == "postgres" && !c.Postgres.Enabled() {
		return fmt.Errorf("demo.storage is postgres but postgres.host is empty")
	}
	if c.Quiz.TickInterval <= 0 {
		return fmt.Errorf("quiz.tick_interval must be positive")
	}
	return nil
}

// Load reads the YAML file at path and applies env overrides. An empty path
// reads the environment only.
func Load(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env: %w", err)
		}
	} else {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Can not load config: %s", err)
	}
	return cfg
}
