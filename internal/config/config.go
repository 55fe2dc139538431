package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Database   DatabaseConfig
	S3         S3Config
	Catalog    CatalogConfig
	SourceHost SourceHostConfig
	Cache      CacheConfig
	Engine     EngineConfig
	Logger     LoggerConfig
}

type ServerConfig struct {
	Host string
	Port int
}

// StorageConfig selects the artifact record backend: "postgres" or "s3".
type StorageConfig struct {
	Backend string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	CacheSize int
}

// CatalogConfig points at the model hub that answers size, license and
// dependency hint lookups.
type CatalogConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// SourceHostConfig points at the code host used for repository license
// detection.
type SourceHostConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

type CacheConfig struct {
	TTL         time.Duration
	NegativeTTL time.Duration
	RefsTTL     time.Duration
}

type EngineConfig struct {
	MaxDepth int
	FanOut   int
	Budget   time.Duration
	MemoTTL  time.Duration
	MemoSize int
}

type LoggerConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("STORAGE_BACKEND", "postgres")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "registry")
	v.SetDefault("DATABASE_PASSWORD", "registry")
	v.SetDefault("DATABASE_NAME", "registry")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_CONNS", 10)
	v.SetDefault("DATABASE_MIN_CONNS", 2)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("S3_ENDPOINT", "localhost:9000")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.SetDefault("S3_BUCKET", "registry-artifacts")
	v.SetDefault("S3_USE_SSL", false)
	v.SetDefault("S3_CACHE_SIZE", 1024)
	v.SetDefault("CATALOG_URL", "https://huggingface.co")
	v.SetDefault("CATALOG_TOKEN", "")
	v.SetDefault("CATALOG_TIMEOUT", "30s")
	v.SetDefault("SOURCEHOST_URL", "https://api.github.com")
	v.SetDefault("SOURCEHOST_TOKEN", "")
	v.SetDefault("SOURCEHOST_TIMEOUT", "15s")
	v.SetDefault("CACHE_TTL", "1h")
	v.SetDefault("CACHE_NEGATIVE_TTL", "5m")
	v.SetDefault("CACHE_REFS_TTL", "30m")
	v.SetDefault("ENGINE_MAX_DEPTH", 10)
	v.SetDefault("ENGINE_FAN_OUT", 8)
	v.SetDefault("ENGINE_BUDGET", "60s")
	v.SetDefault("ENGINE_MEMO_TTL", "1h")
	v.SetDefault("ENGINE_MEMO_SIZE", 4096)
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")

	// Env
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		Storage: StorageConfig{
			Backend: v.GetString("STORAGE_BACKEND"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DATABASE_HOST"),
			Port:            v.GetInt("DATABASE_PORT"),
			User:            v.GetString("DATABASE_USER"),
			Password:        v.GetString("DATABASE_PASSWORD"),
			Name:            v.GetString("DATABASE_NAME"),
			SSLMode:         v.GetString("DATABASE_SSLMODE"),
			MaxConns:        v.GetInt("DATABASE_MAX_CONNS"),
			MinConns:        v.GetInt("DATABASE_MIN_CONNS"),
			ConnMaxLifetime: duration(v, "DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		S3: S3Config{
			Endpoint:  v.GetString("S3_ENDPOINT"),
			Region:    v.GetString("S3_REGION"),
			AccessKey: v.GetString("S3_ACCESS_KEY"),
			SecretKey: v.GetString("S3_SECRET_KEY"),
			Bucket:    v.GetString("S3_BUCKET"),
			UseSSL:    v.GetBool("S3_USE_SSL"),
			CacheSize: v.GetInt("S3_CACHE_SIZE"),
		},
		Catalog: CatalogConfig{
			URL:     v.GetString("CATALOG_URL"),
			Token:   v.GetString("CATALOG_TOKEN"),
			Timeout: duration(v, "CATALOG_TIMEOUT", 30*time.Second),
		},
		SourceHost: SourceHostConfig{
			URL:     v.GetString("SOURCEHOST_URL"),
			Token:   v.GetString("SOURCEHOST_TOKEN"),
			Timeout: duration(v, "SOURCEHOST_TIMEOUT", 15*time.Second),
		},
		Cache: CacheConfig{
			TTL:         duration(v, "CACHE_TTL", time.Hour),
			NegativeTTL: duration(v, "CACHE_NEGATIVE_TTL", 5*time.Minute),
			RefsTTL:     duration(v, "CACHE_REFS_TTL", 30*time.Minute),
		},
		Engine: EngineConfig{
			MaxDepth: v.GetInt("ENGINE_MAX_DEPTH"),
			FanOut:   v.GetInt("ENGINE_FAN_OUT"),
			Budget:   duration(v, "ENGINE_BUDGET", 60*time.Second),
			MemoTTL:  duration(v, "ENGINE_MEMO_TTL", time.Hour),
			MemoSize: v.GetInt("ENGINE_MEMO_SIZE"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
	}

	return cfg, nil
}

func duration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return fallback
	}
	return d
}
