package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Images   ImagesConfig   `mapstructure:"images"`
	Minio    MinioConfig    `mapstructure:"minio"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Board    BoardConfig    `mapstructure:"board"`
}

type HTTPConfig struct {
	Port        int           `mapstructure:"port"`
	Timeout     time.Duration `mapstructure:"timeout"`
	CORSOrigins []string      `mapstructure:"cors_origins"`
}

// StorageConfig selects where the ad collection is kept: memory, redis or mysql.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ImagesConfig selects how dropped images become an ad's image reference: dataurl or minio.
type ImagesConfig struct {
	Backend  string `mapstructure:"backend"`
	MaxBytes int64  `mapstructure:"max_bytes"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level"`
}

type BoardConfig struct {
	PageSize int `mapstructure:"page_size"`
}

var defaults = map[string]interface{}{
	"http.port":            8080,
	"http.timeout":         "15s",
	"http.cors_origins":    []string{"*"},
	"storage.driver":       "memory",
	"database.host":        "localhost",
	"database.port":        "3306",
	"database.user":        "",
	"database.password":    "",
	"database.name":        "adboard",
	"redis.addr":           "localhost:6379",
	"redis.password":       "",
	"redis.db":             0,
	"images.backend":       "dataurl",
	"images.max_bytes":     10 << 20,
	"minio.endpoint":       "localhost:9000",
	"minio.access_key":     "",
	"minio.secret_key":     "",
	"minio.bucket":         "ad-images",
	"minio.use_ssl":        false,
	"nats.url":             "nats://localhost:4222",
	"nats.enabled":         false,
	"tracing.enabled":      false,
	"tracing.endpoint":     "localhost:4318",
	"tracing.service_name": "adboard",
	"tracing.environment":  "development",
	"tracing.version":      "dev",
	"logger.level":         "info",
	"board.page_size":      10,
}

// LoadConfig reads config.yaml from the working directory, then applies
// .env and environment overrides (HTTP_PORT overrides http.port).
func LoadConfig() (*Config, error) {
	return load(".")
}

func load(paths ...string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.Board.PageSize <= 0 {
		return nil, errors.New("board.page_size must be positive")
	}

	return &config, nil
}

func MustLoadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		log.Fatalf("Could not load configuration: %v", err)
	}
	return config
}
