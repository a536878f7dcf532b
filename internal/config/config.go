package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the minemap service.
//
// Fields:
// - Env: The current environment (local, development, production).
// - HTTPPort: The port of the marker API.
// - Port: The port of the monitoring server.
// - ProviderType: The reverse geocoding provider to use (google, nominatim).
// - APIKey: The API key for the provider (required for Google).
// - Workers: The number of concurrent enrichment workers.
// - Interval: The duration between enrichment polls.
// - GeocodeCache: Path of the SQLite reverse geocoding cache, empty disables it.
// - ImageDir: Directory for captured images when no object storage is configured.
// - MaxImageBytes: Upper bound for uploaded and served images.
type Config struct {
	Env           string
	HTTPPort      int
	Port          int
	ProviderType  string
	APIKey        string
	Workers       int
	Interval      time.Duration
	GeocodeCache  string
	ImageDir      string
	MaxImageBytes int64
	Database      PostgresConfig
	Storage       MinioConfig
	Kafka         KafkaConfig
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// MinioConfig points at the S3-compatible image bucket. An empty Endpoint keeps images on disk.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// KafkaConfig describes where marker events go. No brokers means events are dropped.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// MustLoad reads the configuration from the environment (and an optional .env file).
// It panics when a value cannot be parsed.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("MINEMAP_ENV", "production")
	v.SetDefault("MINEMAP_HTTP_PORT", "8000")
	v.SetDefault("MINEMAP_HEALTH_PORT", "8080")
	v.SetDefault("MINEMAP_PROVIDER_TYPE", "nominatim")
	v.SetDefault("MINEMAP_WORKERS", "10")
	v.SetDefault("MINEMAP_INTERVAL", "10m")
	v.SetDefault("MINEMAP_GEOCODE_CACHE", "geocode-cache.db")
	v.SetDefault("MINEMAP_IMAGE_DIR", "images")
	v.SetDefault("MINEMAP_MAX_IMAGE_BYTES", "10485760")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("MINIO_USE_SSL", "false")
	v.SetDefault("MINIO_BUCKET", "landmines")
	v.SetDefault("KAFKA_TOPIC", "minemap.markers")

	interval, err := time.ParseDuration(v.GetString("MINEMAP_INTERVAL"))
	if err != nil {
		panic("failed to parse interval from configuration")
	}

	healthPort, err := strconv.Atoi(v.GetString("MINEMAP_HEALTH_PORT"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	httpPort, err := strconv.Atoi(v.GetString("MINEMAP_HTTP_PORT"))
	if err != nil {
		panic("failed to parse port for http server from configuration")
	}

	workers, err := strconv.Atoi(v.GetString("MINEMAP_WORKERS"))
	if err != nil {
		panic("failed to parse workers from configuration, must be an integer types")
	}

	maxImage, err := strconv.ParseInt(v.GetString("MINEMAP_MAX_IMAGE_BYTES"), 10, 64)
	if err != nil {
		panic("failed to parse max image size from configuration")
	}

	useSSL, err := strconv.ParseBool(v.GetString("MINIO_USE_SSL"))
	if err != nil {
		panic("failed to parse MINIO_USE_SSL from configuration, must be a boolean")
	}

	return &Config{
		Env:           v.GetString("MINEMAP_ENV"),
		HTTPPort:      httpPort,
		Port:          healthPort,
		ProviderType:  v.GetString("MINEMAP_PROVIDER_TYPE"),
		APIKey:        v.GetString("MINEMAP_PROVIDER_KEY"),
		Workers:       workers,
		Interval:      interval,
		GeocodeCache:  v.GetString("MINEMAP_GEOCODE_CACHE"),
		ImageDir:      v.GetString("MINEMAP_IMAGE_DIR"),
		MaxImageBytes: maxImage,
		Database: PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USERNAME"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
		},
		Storage: MinioConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			UseSSL:    useSSL,
			Bucket:    v.GetString("MINIO_BUCKET"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}
