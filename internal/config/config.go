// Package config loads the bootstrap configuration for the worker process.
package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment variables")
	}
}

// S3 mirrors spec.md §6 `s3`.
type S3 struct {
	Endpoint     string `mapstructure:"endpoint"`
	Region       string `mapstructure:"region"`
	Bucket       string `mapstructure:"bucket"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	PublicURL    string `mapstructure:"public_base_url"`
	CacheSeconds int    `mapstructure:"cache_seconds"`
}

// Rabbit mirrors spec.md §6 `rabbit`.
type Rabbit struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	User      string `mapstructure:"user"`
	Pass      string `mapstructure:"pass"`
	Vhost     string `mapstructure:"vhost"`
	Queue     string `mapstructure:"queue"`
	Prefetch  int    `mapstructure:"prefetch"`
	RetryMax  int    `mapstructure:"retry_max"`
	DLQ       string `mapstructure:"dlq"`
}

// HTTP mirrors spec.md §6 `http` (the Downloader's configuration, C2).
type HTTP struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxBytes       int64  `mapstructure:"max_bytes"`
	UserAgent      string `mapstructure:"user_agent"`
}

// Temp mirrors spec.md §6 `temp`.
type Temp struct {
	UploadDir string `mapstructure:"upload_dir"`
}

// Imaging mirrors spec.md §6 `imaging` (the ImageEngine's memory guard, C3).
type Imaging struct {
	MemoryLimit string `mapstructure:"memory_limit"`
}

// VariantDef mirrors spec.md §3 VARIANT-DEF. Variants are declared as a
// list, not a map, so that configuration order — which spec.md §4.7.r step 5
// requires rendering to follow — survives YAML/JSON parsing.
type VariantDef struct {
	Name   string `mapstructure:"name"`
	Width  int    `mapstructure:"w"`
	Height int    `mapstructure:"h"`
	Fit    string `mapstructure:"fit"`
}

// Profile mirrors spec.md §3 PROFILE.
type Profile struct {
	Prefix              string       `mapstructure:"prefix"`
	KeepOriginal        bool         `mapstructure:"keep_original"`
	MaxOriginalLongEdge int          `mapstructure:"max_original_long_edge"`
	Codecs              []string     `mapstructure:"codecs"`
	Variants            []VariantDef `mapstructure:"variants"`
}

// Entities allows overriding persistence class names (spec.md §6); kept as
// a free-form string map since this repo has no ORM-level entity registry.
type Entities map[string]string

// Config is the top-level bootstrap document.
type Config struct {
	S3       S3                 `mapstructure:"s3"`
	Rabbit   Rabbit             `mapstructure:"rabbit"`
	HTTP     HTTP               `mapstructure:"http"`
	Temp     Temp               `mapstructure:"temp"`
	Imaging  Imaging            `mapstructure:"imaging"`
	Profiles map[string]Profile `mapstructure:"profiles"`
	Entities Entities            `mapstructure:"entities"`

	DatabaseURL string `mapstructure:"database_url"`
	Env         string `mapstructure:"env"`
	LogLevel    string `mapstructure:"log_level"`
}

// DefaultBootstrapPath is used when neither argv[1] nor BOOTSTRAP_PATH is set.
const DefaultBootstrapPath = "./config/bootstrap.yaml"

// Load resolves the bootstrap path per spec.md §6 (argv[1], else
// BOOTSTRAP_PATH, else DefaultBootstrapPath), applies defaults, binds
// environment overrides, and unmarshals into Config.
func Load(argvPath string) (*Config, error) {
	path := argvPath
	if path == "" {
		path = os.Getenv("BOOTSTRAP_PATH")
	}
	if path == "" {
		path = DefaultBootstrapPath
	}

	v := viper.New()
	v.SetConfigFile(path)

	applyDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		// Missing file is tolerated: defaults + env vars may be sufficient.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database_url is required")
	}
	if len(cfg.Profiles) == 0 {
		return nil, fmt.Errorf("at least one profile must be configured")
	}

	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "info")

	v.SetDefault("s3.region", "auto")
	v.SetDefault("s3.cache_seconds", 31_536_000)

	v.SetDefault("rabbit.host", "localhost")
	v.SetDefault("rabbit.port", 5672)
	v.SetDefault("rabbit.vhost", "/")
	v.SetDefault("rabbit.queue", "media.process")
	v.SetDefault("rabbit.prefetch", 10)
	v.SetDefault("rabbit.retry_max", 5)

	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.max_bytes", 15_000_000)
	v.SetDefault("http.user_agent", "mediaforge/1.0")

	v.SetDefault("imaging.memory_limit", "unbounded")
}

func bindEnv(v *viper.Viper) {
	v.BindEnv("database_url", "DATABASE_URL")
	v.BindEnv("env", "NODE_ENV")
	v.BindEnv("log_level", "LOG_LEVEL")

	v.BindEnv("s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("s3.region", "S3_REGION")
	v.BindEnv("s3.bucket", "S3_BUCKET")
	v.BindEnv("s3.access_key", "S3_ACCESS_KEY")
	v.BindEnv("s3.secret_key", "S3_SECRET_KEY")
	v.BindEnv("s3.public_base_url", "S3_PUBLIC_BASE_URL")

	v.BindEnv("rabbit.host", "RABBIT_HOST")
	v.BindEnv("rabbit.port", "RABBIT_PORT")
	v.BindEnv("rabbit.user", "RABBIT_USER")
	v.BindEnv("rabbit.pass", "RABBIT_PASS")
	v.BindEnv("rabbit.vhost", "RABBIT_VHOST")
	v.BindEnv("rabbit.queue", "RABBIT_QUEUE")
	v.BindEnv("rabbit.dlq", "RABBIT_DLQ")

	v.BindEnv("temp.upload_dir", "TEMP_UPLOAD_DIR")

	v.BindEnv("imaging.memory_limit", "IMAGING_MEMORY_LIMIT")
}
