package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Dataset   DatasetConfig
	LLM       LLMConfig
	Cache     CacheConfig
	Queue     QueueConfig
	Store     StoreConfig
	R2        R2Config
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DatasetConfig configures the asynchronous dataset provider. Durations
// use Go syntax ("2s", "3m").
type DatasetConfig struct {
	APIKey           string
	BaseURL          string
	ProfileDatasetID string
	SearchDatasetID  string
	DefaultSearchURL string
	PollInterval     time.Duration
	Timeout          time.Duration
	RequestTimeout   time.Duration
}

// LLMConfig configures the OpenAI-compatible endpoint used by the agents.
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	ChatModel   string
}

type CacheConfig struct {
	LookupTTL time.Duration
}

type QueueConfig struct {
	Name        string
	JobTimeout  time.Duration
	ResultTTL   time.Duration
	Concurrency int
	SweepSpec   string
}

type StoreConfig struct {
	Driver      string // "redis" or "postgres"
	DatabaseURL string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type RateLimitConfig struct {
	LookupPerMin   int
	CapturePerHour int
}

func Load() (*Config, error) {
	// A local .env is optional
	_ = godotenv.Load()

	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("DATASET_API_KEY")
	readSecret("LLM_API_KEY")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")
	readSecret("DATABASE_URL")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()

	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.env", "SERVER_ENV")
	_ = v.BindEnv("server.log_level", "LOG_LEVEL")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("dataset.api_key", "DATASET_API_KEY")
	_ = v.BindEnv("dataset.base_url", "DATASET_BASE_URL")
	_ = v.BindEnv("dataset.profile_dataset_id", "DATASET_PROFILE_ID")
	_ = v.BindEnv("dataset.search_dataset_id", "DATASET_SEARCH_ID")
	_ = v.BindEnv("dataset.default_search_url", "DATASET_DEFAULT_SEARCH_URL")
	_ = v.BindEnv("dataset.poll_interval", "DATASET_POLL_INTERVAL")
	_ = v.BindEnv("dataset.timeout", "DATASET_TIMEOUT")
	_ = v.BindEnv("dataset.request_timeout", "DATASET_REQUEST_TIMEOUT")
	_ = v.BindEnv("llm.api_key", "LLM_API_KEY")
	_ = v.BindEnv("llm.base_url", "LLM_BASE_URL")
	_ = v.BindEnv("llm.model", "LLM_MODEL")
	_ = v.BindEnv("llm.vision_model", "LLM_VISION_MODEL")
	_ = v.BindEnv("llm.chat_model", "LLM_CHAT_MODEL")
	_ = v.BindEnv("cache.lookup_ttl", "LOOKUP_CACHE_TTL")
	_ = v.BindEnv("queue.name", "CAPTURE_QUEUE_NAME")
	_ = v.BindEnv("queue.job_timeout", "CAPTURE_JOB_TIMEOUT")
	_ = v.BindEnv("queue.result_ttl", "CAPTURE_JOB_RESULT_TTL")
	_ = v.BindEnv("queue.concurrency", "CAPTURE_WORKER_CONCURRENCY")
	_ = v.BindEnv("queue.sweep_spec", "CAPTURE_SWEEP_SPEC")
	_ = v.BindEnv("store.driver", "STORE_DRIVER")
	_ = v.BindEnv("store.database_url", "DATABASE_URL")
	_ = v.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = v.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = v.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = v.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = v.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = v.BindEnv("ratelimit.lookup_per_min", "RATELIMIT_LOOKUP_PER_MIN")
	_ = v.BindEnv("ratelimit.capture_per_hour", "RATELIMIT_CAPTURE_PER_HOUR")

	// Defaults
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Dataset provider defaults
	v.SetDefault("dataset.base_url", "https://api.brightdata.com/datasets/v3")
	v.SetDefault("dataset.default_search_url", "https://www.linkedin.com")
	v.SetDefault("dataset.poll_interval", 2*time.Second)
	v.SetDefault("dataset.timeout", 180*time.Second)
	v.SetDefault("dataset.request_timeout", 30*time.Second)

	// LLM defaults
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.vision_model", "gpt-4o-mini")
	v.SetDefault("llm.chat_model", "gpt-4o-mini")

	v.SetDefault("cache.lookup_ttl", 24*time.Hour)

	// Capture queue defaults
	v.SetDefault("queue.name", "capture")
	v.SetDefault("queue.job_timeout", 900*time.Second)
	v.SetDefault("queue.result_ttl", 24*time.Hour)
	v.SetDefault("queue.concurrency", 4)
	v.SetDefault("queue.sweep_spec", "@every 1m")

	v.SetDefault("store.driver", "redis")

	v.SetDefault("ratelimit.lookup_per_min", 30)
	v.SetDefault("ratelimit.capture_per_hour", 60)

	// Try to read config file (optional)
	_ = v.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     v.GetString("server.port"),
			Env:      v.GetString("server.env"),
			LogLevel: v.GetString("server.log_level"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Dataset: DatasetConfig{
			APIKey:           v.GetString("dataset.api_key"),
			BaseURL:          v.GetString("dataset.base_url"),
			ProfileDatasetID: v.GetString("dataset.profile_dataset_id"),
			SearchDatasetID:  v.GetString("dataset.search_dataset_id"),
			DefaultSearchURL: v.GetString("dataset.default_search_url"),
			PollInterval:     v.GetDuration("dataset.poll_interval"),
			Timeout:          v.GetDuration("dataset.timeout"),
			RequestTimeout:   v.GetDuration("dataset.request_timeout"),
		},
		LLM: LLMConfig{
			APIKey:      v.GetString("llm.api_key"),
			BaseURL:     v.GetString("llm.base_url"),
			Model:       v.GetString("llm.model"),
			VisionModel: v.GetString("llm.vision_model"),
			ChatModel:   v.GetString("llm.chat_model"),
		},
		Cache: CacheConfig{
			LookupTTL: v.GetDuration("cache.lookup_ttl"),
		},
		Queue: QueueConfig{
			Name:        v.GetString("queue.name"),
			JobTimeout:  v.GetDuration("queue.job_timeout"),
			ResultTTL:   v.GetDuration("queue.result_ttl"),
			Concurrency: v.GetInt("queue.concurrency"),
			SweepSpec:   v.GetString("queue.sweep_spec"),
		},
		Store: StoreConfig{
			Driver:      strings.ToLower(v.GetString("store.driver")),
			DatabaseURL: v.GetString("store.database_url"),
		},
		R2: R2Config{
			AccountID:       v.GetString("r2.account_id"),
			AccessKeyID:     v.GetString("r2.access_key_id"),
			SecretAccessKey: v.GetString("r2.secret_access_key"),
			BucketName:      v.GetString("r2.bucket_name"),
			PublicURL:       v.GetString("r2.public_url"),
		},
		RateLimit: RateLimitConfig{
			LookupPerMin:   v.GetInt("ratelimit.lookup_per_min"),
			CapturePerHour: v.GetInt("ratelimit.capture_per_hour"),
		},
	}

	return cfg, nil
}
