package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StoreJSON     = "json"
	StorePostgres = "postgres"

	StorageLocal = "local"
	StorageMinIO = "minio"
)

type DB struct {
	DbHOST     string
	DbPORT     string
	DbUSER     string
	DbPASSWORD string
	DbNAME     string
	DbSSLMODE  string
}

type MinIO struct {
	Endpoint   string `validate:"required_if=Enabled true"`
	AccessKey  string
	SecretKey  string
	BucketName string `validate:"required_if=Enabled true"`
	UseSSL     bool
	Region     string
	Enabled    bool
}

type Store struct {
	Backend     string `validate:"oneof=json postgres"`
	PostsFile   string `validate:"required"`
	PostsFolder string `validate:"required"`
	Storage     string `validate:"oneof=local minio"`
}

// TryOn describes the hosted Gradio space. DenoiseSteps and Seed are fixed
// and never read from the environment.
type TryOn struct {
	BaseURL      string `validate:"required,url"`
	APIPrefix    string
	APIName      string `validate:"required"`
	Token        string
	Timeout      time.Duration `validate:"gt=0"`
	DenoiseSteps int
	Seed         int
}

type RateLimit struct {
	RPS   float64 `validate:"gt=0"`
	Burst int     `validate:"gte=1"`
}

type Config struct {
	ServerPort    int `validate:"gte=1,lte=65535"`
	LogLevel      string
	CORSOrigin    string
	DB            DB
	MinIO         MinIO
	Store         Store
	TryOn         TryOn
	RateLimit     RateLimit
	MaxUploadSize int64 `validate:"gt=0"`
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return duration
}

func parseMaxUploadSize(value string) int64 {
	size, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 10 * 1024 * 1024
	}
	return size
}

func LoadDB() DB {
	return DB{
		DbHOST:     getEnv("DB_HOST", "localhost"),
		DbPORT:     getEnv("DB_PORT", "5432"),
		DbUSER:     getEnv("DB_USER", "postgres"),
		DbPASSWORD: getEnv("DB_PASSWORD", "password"),
		DbNAME:     getEnv("DB_NAME", "style_gallery"),
		DbSSLMODE:  getEnv("DB_SSLMODE", "disable"),
	}
}

func LoadMinIO(storage string) MinIO {
	return MinIO{
		Endpoint:   getEnv("MINIO_ENDPOINT", "localhost:9000"),
		AccessKey:  getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		SecretKey:  getEnv("MINIO_SECRET_KEY", "minioadmin"),
		BucketName: getEnv("MINIO_BUCKET_NAME", "outfits"),
		UseSSL:     getEnvBool("MINIO_USE_SSL", false),
		Region:     getEnv("MINIO_REGION", "us-east-1"),
		Enabled:    storage == StorageMinIO,
	}
}

func LoadStore() Store {
	return Store{
		Backend:     getEnv("STORE_BACKEND", StoreJSON),
		PostsFile:   getEnv("POSTS_FILE", "posts.json"),
		PostsFolder: getEnv("POSTS_FOLDER", "posted_outfits"),
		Storage:     getEnv("STORAGE_BACKEND", StorageLocal),
	}
}

func LoadTryOn() TryOn {
	return TryOn{
		BaseURL:      getEnv("TRYON_BASE_URL", "https://kadirnar-idm-vton.hf.space"),
		APIPrefix:    getEnv("TRYON_API_PREFIX", "/gradio_api"),
		APIName:      getEnv("TRYON_API_NAME", "tryon"),
		Token:        getEnv("HF_TOKEN", ""),
		Timeout:      parseDuration(getEnv("TRYON_TIMEOUT", "3m"), 3*time.Minute),
		DenoiseSteps: 30,
		Seed:         42,
	}
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	store := LoadStore()

	cfg := &Config{
		ServerPort: getEnvAsInt("SERVER_PORT", 8080),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),
		DB:         LoadDB(),
		MinIO:      LoadMinIO(store.Storage),
		Store:      store,
		TryOn:      LoadTryOn(),
		RateLimit: RateLimit{
			RPS:   getEnvAsFloat("RATE_LIMIT_RPS", 0.2),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 3),
		},
		MaxUploadSize: parseMaxUploadSize(getEnv("MAX_UPLOAD_SIZE", "10485760")),
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
