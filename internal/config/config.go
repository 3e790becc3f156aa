package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	defaultProfilePicture = "https://via.placeholder.com/150"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	ServerPort     string
	RequestTimeout time.Duration
	AppEnv         string
	ClientURL      string
	AutoMigrate    bool

	JWTSecret   string
	TokenMaxAge int

	RedisURL        string
	SummaryCacheTTL time.Duration

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	DefaultProfilePicture string
}

// IsDevelopment reports whether error details may be exposed to clients.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// StorageConfigured reports whether all R2 settings are present.
func (c *Config) StorageConfigured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicURL != ""
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	tokenMaxAge, err := positiveInt("TOKEN_MAX_AGE", 7*24*60*60)
	if err != nil {
		return nil, err
	}

	requestTimeout, err := positiveInt("REQUEST_TIMEOUT", 10)
	if err != nil {
		return nil, err
	}

	cacheTTL, err := positiveInt("SUMMARY_CACHE_TTL", 300)
	if err != nil {
		return nil, err
	}

	autoMigrate := false
	if v := os.Getenv("AUTO_MIGRATE"); v != "" {
		autoMigrate, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTO_MIGRATE %q: %w", v, err)
		}
	}

	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = EnvProduction
	}

	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getEnv("DB_SSLMODE", "require"),

		ServerPort:     getEnv("SERVER_PORT", "8080"),
		RequestTimeout: time.Duration(requestTimeout) * time.Second,
		AppEnv:         appEnv,
		ClientURL:      os.Getenv("CLIENT_URL"),
		AutoMigrate:    autoMigrate,

		JWTSecret:   jwtSecret,
		TokenMaxAge: tokenMaxAge,

		RedisURL:        os.Getenv("REDIS_URL"),
		SummaryCacheTTL: time.Duration(cacheTTL) * time.Second,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),

		DefaultProfilePicture: getEnv("DEFAULT_PROFILE_PICTURE", defaultProfilePicture),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// positiveInt reads key as a positive integer, using fallback when unset.
func positiveInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, raw)
	}
	return n, nil
}
