// Package config loads and validates application configuration from
// environment variables. Every problem found during loading is collected and
// reported as a single aggregated error so an operator sees the full list of
// misconfigurations at once instead of fixing them one restart at a time.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// PoolConfig holds settings for the PostgreSQL connection pool.
type PoolConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxSize  int
}

// AuthConfig holds token-signing configuration. Access and refresh tokens
// are signed with separate secrets so that one leaking does not compromise
// the other class of credential.
type AuthConfig struct {
	AccessTokenSecret    string
	RefreshTokenSecret   string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	// CookieSecure controls the Secure attribute on auth cookies. Disabled
	// only for local development over plain HTTP.
	CookieSecure bool
}

// MediaConfig holds settings for the S3-compatible media store that hosts
// avatar and cover images.
type MediaConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// TempDir is where multipart uploads are spooled before being pushed to
	// the media store. Files placed here are always removed after an upload
	// attempt, successful or not.
	TempDir string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string
}

// AppConfig is the top-level configuration structure.
type AppConfig struct {
	DB     *PoolConfig
	Auth   *AuthConfig
	Media  *MediaConfig
	Server *ServerConfig
}

func getRequiredEnv(key string, errs *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		*errs = append(*errs, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getOptionalEnvInt(key string, defaultValue int, errs *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

func getOptionalEnvBool(key string, defaultValue bool, errs *[]string) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueBool, err := strconv.ParseBool(valueStr)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid value for %s: expected boolean, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueBool
}

func getOptionalEnvDuration(key string, defaultValue time.Duration, errs *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueDuration
}

// parseAndValidatePoolSize converts a pool size string to an int and clamps
// it to a sane range.
func parseAndValidatePoolSize(valueStr string, varName string, errs *[]string) int {
	if valueStr == "" {
		return 5
	}
	size, err := strconv.Atoi(valueStr)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid pool size for %s: expected integer, got '%s': %v", varName, valueStr, err))
		return 5
	}
	if size < 5 {
		*errs = append(*errs, fmt.Sprintf("pool size for %s (%d) is less than minimum 5, clamping to 5", varName, size))
		size = 5
	}
	if size > 100 {
		*errs = append(*errs, fmt.Sprintf("pool size for %s (%d) is greater than maximum 100, clamping to 100", varName, size))
		size = 100
	}
	return size
}

// LoadConfig builds an AppConfig from the environment. It returns a single
// error listing every missing or invalid variable.
func LoadConfig() (*AppConfig, error) {
	var errs []string

	// Database
	dbUser := getRequiredEnv("DB_USER", &errs)
	dbPassword := getRequiredEnv("DB_PASSWORD", &errs)
	dbName := getRequiredEnv("DB_NAME", &errs)
	dbHost := getOptionalEnv("DB_HOST", "localhost")
	dbPort := getOptionalEnvInt("DB_PORT", 5432, &errs)
	poolSize := parseAndValidatePoolSize(getOptionalEnv("DB_POOL_SIZE", "10"), "DB_POOL_SIZE", &errs)

	dbConfig := &PoolConfig{
		Host:     dbHost,
		Port:     dbPort,
		User:     dbUser,
		Password: dbPassword,
		DBName:   dbName,
		MaxSize:  poolSize,
	}

	// Auth
	authConfig := &AuthConfig{
		AccessTokenSecret:    getRequiredEnv("ACCESS_TOKEN_SECRET", &errs),
		RefreshTokenSecret:   getRequiredEnv("REFRESH_TOKEN_SECRET", &errs),
		AccessTokenDuration:  getOptionalEnvDuration("ACCESS_TOKEN_DURATION", 15*time.Minute, &errs),
		RefreshTokenDuration: getOptionalEnvDuration("REFRESH_TOKEN_DURATION", 240*time.Hour, &errs), // 10 days
		CookieSecure:         getOptionalEnvBool("AUTH_COOKIE_SECURE", true, &errs),
	}

	// Media store
	mediaConfig := &MediaConfig{
		Endpoint:  getRequiredEnv("MEDIA_S3_ENDPOINT", &errs),
		Region:    getOptionalEnv("MEDIA_S3_REGION", "us-east-1"),
		Bucket:    getRequiredEnv("MEDIA_S3_BUCKET", &errs),
		AccessKey: getRequiredEnv("MEDIA_S3_ACCESS_KEY", &errs),
		SecretKey: getRequiredEnv("MEDIA_S3_SECRET_KEY", &errs),
		TempDir:   getOptionalEnv("UPLOAD_TEMP_DIR", os.TempDir()),
	}

	serverConfig := &ServerConfig{
		Port: getOptionalEnv("PORT", "8080"),
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errs, "\n- "))
	}

	return &AppConfig{
		DB:     dbConfig,
		Auth:   authConfig,
		Media:  mediaConfig,
		Server: serverConfig,
	}, nil
}
