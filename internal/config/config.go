package config

import (
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// GenerationBackendConfig describes the remote study material generator.
// Loaded from the YAML config file so deployments can repoint the gateway
// without rebuilding.
type GenerationBackendConfig struct {
	BaseURL          string `yaml:"base_url"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
	DefaultGeminiKey string `yaml:"default_gemini_key"`
}

type Config struct {
	Port              string
	GinMode           string
	FirebaseProjectID string
	FirebaseCredJSON  string
	ValidatorType     string // "jwk" or "firebase"
	JWTJWKSURL        string

	// Generation backend
	GenerationBackend *GenerationBackendConfig `yaml:"generation_backend"`

	// Session store
	SessionTTLMinutes    int
	SessionSweepSchedule string

	// Upload limits
	MaxUploadBytes int64

	// Server
	ServerShutdownTimeoutSeconds int

	// CORS
	CORSAllowedOrigins string

	// Logging
	LogLevel  string
	LogFormat string
}

var AppConfig *Config

const defaultMaxUploadBytes = 5 << 20 // 5 MiB

func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	AppConfig = &Config{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),

		// Firebase
		FirebaseProjectID: getEnvOrDefault("FIREBASE_PROJECT_ID", ""),
		FirebaseCredJSON:  getEnvOrDefault("FIREBASE_CRED_JSON", ""),

		// Validator
		ValidatorType: getEnvOrDefault("VALIDATOR_TYPE", "firebase"),
		JWTJWKSURL:    getEnvOrDefault("JWT_JWKS_URL", ""),

		// Session store
		SessionTTLMinutes:    getEnvAsInt("SESSION_TTL_MINUTES", 60),
		SessionSweepSchedule: getEnvOrDefault("SESSION_SWEEP_SCHEDULE", "@every 10m"),

		// Upload limits
		MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", defaultMaxUploadBytes),

		// Server
		ServerShutdownTimeoutSeconds: getEnvAsInt("SERVER_SHUTDOWN_TIMEOUT_SECONDS", 30),

		// CORS
		CORSAllowedOrigins: getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),

		// Logging
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "debug"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "text"),
	}

	// Load the generation backend section from the config file.
	configFilePath := getEnvOrDefault("CONFIG_FILE", "config.yaml")
	log.Printf("Loading config file: %v", configFilePath)

	configFile, err := os.Open(configFilePath)
	defer func() {
		if configFile != nil {
			configFile.Close()
		}
	}()

	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	if err := LoadConfigFile(configFile, AppConfig); err != nil {
		log.Fatalf("Failed to load config file: %v", err)
	}

	if AppConfig.GenerationBackend == nil || AppConfig.GenerationBackend.BaseURL == "" {
		log.Fatal("Generation backend configuration is empty")
	}

	if AppConfig.FirebaseProjectID == "" {
		log.Println("Warning: Firebase project ID is missing. Please set FIREBASE_PROJECT_ID environment variable.")
	}

	log.Println("Generation backend: ", AppConfig.GenerationBackend.BaseURL)
}

// BackendTimeout returns the configured generation backend timeout.
func (c *Config) BackendTimeout() time.Duration {
	if c.GenerationBackend == nil || c.GenerationBackend.TimeoutSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.GenerationBackend.TimeoutSeconds) * time.Second
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		} else {
			log.Printf("Warning: Failed to parse environment variable %s='%s' as int, using default %d: %v", key, value, defaultValue, err)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		} else {
			log.Printf("Warning: Failed to parse environment variable %s='%s' as int64, using default %d: %v", key, value, defaultValue, err)
		}
	}
	return defaultValue
}

func LoadConfigFile(reader io.Reader, config *Config) error {
	decoder := yaml.NewDecoder(reader)

	if err := decoder.Decode(config); err != nil {
		return err
	}

	return nil
}
