package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string

	OpenAIAPIKey   string
	OpenAIModel    string
	GatewayTimeout time.Duration

	DatabaseURL string
	DBPath      string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string

	RedisAddr string

	VoiceProvider     string
	VoiceLanguage     string
	VoiceName         string
	GoogleCredentials string
}

// Load reads configuration from environment variables with sensible defaults.
// The OpenAI API key is the one hard requirement: without it neither indexing
// nor answering can work, so Load fails and the process must not start.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return Config{}, fmt.Errorf("OPENAI_API_KEY not found: set it in .env or the environment")
	}

	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:             normalizeEnv(getEnv("ENV", "dev")),

		OpenAIAPIKey:   apiKey,
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
		GatewayTimeout: gatewayTimeout(),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBPath:      getEnv("RAG_DB_PATH", "rag_admin.db"),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		VoiceProvider:     normalizeVoiceProvider(getEnv("VOICE_PROVIDER", "google")),
		VoiceLanguage:     getEnv("VOICE_LANGUAGE", "cmn-Hant-TW"),
		VoiceName:         getEnv("VOICE_NAME", ""),
		GoogleCredentials: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
	}

	if cfg.ObjectStoreType == "s3" && strings.TrimSpace(cfg.S3Bucket) == "" {
		return Config{}, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
	}

	return cfg, nil
}

func gatewayTimeout() time.Duration {
	if raw := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return time.Duration(parsed) * time.Second
		}
		log.Printf("OPENAI_TIMEOUT_SECONDS invalid, using default")
	}
	return 60 * time.Second
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeVoiceProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	default:
		return "google"
	}
}
