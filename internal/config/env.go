package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	Port        string
	JwtSecret   string

	// Gemini.
	AIAPIKey      string
	EmbedModel    string
	EmbedDim      int
	GenModel      string
	FallbackModel string
	Temperature   float64
	MaxTokens     int

	// Document pipeline.
	UploadDir    string
	ChunkSize    int
	ChunkOverlap int
	TopK         int

	// Optional S3 archive of uploaded originals. Disabled when BucketName
	// is empty.
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Port:        getEnv("PORT", "8080"),
		JwtSecret:   getEnv("JWT_SECRET", ""),

		AIAPIKey:      getEnv("GOOGLE_API_KEY", getEnv("GEMINI_API_KEY", "")),
		EmbedModel:    getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:      getEnvInt("EMBED_DIM", 768),
		GenModel:      getEnv("GEN_MODEL", "gemini-1.5-pro"),
		FallbackModel: getEnv("FALLBACK_MODEL", "gemini-1.5-flash"),
		Temperature:   getEnvFloat("TEMPERATURE", 0.2),
		MaxTokens:     getEnvInt("MAX_TOKENS", 1024),

		UploadDir:    getEnv("UPLOAD_DIR", "uploads"),
		ChunkSize:    getEnvInt("CHUNK_SIZE", 900),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 150),
		TopK:         getEnvInt("TOP_K", 4),

		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", ""),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	if cfg.AIAPIKey == "" {
		log.Fatal("GOOGLE_API_KEY not set")
	}
	if cfg.JwtSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("WARN: %s=%q not a float, using default %g", key, v, def)
		return def
	}
	return f
}
