package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           int
	APIKey         string
	DBPath         string
	ModelPath      string
	LabelPath      string
	ImageDirectory string
	LogDirectory   string

	TopK             int // ranked predictions kept per scan
	MinDimension     int // smallest accepted image edge in pixels
	LuminanceMin     int // advisory quality gate, 0-255 scale
	LuminanceMax     int
	InferenceThreads int
	MaxUploadSizeMB  int64
}

func Load() *Config {
	// Missing .env is fine, plain environment variables still apply.
	_ = godotenv.Load()

	return &Config{
		Port:           getEnvAsInt("PORT", 8080),
		APIKey:         getEnv("API_KEY", ""),
		DBPath:         getEnv("DB_PATH", filepath.Join(".", "data", "scans.db")),
		ModelPath:      getEnv("MODEL_PATH", filepath.Join(".", "models", "plant_disease_int8.tflite")),
		LabelPath:      getEnv("LABEL_PATH", filepath.Join(".", "models", "labels.txt")),
		ImageDirectory: getEnv("IMAGE_DIR", filepath.Join(".", "images")),
		LogDirectory:   getEnv("LOG_DIR", filepath.Join(".", "logs")),

		TopK:             getEnvAsInt("TOP_K", 3),
		MinDimension:     getEnvAsInt("MIN_DIMENSION", 100),
		LuminanceMin:     getEnvAsInt("LUMINANCE_MIN", 30),
		LuminanceMax:     getEnvAsInt("LUMINANCE_MAX", 225),
		InferenceThreads: getEnvAsInt("INFERENCE_THREADS", 0), // 0 = runtime decides
		MaxUploadSizeMB:  getEnvAsInt64("MAX_UPLOAD_SIZE_MB", 10),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
