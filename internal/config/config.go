package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// APIKeyEnv is the environment variable holding the detection API credential.
const APIKeyEnv = "ROBOFLOW_API_KEY"

type Config struct {
	Port              int
	GalleryDirectory  string
	StaticDirectory   string
	LogDirectory      string
	DetectURL         string        // Base URL of the hosted detection service
	DetectModel       string        // Model id and version, appended to DetectURL
	DetectStroke      int           // Annotation stroke width requested from the service
	DetectTimeout     time.Duration // Whole-request timeout, 0 disables it
	DefaultConfidence int
	DefaultOverlap    int
	MaxUploadSize     int64 // Bytes
	FontPath          string
	CORSOrigins       []string
	ThumbnailSize     int
}

// Load reads the optional env file first, then builds the config from the environment.
func Load() *Config {
	// A missing env file is fine, the variables may come from the process environment.
	_ = godotenv.Load(getEnv("ENV_FILE", ".env"))

	return &Config{
		Port:              getEnvAsInt("PORT", 8080),
		GalleryDirectory:  getEnv("GALLERY_DIR", filepath.Join(".", "images")),
		StaticDirectory:   getEnv("STATIC_DIR", filepath.Join(".", "static")),
		LogDirectory:      getEnv("LOG_DIR", filepath.Join(".", "logs")),
		DetectURL:         getEnv("DETECT_URL", "https://detect.roboflow.com"),
		DetectModel:       getEnv("DETECT_MODEL", "waste-detection-vnfx1/2"),
		DetectStroke:      getEnvAsInt("DETECT_STROKE", 5),
		DetectTimeout:     time.Duration(getEnvAsInt("DETECT_TIMEOUT", 60)) * time.Second,
		DefaultConfidence: getEnvAsInt("DEFAULT_CONFIDENCE", 50),
		DefaultOverlap:    getEnvAsInt("DEFAULT_OVERLAP", 50),
		MaxUploadSize:     getEnvAsInt64("MAX_UPLOAD_SIZE", 10<<20),
		FontPath:          getEnv("FONT_PATH", ""),
		CORSOrigins:       getEnvAsList("CORS_ORIGINS", nil),
		ThumbnailSize:     getEnvAsInt("THUMBNAIL_SIZE", 160),
	}
}

// EnvSecretStore reads the API credential from the process environment on every call,
// so a rotated key is picked up without a restart.
type EnvSecretStore struct {
	Key string
}

// APIKey returns the configured credential or an error when it is unset.
func (s EnvSecretStore) APIKey() (string, error) {
	key := s.Key
	if key == "" {
		key = APIKeyEnv
	}
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v, nil
	}
	return "", &MissingSecretError{Key: key}
}

// MissingSecretError is returned when a required secret is not configured.
type MissingSecretError struct {
	Key string
}

func (e *MissingSecretError) Error() string {
	return "missing secret " + e.Key
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

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
