package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings, loaded from the environment
type Config struct {
	Port string
	Env  string

	PostgresConnStr string
	MongoURI        string
	MongoDatabase   string

	FirebaseCredentialsPath string
	StorageBucket           string

	// YouTubeCredentialsPath enables the video-hosting destination when set;
	// without it every upload goes to object storage.
	YouTubeCredentialsPath string

	JWTSecret string

	// MaxUploadBytes caps a single file; MaxRequestBytes caps the whole
	// request body, leaving headroom for several files plus multipart
	// framing and the form fields.
	MaxUploadBytes  int64
	MaxRequestBytes int64

	SignedURLTTL  time.Duration
	UploadTimeout time.Duration

	// Accepted bounds for the priority a moderator may attach on approval
	PriorityMin int
	PriorityMax int
}

// Load reads configuration from the environment, falling back to defaults.
// A .env file is honored when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "roadwatch"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		StorageBucket:           getEnv("STORAGE_BUCKET", ""),
		YouTubeCredentialsPath:  getEnv("YOUTUBE_CREDENTIALS_PATH", ""),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		MaxUploadBytes:          getEnvInt64("MAX_UPLOAD_BYTES", 50*1024*1024),
		MaxRequestBytes:         getEnvInt64("MAX_REQUEST_BYTES", 0),
		SignedURLTTL:            getEnvDuration("SIGNED_URL_TTL", 15*time.Minute),
		UploadTimeout:           getEnvDuration("UPLOAD_TIMEOUT", 60*time.Second),
		PriorityMin:             getEnvInt("PRIORITY_MIN", 1),
		PriorityMax:             getEnvInt("PRIORITY_MAX", 5),
	}
	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = 4 * cfg.MaxUploadBytes
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Invalid integer for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
		log.Printf("Invalid integer for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using default %s", key, defaultValue)
	}
	return defaultValue
}
