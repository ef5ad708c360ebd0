package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by CONCIERGE_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("CONCIERGE_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are fine; the process environment still applies.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// Environment returns "production" or "development".
// Anything other than "development" is treated as production.
func Environment() string {
	if strings.EqualFold(os.Getenv("APP_ENV"), "development") {
		return "development"
	}
	return "production"
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// KnowledgeBasePath returns the path of the amenity knowledge file.
func KnowledgeBasePath() string {
	p := os.Getenv("KB_PATH")
	if p == "" {
		return "kb/amenities_kb.txt"
	}
	return p
}

// DatabaseURL selects the booking store by scheme:
// postgres:// or postgresql:// (pgx), mysql:// and sqlite:// (gorm).
func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// SessionBackend returns "memory" (default) or "redis".
func SessionBackend() string {
	b := strings.ToLower(os.Getenv("SESSION_BACKEND"))
	if b == "" {
		return "memory"
	}
	return b
}

func RedisAddr() string {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return "localhost:6379"
	}
	return addr
}

func RedisPassword() string {
	return os.Getenv("REDIS_PASSWORD")
}

func RedisDB() int {
	db, err := strconv.Atoi(os.Getenv("REDIS_DB"))
	if err != nil || db < 0 {
		return 0
	}
	return db
}

// SessionTTL is how long an idle conversation is kept before it is dropped.
func SessionTTL() time.Duration {
	return durationEnv("SESSION_TTL", 30*time.Minute)
}

func SessionSweepInterval() time.Duration {
	return durationEnv("SESSION_SWEEP_INTERVAL", 5*time.Minute)
}

// SinkTimeout bounds a single persist or notify attempt.
func SinkTimeout() time.Duration {
	return durationEnv("SINK_TIMEOUT", 10*time.Second)
}

// SinkRetries is the number of extra attempts after a failed persist or notify.
// Defaults to 1.
func SinkRetries() int {
	n, err := strconv.Atoi(os.Getenv("SINK_RETRIES"))
	if err != nil || n < 0 {
		return 1
	}
	return n
}

func SMTPHost() string {
	return os.Getenv("SMTP_HOST")
}

func SMTPPort() int {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil || port <= 0 {
		return 587
	}
	return port
}

func SMTPUser() string {
	return os.Getenv("SMTP_USER")
}

func SMTPPass() string {
	return os.Getenv("SMTP_PASS")
}

func FromEmail() string {
	return os.Getenv("FROM_EMAIL")
}

// SMTPConfigured reports whether every setting needed to send mail is present.
func SMTPConfigured() bool {
	return SMTPHost() != "" && SMTPUser() != "" && SMTPPass() != "" && FromEmail() != ""
}

// CORSAllowedOrigins returns the comma-separated CORS_ALLOWED_ORIGINS list.
// Defaults to "*" so the browser widget works out of the box.
func CORSAllowedOrigins() []string {
	raw := os.Getenv("CORS_ALLOWED_ORIGINS")
	if raw == "" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// AdminAPIKey protects the operator routes. Empty disables them.
func AdminAPIKey() string {
	return os.Getenv("ADMIN_API_KEY")
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

func durationEnv(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
