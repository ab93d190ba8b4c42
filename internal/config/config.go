package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

type Config struct {
	// Server
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	// Upstream completion API
	Provider        string
	APIKey          string
	GroqAPIURL      string
	GroqModel       string
	GeminiModel     string
	UpstreamTimeout time.Duration

	// Rate limiting (0 disables)
	ChatRateLimit int
	RedisURL      string

	// TrustProxyHeaders takes the client address from X-Forwarded-For /
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool

	// Profiles
	DatabaseURL string
	StoragePath string
}

// ConfigurationError reports a setting the process cannot start without.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s %s", e.Key, e.Reason)
}

// Load reads the environment (and an optional .env file) once at process start.
// A missing upstream secret is returned as a *ConfigurationError.
func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	port := getEnvOrDefault("PORT", "4000")
	cfg := &Config{
		Port:              port,
		Env:               getEnvOrDefault("ENV", "development"),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
		PublicBaseURL:     strings.TrimRight(getEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:"+port), "/"),
		Provider:          strings.ToLower(getEnvOrDefault("UPSTREAM_PROVIDER", ProviderGroq)),
		GroqAPIURL:        getEnvOrDefault("GROQ_API_URL", "https://api.groq.com/openai/v1/chat/completions"),
		GroqModel:         getEnvOrDefault("GROQ_MODEL", "llama3-70b-8192"),
		GeminiModel:       getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		UpstreamTimeout:   getEnvAsDurationOrDefault("UPSTREAM_TIMEOUT", 30*time.Second),
		ChatRateLimit:     getEnvAsIntOrDefault("CHAT_RATE_LIMIT", 0),
		RedisURL:          getEnvOrDefault("REDIS_URL", ""),
		TrustProxyHeaders: getEnvAsBoolOrDefault("TRUST_PROXY_HEADERS", false),
		DatabaseURL:       getEnvOrDefault("DATABASE_URL", ""),
		StoragePath:       getEnvOrDefault("STORAGE_PATH", "./uploads"),
	}

	var err error
	switch cfg.Provider {
	case ProviderGroq:
		cfg.APIKey, err = requireEnv("GROQ_API_KEY")
	case ProviderGemini:
		cfg.APIKey, err = requireEnv("GEMINI_API_KEY")
	default:
		err = &ConfigurationError{Key: "UPSTREAM_PROVIDER", Reason: fmt.Sprintf("has unsupported value %q", cfg.Provider)}
	}
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// ListenAddr binds every interface so LAN clients can reach a developer machine.
func (c *Config) ListenAddr() string {
	return "0.0.0.0:" + c.Port
}

func requireEnv(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", &ConfigurationError{Key: key, Reason: "is not set"}
	}
	return val, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
