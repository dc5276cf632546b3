package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultVoiceTokenURL   = "https://us-central1-openlabel-lab-firebase.cloudfunctions.net/get_token"
	DefaultVoiceServiceURL = "wss://thinkloud-9x8bbl7h.livekit.cloud"
)

var ErrMissingBackendURL = errors.New(
	"NEXT_PUBLIC_API_URL environment variable is not set; set it in your .env file")

type Config struct {
	APIPort    string
	BackendURL *url.URL

	ProxyPrefix      string
	PlaceholderToken string
	UpstreamTimeout  time.Duration

	VoiceTokenURL   string
	VoiceServiceURL string

	JWTKey []byte
	JWTExp time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	StatusCacheTTL time.Duration

	NatsURL     string
	NatsSubject string

	TrackerPollInterval time.Duration
	TrackerMaxPolls     int

	GatewayURL string
	LogLevel   string
}

var AppConfig *Config

// Load reads .env (if present) and the process environment. It fails when the
// backend origin is missing so that binaries stop at startup, not at request time.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on environment variables")
	}

	rawBackendURL := getEnv("NEXT_PUBLIC_API_URL", "")
	if rawBackendURL == "" {
		return nil, ErrMissingBackendURL
	}
	backendURL, err := url.Parse(rawBackendURL)
	if err != nil || backendURL.Scheme == "" || backendURL.Host == "" {
		return nil, fmt.Errorf("NEXT_PUBLIC_API_URL %q is not an absolute URL", rawBackendURL)
	}

	cfg := &Config{
		APIPort:    getEnv("API_PORT", "3000"),
		BackendURL: backendURL,

		ProxyPrefix:      getEnv("PROXY_PREFIX", "api"),
		PlaceholderToken: getEnv("PLACEHOLDER_TOKEN", "test"),
		UpstreamTimeout:  time.Duration(getEnvAsInt("UPSTREAM_TIMEOUT_SECONDS", 30)) * time.Second,

		VoiceTokenURL:   getEnv("VOICE_TOKEN_URL", DefaultVoiceTokenURL),
		VoiceServiceURL: getEnv("VOICE_SERVICE_URL", DefaultVoiceServiceURL),

		JWTKey: []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp: time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,

		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "algotutor"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvAsInt("REDIS_DB", 0),
		StatusCacheTTL: time.Duration(getEnvAsInt("STATUS_CACHE_TTL_SECONDS", 3600)) * time.Second,

		NatsURL:     getEnv("NATS_URL", ""),
		NatsSubject: getEnv("NATS_SUBJECT", "algotutor.submission.completed"),

		TrackerPollInterval: time.Duration(getEnvAsInt("TRACKER_POLL_INTERVAL_MS", 2000)) * time.Millisecond,
		TrackerMaxPolls:     getEnvAsInt("TRACKER_MAX_POLLS", 150),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	cfg.GatewayURL = getEnv("ALGOTUTOR_GATEWAY_URL", "http://localhost:"+cfg.APIPort)

	if cfg.DBHost != "" {
		cfg.DBConnStr = "host=" + cfg.DBHost +
			" port=" + cfg.DBPort +
			" user=" + cfg.DBUser +
			" password=" + cfg.DBPassword +
			" dbname=" + cfg.DBName +
			" sslmode=" + cfg.DBSslMode
	}

	AppConfig = cfg
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
