package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr       string
	RequestTimeout time.Duration
	LogLevel       string
	LogFormat      string

	MongoURI string
	MongoDB  string

	RedisURL string

	TMDBAPIKey   string
	TMDBBaseURL  string
	TMDBLanguage string
	TMDBCacheTTL time.Duration

	ClassifierEndpoint string
	ClassifierToken    string

	AuthSecret string

	SearchCacheTTL    time.Duration
	TrendingCacheTTL  time.Duration
	RecommendCacheTTL time.Duration

	SearchDebounce time.Duration

	MaxSourceConcurrency int
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "text")),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "sofilmy"),

		RedisURL: getEnv("REDIS_URL", ""),

		TMDBAPIKey:   strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
		TMDBBaseURL:  getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		TMDBLanguage: getEnv("TMDB_LANGUAGE", "en-US"),
		TMDBCacheTTL: time.Duration(getEnvInt("TMDB_CACHE_TTL_HOURS", 24)) * time.Hour,

		ClassifierEndpoint: strings.TrimSpace(os.Getenv("CLASSIFIER_ENDPOINT")),
		ClassifierToken:    strings.TrimSpace(os.Getenv("CLASSIFIER_TOKEN")),

		AuthSecret: strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET")),

		SearchCacheTTL:    time.Duration(getEnvInt("SEARCH_CACHE_TTL_MINUTES", 5)) * time.Minute,
		TrendingCacheTTL:  time.Duration(getEnvInt("TRENDING_CACHE_TTL_MINUTES", 30)) * time.Minute,
		RecommendCacheTTL: time.Duration(getEnvInt("RECOMMEND_CACHE_TTL_MINUTES", 10)) * time.Minute,

		SearchDebounce: time.Duration(getEnvInt("SEARCH_DEBOUNCE_MS", 300)) * time.Millisecond,

		MaxSourceConcurrency: getEnvInt("MAX_SOURCE_CONCURRENCY", 8),
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
