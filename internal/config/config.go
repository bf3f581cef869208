package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	Port    string
	BaseURL string

	MongoURI string
	MongoDB  string

	RedisAddr string
	CacheTTL  time.Duration

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	AIMaxTokens   int
	AITimeout     time.Duration

	CloudinaryCloudName    string
	CloudinaryUploadPreset string
	UploadMaxBytes         int64

	JWTSecret     string
	AdminPassword string
	CORSOrigins   []string

	LogMode string
	LogFile string

	// EnvSource indica de dónde salieron los valores (".env" o "system")
	EnvSource string
}

func LoadConfig() (*Config, error) {
	// .env solo existe en desarrollo local; en producción las variables vienen del entorno
	source := "system"
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
		source = ".env"
	}

	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		BaseURL: strings.TrimRight(getEnv("BASE_URL", "http://localhost:3000"), "/"),

		MongoURI: getEnv("MONGO_URI", ""),
		MongoDB:  getEnv("MONGO_DB", "pharmaCatalog"),

		RedisAddr: getEnv("REDIS_ADDR", ""),
		CacheTTL:  getDuration("CACHE_TTL", 5*time.Minute),

		OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: strings.TrimRight(getEnv("OPENAI_BASE_URL", "https://api.openai.com"), "/"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AIMaxTokens:   getInt("AI_MAX_TOKENS", 2048),
		AITimeout:     getDuration("AI_TIMEOUT", 60*time.Second),

		CloudinaryCloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryUploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", ""),
		UploadMaxBytes:         int64(getInt("UPLOAD_MAX_MB", 9)) << 20,

		JWTSecret:     getEnv("JWT_SECRET", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "*")),

		LogMode: getEnv("LOG_MODE", "development"),
		LogFile: getEnv("LOG_FILE", ""),

		EnvSource: source,
	}

	if cfg.AIMaxTokens <= 0 {
		return nil, fmt.Errorf("AI_MAX_TOKENS must be positive, got %d", cfg.AIMaxTokens)
	}
	if cfg.UploadMaxBytes <= 0 {
		return nil, fmt.Errorf("UPLOAD_MAX_MB must be positive")
	}
	return cfg, nil
}

// UsesMemoryStore indica si no hay base de datos configurada
func (c *Config) UsesMemoryStore() bool {
	return c.MongoURI == ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return fallback
	}
	return i
}

// getDuration acepta duraciones de Go ("90s") o un número de segundos
func getDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	if secs, err := cast.ToIntE(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := cast.ToDurationE(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
