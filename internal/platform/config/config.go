package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	APIPort     string
	LogLevel    string
	CORSOrigins []string

	JWTKey          []byte
	JWTExp          time.Duration
	SecondaryJWTKey []byte

	DocumentStore string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSslMode     string
	DBConnStr     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	EvaluationQueueName  string
	EvaluationLockTTL    time.Duration
	EvaluationJobTTL     time.Duration
	EvaluationMaxRequeue int

	Judge0BaseURL        string
	Judge0APIKey         string
	Judge0APIHost        string
	Judge0AuthToken      string
	Judge0LanguageID     int
	Judge0PollInterval   time.Duration
	Judge0MaxPolls       int
	Judge0RequestTimeout time.Duration

	ProblemCacheSize int
	ProblemCacheTTL  time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Load reads a .env file when present and builds the configuration from the
// environment, falling back to development defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIPort:     getEnv("API_PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"https://*", "http://*"}),

		JWTKey:          []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:          time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		SecondaryJWTKey: []byte(getEnv("SECONDARY_JWT_SECRET", "defaultsecondarysecret")),

		DocumentStore: getEnv("DOCUMENT_STORE", StorePostgres),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "user"),
		DBPassword:    getEnv("DB_PASSWORD", "password"),
		DBName:        getEnv("DB_NAME", "daily_judge"),
		DBSslMode:     getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		EvaluationQueueName:  getEnv("EVALUATION_QUEUE_NAME", "evaluation_jobs_queue"),
		EvaluationLockTTL:    time.Duration(getEnvAsInt("EVALUATION_LOCK_TTL_SECONDS", 300)) * time.Second,
		EvaluationJobTTL:     time.Duration(getEnvAsInt("EVALUATION_JOB_TTL_HOURS", 24)) * time.Hour,
		EvaluationMaxRequeue: getEnvAsInt("EVALUATION_MAX_REQUEUE", 20),

		Judge0BaseURL:        getEnv("JUDGE0_BASE_URL", "https://judge0-ce.p.rapidapi.com"),
		Judge0APIKey:         getEnv("JUDGE0_API_KEY", ""),
		Judge0APIHost:        getEnv("JUDGE0_API_HOST", "judge0-ce.p.rapidapi.com"),
		Judge0AuthToken:      getEnv("JUDGE0_AUTH_TOKEN", ""),
		Judge0LanguageID:     getEnvAsInt("JUDGE0_LANGUAGE_ID", 92),
		Judge0PollInterval:   time.Duration(getEnvAsInt("JUDGE0_POLL_INTERVAL_MS", 1500)) * time.Millisecond,
		Judge0MaxPolls:       getEnvAsInt("JUDGE0_MAX_POLLS", 40),
		Judge0RequestTimeout: time.Duration(getEnvAsInt("JUDGE0_REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,

		ProblemCacheSize: getEnvAsInt("PROBLEM_CACHE_SIZE", 256),
		ProblemCacheTTL:  time.Duration(getEnvAsInt("PROBLEM_CACHE_TTL_SECONDS", 300)) * time.Second,

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		MailFrom:     getEnv("MAIL_FROM", "no-reply@daily-judge.local"),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Administrador"),
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	return cfg
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

func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
