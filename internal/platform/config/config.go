package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JudgeQueueName          string
	JudgeInflightKeyPrefix  string
	JudgeInflightTTLSeconds int
	JudgeWorkerPoolSize     int

	JudgeServerHost  string
	JudgeServerPort  string
	JudgeServerToken string
	// Added on top of max_cpu_time when computing the judge request deadline.
	JudgeTransportOverheadMs int

	StatsMaxRetries     int
	StatsRetryBackoffMs int
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:    getEnv("API_PORT", "8080"),
		JWTKey:     []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:     time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "codearena_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		JudgeQueueName:          getEnv("JUDGE_QUEUE_NAME", "judge_jobs_queue"),
		JudgeInflightKeyPrefix:  getEnv("JUDGE_INFLIGHT_KEY_PREFIX", "judge_inflight:"),
		JudgeInflightTTLSeconds: getEnvAsInt("JUDGE_INFLIGHT_TTL_SECONDS", 600),
		JudgeWorkerPoolSize:     getEnvAsInt("JUDGE_WORKER_POOL_SIZE", 4),

		JudgeServerHost:          getEnv("JUDGE_SERVER_HOST", "localhost"),
		JudgeServerPort:          getEnv("JUDGE_SERVER_PORT", "8090"),
		JudgeServerToken:         getEnv("JUDGE_SERVER_TOKEN", "CHANGE_THIS"),
		JudgeTransportOverheadMs: getEnvAsInt("JUDGE_TRANSPORT_OVERHEAD_MS", 10000),

		StatsMaxRetries:     getEnvAsInt("STATS_MAX_RETRIES", 5),
		StatsRetryBackoffMs: getEnvAsInt("STATS_RETRY_BACKOFF_MS", 50),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
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
