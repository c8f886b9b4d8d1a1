package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	SQLitePath  string
	// JWT Configuration
	JWTSecret string
	// Kafka Configuration
	KafkaBrokers     []string
	KafkaTopicStock  string
	KafkaTopicOrders string
	KafkaClientID    string
	KafkaAcks        string
	KafkaRetries     int
	// Ledger tuning
	LowStockThreshold int
	WriteTimeoutMs    int
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Parse Kafka brokers (comma-separated)
	kafkaBrokersStr := getEnv("KAFKA_BROKERS", "localhost:9093")
	kafkaBrokers := strings.Split(kafkaBrokersStr, ",")
	for i, broker := range kafkaBrokers {
		kafkaBrokers[i] = strings.TrimSpace(broker)
	}

	return &Config{
		Port:        getEnv("PORT", "8082"),
		Environment: getEnv("ENVIRONMENT", "development"),
		SQLitePath:  getEnv("SQLITE_PATH", "./ledger.db"),
		// JWT Configuration
		JWTSecret: getEnv("JWT_SECRET", "your-secret-key-change-in-production-min-32-chars"),
		// Kafka Configuration
		KafkaBrokers:     kafkaBrokers,
		KafkaTopicStock:  getEnv("KAFKA_TOPIC_STOCK", "inventory.stock"),
		KafkaTopicOrders: getEnv("KAFKA_TOPIC_ORDERS", "inventory.orders"),
		KafkaClientID:    getEnv("KAFKA_CLIENT_ID", "ledger-service"),
		KafkaAcks:        getEnv("KAFKA_ACKS", "all"),
		KafkaRetries:     getEnvAsInt("KAFKA_RETRIES", 3),
		// Ledger tuning
		LowStockThreshold: getEnvAsInt("LOW_STOCK_THRESHOLD", 10),
		WriteTimeoutMs:    getEnvAsInt("WRITE_TIMEOUT_MS", 5000),
	}
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
