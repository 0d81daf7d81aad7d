package config

import (
	"fmt"
	"os"
)

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

// RedisAddr is the address of the draft store.
func RedisAddr() string {
	return getenv("REDIS_ADDR", "localhost:6379")
}

// BackendURL is the base URL of the POS backend of record.
func BackendURL() string {
	return getenv("BACKEND_URL", "http://localhost:8000")
}

// JWTSecret signs the cashier tokens accepted by the API.
func JWTSecret() string {
	return getenv("JWT_SECRET", "secret")
}

// MySQLDSN builds the DSN for the correction-log database. parseTime is
// required so DATE/DATETIME columns scan into time.Time.
func MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		getenv("DB_USER", "root"),
		os.Getenv("DB_PASS"),
		getenv("DB_HOST", "127.0.0.1"),
		getenv("DB_PORT", "3306"),
		getenv("DB_NAME", "draft-db"),
	)
}
