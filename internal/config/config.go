// config.go
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI    string
	MongoDBName string
	AuthURL     string
	RabbitURL   string
	Port        string

	// Parámetros de política del ciclo de vida. Nunca se hardcodean
	// en el código de negocio.
	PendingWindow time.Duration // ventana de pago de una orden nueva
	SweepInterval time.Duration // frecuencia del barrido de expiración
	RetentionDays int           // espera mínima antes de borrar una orden cancelada
	UploadBaseURL string        // prefijo público de los comprobantes subidos
}

func Load() *Config {
	// .env es opcional; en producción las variables vienen del entorno
	_ = godotenv.Load()

	return &Config{
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDBName:   getEnv("MONGO_DB_NAME", "order_lifecycle_db"),
		AuthURL:       getEnv("AUTH_SERVICE_URL", "http://host.docker.internal:3000"),
		RabbitURL:     getEnv("RABBIT_URL", ""),
		Port:          getEnv("PORT", "8080"),
		PendingWindow: time.Duration(getEnvInt("PENDING_WINDOW_HOURS", 48)) * time.Hour,
		SweepInterval: time.Duration(getEnvInt("SWEEP_INTERVAL_SECONDS", 300)) * time.Second,
		RetentionDays: getEnvInt("RETENTION_DAYS", 30),
		UploadBaseURL: getEnv("UPLOAD_BASE_URL", "/uploads/payment-proofs"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
