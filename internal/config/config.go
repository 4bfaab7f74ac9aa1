package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	LogLevel string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret     string
	RefreshSecret string

	KafkaAddress string
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		Port:     envDefault("PORT", "8080"),
		LogLevel: envDefault("LOG_LEVEL", "info"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     envDefault("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		RefreshSecret: os.Getenv("REFRESH_SECRET"),

		KafkaAddress: os.Getenv("KAFKA_ADDRESS"),
	}

	return cfg, cfg.validate()
}

// validate fails fast on anything the process cannot run without. Kafka is
// optional: without a broker address events are simply not published.
func (c *Config) validate() error {
	required := map[string]string{
		"DB_HOST":        c.DBHost,
		"DB_USER":        c.DBUser,
		"DB_NAME":        c.DBName,
		"JWT_SECRET":     c.JWTSecret,
		"REFRESH_SECRET": c.RefreshSecret,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("missing required env %s", name)
		}
	}
	return nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
