package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	ServiceName string

	ServerPort int
	CORSOrigin string
	LogLevel   string

	DBDriver    string
	DatabaseURL string

	JWTSecret []byte

	KafkaBrokers   []string
	KafkaUserTopic string

	ESURL       string
	ESUser      string
	ESPassword  string
	ESDishIndex string

	AdminUsername string
	AdminPassword string
}

func Load() Config {
	cfg := Config{
		ServiceName: EnvDefault("SERVICE_NAME", "campus_food"),

		ServerPort: EnvIntDefault("PORT", 5000),
		CORSOrigin: EnvDefault("CORS_ORIGIN", "*"),
		LogLevel:   os.Getenv("LOG_LEVEL"),

		DBDriver:    strings.ToLower(EnvDefault("DB_DRIVER", "mysql")),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret: []byte(os.Getenv("JWT_SECRET")),

		KafkaBrokers:   CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaUserTopic: EnvDefault("KAFKA_USER_TOPIC", "user_events"),

		ESURL:       os.Getenv("ES_URL"),
		ESUser:      os.Getenv("ES_USER"),
		ESPassword:  os.Getenv("ES_PASSWORD"),
		ESDishIndex: EnvDefault("ES_DISH_INDEX", "dishes"),

		AdminUsername: EnvDefault("ADMIN_USERNAME", "admin"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = BuildDSN(cfg.DBDriver)
	}
	return cfg
}

// BuildDSN assembles a DSN from the DB_* variables for drivers that need one.
func BuildDSN(driver string) string {
	host := EnvDefault("DB_HOST", "localhost")
	user := EnvDefault("DB_USER", "root")
	password := os.Getenv("DB_PASSWORD")
	name := EnvDefault("DB_NAME", "campus_food")

	switch driver {
	case "postgres":
		port := EnvIntDefault("DB_PORT", 5432)
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", host, port, user, password, name)
	case "sqlite":
		return EnvDefault("DB_NAME", "campus_food.db")
	default:
		port := EnvIntDefault("DB_PORT", 3306)
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC", user, password, host, port, name)
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Validate reports the first required setting that is missing or unusable.
func (c Config) Validate() error {
	if len(c.JWTSecret) == 0 {
		return fmt.Errorf("missing required env JWT_SECRET")
	}
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("missing required env DATABASE_URL")
	}
	return nil
}
