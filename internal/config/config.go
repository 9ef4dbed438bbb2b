package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTP            HTTPConfig
	DatabaseURL     string
	Schema          SchemaConfig
	Auth            AuthConfig
	FrontendDistDir string
	UserStateFile   string
	ClinicStateFile string
	AuditLogFile    string
}

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// SchemaConfig names a table generation. Bumping Version selects a fresh,
// empty set of tables; old generations stay in the database untouched.
type SchemaConfig struct {
	AppKey  string
	Version int
}

type AuthConfig struct {
	BootstrapUsername string
	BootstrapPassword string
	BootstrapRole     string
}

func Load() (Config, error) {
	// A missing .env file is fine; the process environment wins either way.
	_ = godotenv.Load()

	cfg := Config{
		HTTP: HTTPConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ReadTimeout:     time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SEC", 10)) * time.Second,
			WriteTimeout:    time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SEC", 15)) * time.Second,
			ShutdownTimeout: time.Duration(getEnvInt("HTTP_SHUTDOWN_TIMEOUT_SEC", 20)) * time.Second,
		},
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Schema: SchemaConfig{
			AppKey:  getEnv("SCHEMA_APP_KEY", "healthtrack"),
			Version: getEnvInt("SCHEMA_VERSION", 2),
		},
		Auth: AuthConfig{
			BootstrapUsername: getEnv("AUTH_BOOTSTRAP_USERNAME", "admin"),
			BootstrapPassword: getEnv("AUTH_BOOTSTRAP_PASSWORD", "admin123"),
			BootstrapRole:     getEnv("AUTH_BOOTSTRAP_ROLE", "admin"),
		},
		FrontendDistDir: getEnv("FRONTEND_DIST_DIR", "./web/dist"),
		UserStateFile:   getEnv("USER_STATE_FILE", "./data/users.json"),
		ClinicStateFile: getEnv("CLINIC_STATE_FILE", "./data/clinic.json"),
		AuditLogFile:    getEnv("AUDIT_LOG_FILE", "./data/audit.log"),
	}

	if cfg.HTTP.Addr == "" {
		return Config{}, fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.Schema.AppKey == "" {
		return Config{}, fmt.Errorf("SCHEMA_APP_KEY must not be empty")
	}
	if cfg.Schema.Version <= 0 {
		return Config{}, fmt.Errorf("SCHEMA_VERSION must be > 0")
	}
	if cfg.Auth.BootstrapUsername == "" {
		return Config{}, fmt.Errorf("AUTH_BOOTSTRAP_USERNAME must not be empty")
	}
	if cfg.Auth.BootstrapPassword == "" {
		return Config{}, fmt.Errorf("AUTH_BOOTSTRAP_PASSWORD must not be empty")
	}
	if cfg.Auth.BootstrapRole == "" {
		return Config{}, fmt.Errorf("AUTH_BOOTSTRAP_ROLE must not be empty")
	}
	if cfg.UserStateFile == "" {
		return Config{}, fmt.Errorf("USER_STATE_FILE must not be empty")
	}
	if cfg.ClinicStateFile == "" {
		return Config{}, fmt.Errorf("CLINIC_STATE_FILE must not be empty")
	}
	if cfg.AuditLogFile == "" {
		return Config{}, fmt.Errorf("AUDIT_LOG_FILE must not be empty")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}
