package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the server settings read from the environment
type Config struct {
	Port     string `env:"PORT"     envDefault:"8000"`
	GinMode  string `env:"GIN_MODE"`
	AppEnv   string `env:"APP_ENV"  envDefault:"development"`
	Database string `env:"DATABASE_URL"`
	DataPath string `env:"DATA_PATH" envDefault:"api_keys.db"`

	JWTSecret     string `env:"JWT_SECRET"`
	MasterSecret  string `env:"API_MASTER_SECRET"`
	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"admin123"`

	DefaultRateLimit int   `env:"DEFAULT_RATE_LIMIT" envDefault:"10000"`
	MaxRosterRows    int   `env:"MAX_ROSTER_ROWS"    envDefault:"5000"`
	MaxUploadBytes   int64 `env:"MAX_UPLOAD_BYTES"   envDefault:"5242880"`

	Columns Columns
}

// Columns names the roster columns the allocator reads and writes
type Columns struct {
	JoinDate    string   `env:"JOIN_DATE_COLUMN"    envDefault:"join_date"`
	PriorTeam   string   `env:"PRIOR_TEAM_COLUMN"   envDefault:"current_team"`
	Team        string   `env:"TEAM_COLUMN"         envDefault:"new_team"`
	Name        string   `env:"NAME_COLUMN"         envDefault:"name"`
	Numeric     []string `env:"NUMERIC_COLUMNS"     envDefault:"age,participation" envSeparator:","`
	Categorical []string `env:"CATEGORICAL_COLUMNS" envDefault:"gender,region"     envSeparator:","`
}

// LoadDotEnv loads the first .env file found in the working directory or
// its parents
func LoadDotEnv() {
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// Load reads .env and then parses the environment
func Load() (Config, error) {
	LoadDotEnv()
	return Parse()
}

// Parse reads the configuration from the environment only
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
