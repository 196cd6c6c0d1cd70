package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// APIKey represents the api_keys table. Revoked keys are soft deleted so
// a revoked key can still be recognised and refused.
type APIKey struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Key        string         `gorm:"unique;not null" json:"-"`
	KeyPreview string         `json:"key_preview"`
	Name       string         `gorm:"not null" json:"name"`
	RateLimit  int            `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time      `json:"created_at"`
	LastUsed   *time.Time     `json:"last_used"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// APIUsage represents the api_usage table. One row per key per day.
type APIUsage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	KeyID        uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date         string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount int    `gorm:"default:0" json:"request_count"`
	TotalMembers int    `gorm:"default:0" json:"total_members"`
	TotalTeams   int    `gorm:"default:0" json:"total_teams"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// InitDB opens Postgres when dsn is set, otherwise SQLite at dataPath, and
// migrates the schema
func InitDB(dsn, dataPath string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	if dsn != "" {
		dialector = postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		})
		cfg.PrepareStmt = false
	} else {
		if dataPath == "" {
			dataPath = "api_keys.db"
		}
		dialector = sqlite.Open(dataPath)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&APIKey{}, &APIUsage{}, &MasterUser{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
