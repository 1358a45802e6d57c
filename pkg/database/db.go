package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	KeyPreview string     `json:"key_preview"`
	Name       string     `gorm:"not null" json:"name"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	KeyID        uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date         string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount int    `gorm:"default:0" json:"request_count"`
	TotalStaff   int    `gorm:"default:0" json:"total_staff"`
	TotalCells   int    `gorm:"default:0" json:"total_cells"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ShiftCode holds the default times of a schedule label.
// Times are HH:MM wall-clock in the configured TIMEZONE; an end at or before
// the start rolls to the next day.
type ShiftCode struct {
	Code         string    `gorm:"primaryKey;size:16" json:"code"`
	StartTime    string    `gorm:"size:5" json:"start_time"`
	EndTime      string    `gorm:"size:5" json:"end_time"`
	BreakMinutes int       `gorm:"default:0" json:"break_minutes"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ShiftRecord is one persisted roster cell
type ShiftRecord struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Department   string     `gorm:"index;size:64" json:"department"`
	StaffID      string     `gorm:"uniqueIndex:idx_staff_date;not null" json:"staff_id"`
	Date         string     `gorm:"uniqueIndex:idx_staff_date;not null" json:"date"`
	Code         string     `gorm:"size:16;not null" json:"code"`
	StartsAt     *time.Time `json:"starts_at,omitempty"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`
	BreakMinutes int        `json:"break_minutes"`
	BatchID      uuid.UUID  `gorm:"type:uuid;index" json:"batch_id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// BeforeCreate sets the UUID if not already set
func (r *ShiftRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// DefaultShiftCodes are seeded into an empty shift_codes table
var DefaultShiftCodes = []ShiftCode{
	{Code: "DAY", StartTime: "08:00", EndTime: "20:00", BreakMinutes: 60},
	{Code: "NIGHT", StartTime: "20:00", EndTime: "08:00", BreakMinutes: 60},
	{Code: "OFF"},
}

// InitDB opens postgres when databaseURL is set and a sqlite file at dataPath
// otherwise, then migrates the schema and seeds the shift codes
func InitDB(databaseURL, dataPath string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	if databaseURL != "" {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  databaseURL,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
			Logger:      logger.Default.LogMode(logger.Error),
		})
	} else {
		if dataPath == "" {
			dataPath = "roster.db"
		}
		db, err = gorm.Open(sqlite.Open(dataPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Error),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the schema and seeds the default shift codes
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&APIKey{}, &APIUsage{}, &MasterUser{}, &ShiftCode{}, &ShiftRecord{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return SeedShiftCodes(db)
}

// SeedShiftCodes inserts the default codes when none exist
func SeedShiftCodes(db *gorm.DB) error {
	var count int64
	if err := db.Model(&ShiftCode{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count shift codes: %w", err)
	}
	if count > 0 {
		return nil
	}

	codes := make([]ShiftCode, len(DefaultShiftCodes))
	copy(codes, DefaultShiftCodes)
	if err := db.Create(&codes).Error; err != nil {
		return fmt.Errorf("seed shift codes: %w", err)
	}
	return nil
}

// IsNotFound reports whether err is gorm's record-not-found
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
