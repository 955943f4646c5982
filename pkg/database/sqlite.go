package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Alwanly/hospital-polling/internal/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewSQLiteDB(path string) (*gorm.DB, error) {
	if path == "" {
		path = ":memory:"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// a single connection keeps :memory: databases shared across queries
	if conn, err := db.DB(); err == nil {
		conn.SetMaxOpenConns(1)
	}

	return db, nil
}

func RunMigrations(db *gorm.DB) error {

	models := []interface{}{
		&models.Resource{},
		&models.Booking{},
		&models.Change{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SeedInitialData creates a default resource inventory for each hospital
// that has none yet.
func SeedInitialData(ctx context.Context, db *gorm.DB, hospitalIDs ...string) error {
	inventory := []struct {
		resourceType string
		total        int
	}{
		{"icu_bed", 10},
		{"general_bed", 40},
		{"ventilator", 6},
		{"operating_room", 4},
	}

	for _, hospitalID := range hospitalIDs {
		var count int64
		if err := db.WithContext(ctx).Model(&models.Resource{}).Where("hospital_id = ?", hospitalID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing resources: %w", err)
		}
		if count > 0 {
			continue
		}

		for _, item := range inventory {
			res := models.Resource{
				ID:           uuid.Must(uuid.NewV7()).String(),
				HospitalID:   hospitalID,
				ResourceType: item.resourceType,
				Total:        item.total,
				Available:    item.total,
			}
			if err := db.WithContext(ctx).Create(&res).Error; err != nil {
				return fmt.Errorf("failed to seed resource %s for %s: %w", item.resourceType, hospitalID, err)
			}
		}
	}

	return nil
}
