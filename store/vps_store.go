package store

import (
	"errors"
	"fmt"
	"time"

	"vps-tracker/models"
	"vps-tracker/system"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// ErrNotFound is returned by GetByID when no record exists for the id.
var ErrNotFound = errors.New("vps record not found")

// VPSStore is the durable record store for tracked servers.
type VPSStore struct {
	db *gorm.DB
}

// Open connects to the sqlite database at path and runs the idempotent
// startup migration. The web app and the notifier both go through here.
func Open(path string) (*VPSStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode lets the notifier read while the web app writes
	if err := db.Exec("PRAGMA journal_mode=WAL;").Error; err != nil {
		system.Warn("Failed to enable WAL mode: %v", err)
	}

	if err := db.AutoMigrate(&models.VPS{}); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return &VPSStore{db: db}, nil
}

// NewVPSStore wraps an already opened gorm handle.
func NewVPSStore(db *gorm.DB) *VPSStore {
	return &VPSStore{db: db}
}

// Close releases the underlying connection.
func (s *VPSStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Create persists a new record and fills in its assigned id.
func (s *VPSStore) Create(v *models.VPS) error {
	return s.db.Create(v).Error
}

// GetByID fetches a single record, ErrNotFound when absent.
func (s *VPSStore) GetByID(id uint) (*models.VPS, error) {
	var v models.VPS
	if err := s.db.First(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// List returns all records ordered by renewal date ascending, records
// without a renewal date last.
func (s *VPSStore) List() ([]models.VPS, error) {
	var list []models.VPS
	err := s.db.Order("renewal_date IS NULL, renewal_date ASC").Find(&list).Error
	return list, err
}

// ListWithIP returns the records eligible for location enrichment.
func (s *VPSStore) ListWithIP() ([]models.VPS, error) {
	var list []models.VPS
	err := s.db.Where("ip IS NOT NULL").Find(&list).Error
	return list, err
}

// ListDueBy returns records whose renewal date is on or before limit,
// overdue ones included, ordered soonest first.
func (s *VPSStore) ListDueBy(limit time.Time) ([]models.VPS, error) {
	var list []models.VPS
	err := s.db.
		Where("renewal_date IS NOT NULL AND renewal_date <= ?", limit).
		Order("renewal_date ASC").
		Find(&list).Error
	return list, err
}

// Update saves all fields of an existing record.
func (s *VPSStore) Update(v *models.VPS) error {
	return s.db.Save(v).Error
}

// UpdateLocation writes only the location column. Used by the enrichment
// pass so concurrent edits of other fields are never clobbered.
func (s *VPSStore) UpdateLocation(id uint, location *string) error {
	return s.db.Model(&models.VPS{}).Where("id = ?", id).Update("location", location).Error
}

// Delete removes a record by id; a missing id is a no-op.
func (s *VPSStore) Delete(id uint) error {
	return s.db.Delete(&models.VPS{}, id).Error
}
