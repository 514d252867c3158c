package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	devicedomain "jobtrack-backend/internal/device/domain"
)

// DeviceRepository defines the interface for device token operations
type DeviceRepository interface {
	SaveToken(ctx context.Context, token, deviceInfo, subject string) error
	ListTokens(ctx context.Context) ([]string, error)
	DeleteToken(ctx context.Context, token string) (bool, error)
	DeleteTokens(ctx context.Context, tokens []string) error
}

// deviceRepository implements DeviceRepository interface
type deviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository creates a new instance of deviceRepository
func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{
		db: db,
	}
}

// SaveToken saves or updates a device token (atomic upsert)
func (r *deviceRepository) SaveToken(ctx context.Context, token, deviceInfo, subject string) error {
	now := time.Now().UTC()
	device := &devicedomain.Device{
		ID:         uuid.New().String(),
		Token:      token,
		DeviceInfo: deviceInfo,
		Subject:    subject,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// INSERT ... ON CONFLICT (token) DO UPDATE
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"device_info", "subject", "updated_at"}),
	}).Create(device).Error
}

// ListTokens returns every registered token
func (r *deviceRepository) ListTokens(ctx context.Context) ([]string, error) {
	var tokens []string
	err := r.db.WithContext(ctx).Model(&devicedomain.Device{}).Order("created_at").Pluck("token", &tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// DeleteToken removes a specific token and reports whether it existed
func (r *deviceRepository) DeleteToken(ctx context.Context, token string) (bool, error) {
	result := r.db.WithContext(ctx).Where("token = ?", token).Delete(&devicedomain.Device{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteTokens removes tokens rejected by FCM
func (r *deviceRepository) DeleteTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("token IN ?", tokens).Delete(&devicedomain.Device{}).Error
}
