package repository

import (
	"context"
	"errors"
	"time"

	"bloggers-platform/internal/domain"
	"bloggers-platform/internal/observability"

	"gorm.io/gorm"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRotation carries the fields overwritten on every refresh. The device
// id itself never changes after login.
type SessionRotation struct {
	DeviceName         string
	IP                 string
	RefreshFingerprint string
	IssuedAt           time.Time
	ExpiresAt          time.Time
}

type SessionRepository interface {
	Create(s *domain.Session) error
	FindByDeviceID(deviceID string) (*domain.Session, error)
	ListByUserID(userID uint) ([]domain.Session, error)
	Rotate(deviceID string, update SessionRotation) (bool, error)
	DeleteByDeviceID(deviceID string) (bool, error)
	DeleteOthersByUserID(userID uint, keepDeviceID string) (int64, error)
	DeleteExpired() (int64, error)
}

type GormSessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &GormSessionRepository{db: db} }

func (r *GormSessionRepository) Create(s *domain.Session) error {
	err := r.db.Create(s).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "create", "success")
	return nil
}

func (r *GormSessionRepository) FindByDeviceID(deviceID string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.Where("device_id = ?", deviceID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "session", "find_by_device_id", "not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "session", "find_by_device_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "find_by_device_id", "success")
	return &s, nil
}

func (r *GormSessionRepository) ListByUserID(userID uint) ([]domain.Session, error) {
	var sessions []domain.Session
	err := r.db.Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&sessions).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "list_by_user_id", "error")
		return sessions, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "list_by_user_id", "success")
	return sessions, nil
}

// Rotate overwrites the mutable half of the session row in a single update.
// A false return means no row carries that device id, which callers treat as
// unauthorized rather than an error.
func (r *GormSessionRepository) Rotate(deviceID string, update SessionRotation) (bool, error) {
	res := r.db.Model(&domain.Session{}).
		Where("device_id = ?", deviceID).
		Updates(map[string]any{
			"device_name":         update.DeviceName,
			"ip":                  update.IP,
			"refresh_fingerprint": update.RefreshFingerprint,
			"issued_at":           update.IssuedAt,
			"expires_at":          update.ExpiresAt,
		})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "rotate", "error")
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "session", "rotate", "not_found")
		return false, nil
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "rotate", "success")
	return true, nil
}

func (r *GormSessionRepository) DeleteByDeviceID(deviceID string) (bool, error) {
	res := r.db.Where("device_id = ?", deviceID).Delete(&domain.Session{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "delete_by_device_id", "error")
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "session", "delete_by_device_id", "not_found")
		return false, nil
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "delete_by_device_id", "success")
	return true, nil
}

func (r *GormSessionRepository) DeleteOthersByUserID(userID uint, keepDeviceID string) (int64, error) {
	res := r.db.Where("user_id = ? AND device_id <> ?", userID, keepDeviceID).Delete(&domain.Session{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "delete_others_by_user_id", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "delete_others_by_user_id", "success")
	return res.RowsAffected, nil
}

func (r *GormSessionRepository) DeleteExpired() (int64, error) {
	res := r.db.Where("expires_at <= ?", time.Now()).Delete(&domain.Session{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "delete_expired", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "delete_expired", "success")
	return res.RowsAffected, nil
}
