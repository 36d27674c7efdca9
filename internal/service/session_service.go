package service

import (
	"errors"
	"time"

	"bloggers-platform/internal/repository"
)

var (
	ErrDeviceNotFound = errors.New("device session not found")
	ErrDeviceNotOwned = errors.New("device session belongs to another user")
)

// DeviceView is the public projection of a session; field names are part of
// the API contract.
type DeviceView struct {
	IP             string    `json:"ip"`
	Title          string    `json:"title"`
	LastActiveDate time.Time `json:"lastActiveDate"`
	DeviceID       string    `json:"deviceId"`
}

type SessionService struct {
	sessions repository.SessionRepository
}

func NewSessionService(sessions repository.SessionRepository) *SessionService {
	return &SessionService{sessions: sessions}
}

// ListDevices returns every logged-in device of the user, current one
// included.
func (s *SessionService) ListDevices(userID uint) ([]DeviceView, error) {
	sessions, err := s.sessions.ListByUserID(userID)
	if err != nil {
		return nil, err
	}
	views := make([]DeviceView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, DeviceView{
			IP:             session.IP,
			Title:          session.DeviceName,
			LastActiveDate: session.IssuedAt,
			DeviceID:       session.DeviceID,
		})
	}
	return views, nil
}

// RevokeDevice deletes one device session after proving ownership. The
// not-found/not-owned split is deliberate: 404 for ids that don't exist,
// 403 for ids that belong to someone else.
func (s *SessionService) RevokeDevice(userID uint, deviceID string) error {
	session, err := s.sessions.FindByDeviceID(deviceID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrDeviceNotFound
		}
		return err
	}
	if session.UserID != userID {
		return ErrDeviceNotOwned
	}
	_, err = s.sessions.DeleteByDeviceID(deviceID)
	return err
}

// RevokeOtherDevices logs out every device of the user except the calling
// one.
func (s *SessionService) RevokeOtherDevices(userID uint, keepDeviceID string) (int64, error) {
	return s.sessions.DeleteOthersByUserID(userID, keepDeviceID)
}

// Logout drops the calling device's session. Losing a race against another
// delete is fine; the session is gone either way.
func (s *SessionService) Logout(deviceID string) error {
	_, err := s.sessions.DeleteByDeviceID(deviceID)
	return err
}
