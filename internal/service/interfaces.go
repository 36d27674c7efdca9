package service

import (
	"bloggers-platform/internal/domain"
	"bloggers-platform/internal/repository"
	"bloggers-platform/internal/security"
)

// Handler-facing seams. Handlers depend on these so tests can drop in fakes
// without a database.

type CredentialVerifier interface {
	CheckCredentials(loginOrEmail, password string) (*domain.User, error)
}

type Registrar interface {
	Register(login, password, email string) error
	ConfirmEmail(code string) error
	ResendConfirmation(email string) error
}

type TokenIssuer interface {
	Issue(user *domain.User, deviceName, ip string) (*TokenPair, error)
	Rotate(rawRefresh, deviceName, ip string) (*TokenPair, uint, error)
	Verify(rawRefresh string) (*security.Claims, error)
}

type DeviceSessionManager interface {
	ListDevices(userID uint) ([]DeviceView, error)
	RevokeDevice(userID uint, deviceID string) error
	RevokeOtherDevices(userID uint, keepDeviceID string) (int64, error)
	Logout(deviceID string) error
}

type UserAdmin interface {
	List(query repository.UserListQuery) (repository.PageResult[domain.User], error)
	CreateConfirmed(login, password, email string) (*domain.User, error)
	Delete(id uint) (bool, error)
	GetByID(id uint) (*domain.User, error)
}
