package handler

import (
	"errors"
	"time"

	"bloggers-platform/internal/domain"
	"bloggers-platform/internal/repository"
	"bloggers-platform/internal/security"
	"bloggers-platform/internal/service"

	"github.com/golang-jwt/jwt/v5"
)

type fakeCredentials struct {
	user *domain.User
}

func (f *fakeCredentials) CheckCredentials(loginOrEmail, password string) (*domain.User, error) {
	if f.user == nil || password != "correct-horse" {
		return nil, service.ErrInvalidCredentials
	}
	if loginOrEmail != f.user.Login && loginOrEmail != f.user.Email {
		return nil, service.ErrInvalidCredentials
	}
	return f.user, nil
}

type fakeRegistrar struct {
	takenLogins map[string]bool
	takenEmails map[string]bool
	codes       map[string]bool
	registered  []string
}

func (f *fakeRegistrar) Register(login, password, email string) error {
	if f.takenLogins[login] {
		return service.ErrLoginTaken
	}
	if f.takenEmails[email] {
		return service.ErrEmailTaken
	}
	f.registered = append(f.registered, login)
	return nil
}

func (f *fakeRegistrar) ConfirmEmail(code string) error {
	if !f.codes[code] {
		return service.ErrInvalidConfirmationCode
	}
	return nil
}

func (f *fakeRegistrar) ResendConfirmation(email string) error {
	if f.takenEmails[email] {
		return service.ErrEmailAlreadyConfirmed
	}
	return service.ErrInvalidConfirmationCode
}

type fakeTokens struct {
	pair       *service.TokenPair
	claims     map[string]*security.Claims
	rotateErr  error
	rotatedRaw string
}

func (f *fakeTokens) Issue(user *domain.User, deviceName, ip string) (*service.TokenPair, error) {
	if f.pair == nil {
		return nil, errors.New("no pair configured")
	}
	return f.pair, nil
}

func (f *fakeTokens) Rotate(rawRefresh, deviceName, ip string) (*service.TokenPair, uint, error) {
	if f.rotateErr != nil {
		return nil, 0, f.rotateErr
	}
	f.rotatedRaw = rawRefresh
	return f.pair, 1, nil
}

func (f *fakeTokens) Verify(rawRefresh string) (*security.Claims, error) {
	c, ok := f.claims[rawRefresh]
	if !ok {
		return nil, service.ErrInvalidRefreshToken
	}
	return c, nil
}

func testClaims(userID, deviceID string) *security.Claims {
	return &security.Claims{
		TokenType: "refresh",
		DeviceID:  deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

type fakeSessions struct {
	devices      []service.DeviceView
	revokeErr    map[string]error
	loggedOut    []string
	revokedKeeps []string
}

func (f *fakeSessions) ListDevices(userID uint) ([]service.DeviceView, error) {
	return f.devices, nil
}

func (f *fakeSessions) RevokeDevice(userID uint, deviceID string) error {
	if err, ok := f.revokeErr[deviceID]; ok {
		return err
	}
	return service.ErrDeviceNotFound
}

func (f *fakeSessions) RevokeOtherDevices(userID uint, keepDeviceID string) (int64, error) {
	f.revokedKeeps = append(f.revokedKeeps, keepDeviceID)
	return 2, nil
}

func (f *fakeSessions) Logout(deviceID string) error {
	f.loggedOut = append(f.loggedOut, deviceID)
	return nil
}

type fakeUsers struct {
	byID    map[uint]*domain.User
	deleted map[uint]bool
	created *domain.User
}

func (f *fakeUsers) List(query repository.UserListQuery) (repository.PageResult[domain.User], error) {
	var items []domain.User
	for _, u := range f.byID {
		items = append(items, *u)
	}
	return repository.PageResult[domain.User]{
		Items: items, Total: int64(len(items)), Page: 1, PageSize: 10, TotalPages: 1,
	}, nil
}

func (f *fakeUsers) CreateConfirmed(login, password, email string) (*domain.User, error) {
	if f.created != nil {
		return nil, service.ErrLoginTaken
	}
	f.created = &domain.User{ID: 99, Login: login, Email: email, EmailConfirmed: true, CreatedAt: time.Now()}
	return f.created, nil
}

func (f *fakeUsers) Delete(id uint) (bool, error) {
	if f.byID[id] == nil {
		return false, nil
	}
	delete(f.byID, id)
	f.deleted[id] = true
	return true, nil
}

func (f *fakeUsers) GetByID(id uint) (*domain.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}
