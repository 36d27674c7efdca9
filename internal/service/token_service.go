package service

import (
	"errors"
	"time"

	"bloggers-platform/internal/domain"
	"bloggers-platform/internal/repository"
	"bloggers-platform/internal/security"

	"github.com/google/uuid"
)

// ErrInvalidRefreshToken is the single refusal for the stateful token path:
// bad signature, expired token, unknown device and fingerprint mismatch all
// end here. Callers answer 401 without elaborating.
var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// TokenPair is what a successful login or refresh hands back. The refresh
// token travels only inside the HTTP-only cookie; the access token goes into
// the response body.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	DeviceID         string
	RefreshExpiresAt time.Time
}

type TokenService struct {
	jwtMgr     *security.JWTManager
	sessions   repository.SessionRepository
	pepper     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(jwtMgr *security.JWTManager, sessions repository.SessionRepository, pepper string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		jwtMgr:     jwtMgr,
		sessions:   sessions,
		pepper:     pepper,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Issue mints an access+refresh pair for a fresh device and records the
// session row. The device id is generated here and nowhere else.
func (s *TokenService) Issue(user *domain.User, deviceName, ip string) (*TokenPair, error) {
	deviceID := uuid.NewString()
	pair, claims, err := s.mintPair(user.ID, deviceID)
	if err != nil {
		return nil, err
	}

	err = s.sessions.Create(&domain.Session{
		UserID:             user.ID,
		DeviceID:           deviceID,
		DeviceName:         deviceName,
		IP:                 ip,
		RefreshFingerprint: security.RefreshTokenFingerprint(pair.RefreshToken, s.pepper),
		IssuedAt:           claims.IssuedAt.Time,
		ExpiresAt:          claims.ExpiresAt.Time,
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Rotate exchanges a presented refresh token for a new pair on the same
// device. The presented token must be the exact token the session row points
// at; once the row is updated the predecessor stops matching, which is the
// whole replay defence.
func (s *TokenService) Rotate(rawRefresh, deviceName, ip string) (*TokenPair, uint, error) {
	claims, err := s.jwtMgr.ParseRefreshToken(rawRefresh)
	if err != nil {
		return nil, 0, ErrInvalidRefreshToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, 0, ErrInvalidRefreshToken
	}

	session, err := s.sessions.FindByDeviceID(claims.DeviceID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, 0, ErrInvalidRefreshToken
		}
		return nil, 0, err
	}
	if session.UserID != userID {
		return nil, 0, ErrInvalidRefreshToken
	}
	if session.RefreshFingerprint != security.RefreshTokenFingerprint(rawRefresh, s.pepper) {
		return nil, 0, ErrInvalidRefreshToken
	}
	if session.ExpiresAt.Before(time.Now()) {
		return nil, 0, ErrInvalidRefreshToken
	}

	pair, newClaims, err := s.mintPair(userID, claims.DeviceID)
	if err != nil {
		return nil, 0, err
	}
	matched, err := s.sessions.Rotate(claims.DeviceID, repository.SessionRotation{
		DeviceName:         deviceName,
		IP:                 ip,
		RefreshFingerprint: security.RefreshTokenFingerprint(pair.RefreshToken, s.pepper),
		IssuedAt:           newClaims.IssuedAt.Time,
		ExpiresAt:          newClaims.ExpiresAt.Time,
	})
	if err != nil {
		return nil, 0, err
	}
	if !matched {
		return nil, 0, ErrInvalidRefreshToken
	}
	return pair, userID, nil
}

// Verify checks a refresh token against both its signature and the session
// row it claims to belong to. Used by the cookie gate; it never mutates.
func (s *TokenService) Verify(rawRefresh string) (*security.Claims, error) {
	claims, err := s.jwtMgr.ParseRefreshToken(rawRefresh)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	session, err := s.sessions.FindByDeviceID(claims.DeviceID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrInvalidRefreshToken
	}
	if session.RefreshFingerprint != security.RefreshTokenFingerprint(rawRefresh, s.pepper) {
		return nil, ErrInvalidRefreshToken
	}
	if session.ExpiresAt.Before(time.Now()) {
		return nil, ErrInvalidRefreshToken
	}
	return claims, nil
}

func (s *TokenService) mintPair(userID uint, deviceID string) (*TokenPair, *security.Claims, error) {
	refresh, err := s.jwtMgr.SignRefreshToken(userID, deviceID, s.refreshTTL)
	if err != nil {
		return nil, nil, err
	}
	refreshClaims, err := s.jwtMgr.ParseRefreshToken(refresh)
	if err != nil {
		return nil, nil, err
	}
	access, err := s.jwtMgr.SignAccessToken(userID, s.accessTTL)
	if err != nil {
		return nil, nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		DeviceID:         deviceID,
		RefreshExpiresAt: refreshClaims.ExpiresAt.Time,
	}, refreshClaims, nil
}
