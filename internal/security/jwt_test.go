package security

import (
	"testing"
	"time"
)

func newTestManager() *JWTManager {
	return NewJWTManager("bloggers-platform", "bloggers-platform-api", "access-secret", "refresh-secret")
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	raw, err := m.SignAccessToken(42, time.Minute)
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}
	claims, err := m.ParseAccessToken(raw)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	id, err := claims.UserID()
	if err != nil {
		t.Fatalf("decode subject: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected user id 42, got %d", id)
	}
	if claims.DeviceID != "" {
		t.Fatalf("access token must not carry a device id, got %q", claims.DeviceID)
	}
}

func TestRefreshTokenCarriesDeviceID(t *testing.T) {
	m := newTestManager()

	raw, err := m.SignRefreshToken(7, "device-1", time.Hour)
	if err != nil {
		t.Fatalf("sign refresh token: %v", err)
	}
	claims, err := m.ParseRefreshToken(raw)
	if err != nil {
		t.Fatalf("parse refresh token: %v", err)
	}
	if claims.DeviceID != "device-1" {
		t.Fatalf("expected device-1, got %q", claims.DeviceID)
	}
}

func TestParseRejectsWrongTokenType(t *testing.T) {
	m := newTestManager()

	refresh, err := m.SignRefreshToken(7, "device-1", time.Hour)
	if err != nil {
		t.Fatalf("sign refresh token: %v", err)
	}
	if _, err := m.ParseAccessToken(refresh); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for refresh-as-access, got %v", err)
	}

	access, err := m.SignAccessToken(7, time.Minute)
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}
	if _, err := m.ParseRefreshToken(access); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for access-as-refresh, got %v", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := newTestManager()

	raw, err := m.SignAccessToken(7, -time.Minute)
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}
	if _, err := m.ParseAccessToken(raw); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestParseRejectsForeignSignature(t *testing.T) {
	m := newTestManager()
	other := NewJWTManager("bloggers-platform", "bloggers-platform-api", "other-access", "other-refresh")

	raw, err := other.SignAccessToken(7, time.Minute)
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}
	if _, err := m.ParseAccessToken(raw); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
	if _, err := m.ParseAccessToken("not-a-token"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestRefreshTokenFingerprintChangesPerToken(t *testing.T) {
	m := newTestManager()

	first, err := m.SignRefreshToken(7, "device-1", time.Hour)
	if err != nil {
		t.Fatalf("sign refresh token: %v", err)
	}
	second, err := m.SignRefreshToken(7, "device-1", time.Hour)
	if err != nil {
		t.Fatalf("sign refresh token: %v", err)
	}

	if RefreshTokenFingerprint(first, "pepper") == RefreshTokenFingerprint(second, "pepper") {
		t.Fatal("fingerprints of distinct tokens must differ")
	}
	if RefreshTokenFingerprint(first, "pepper") != RefreshTokenFingerprint(first, "pepper") {
		t.Fatal("fingerprint must be deterministic")
	}
	if RefreshTokenFingerprint(first, "pepper") == RefreshTokenFingerprint(first, "other") {
		t.Fatal("fingerprint must depend on the pepper")
	}
}
