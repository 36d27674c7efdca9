package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bloggers-platform/internal/http/middleware"
	"bloggers-platform/internal/http/response"
	"bloggers-platform/internal/observability"
	"bloggers-platform/internal/service"
)

// SecurityHandler serves the device-session surface. Every route is gated by
// the refresh cookie, not the access token, so a stolen access token alone
// can't enumerate or kill sessions.
type SecurityHandler struct {
	sessions service.DeviceSessionManager
}

func NewSecurityHandler(sessions service.DeviceSessionManager) *SecurityHandler {
	return &SecurityHandler{sessions: sessions}
}

func (h *SecurityHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.RefreshPrincipalFromContext(r.Context())
	if !ok {
		response.Status(w, http.StatusUnauthorized)
		return
	}

	devices, err := h.sessions.ListDevices(principal.UserID)
	if err != nil {
		response.Status(w, http.StatusInternalServerError)
		return
	}
	response.JSON(w, http.StatusOK, devices)
}

func (h *SecurityHandler) RevokeDevice(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.RefreshPrincipalFromContext(r.Context())
	if !ok {
		response.Status(w, http.StatusUnauthorized)
		return
	}
	deviceID := chi.URLParam(r, "deviceId")
	if deviceID == "" {
		response.Status(w, http.StatusNotFound)
		return
	}

	err := h.sessions.RevokeDevice(principal.UserID, deviceID)
	switch {
	case err == nil:
		observability.RecordDeviceRevocation(r.Context(), "single", "success")
		observability.Audit(r, "security.device.revoked", "user_id", principal.UserID, "device_id", deviceID)
		response.Status(w, http.StatusNoContent)
	case errors.Is(err, service.ErrDeviceNotFound):
		observability.RecordDeviceRevocation(r.Context(), "single", "not_found")
		response.Status(w, http.StatusNotFound)
	case errors.Is(err, service.ErrDeviceNotOwned):
		observability.RecordDeviceRevocation(r.Context(), "single", "forbidden")
		response.Status(w, http.StatusForbidden)
	default:
		observability.RecordDeviceRevocation(r.Context(), "single", "error")
		response.Status(w, http.StatusInternalServerError)
	}
}

func (h *SecurityHandler) RevokeOtherDevices(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.RefreshPrincipalFromContext(r.Context())
	if !ok {
		response.Status(w, http.StatusUnauthorized)
		return
	}

	revoked, err := h.sessions.RevokeOtherDevices(principal.UserID, principal.DeviceID)
	if err != nil {
		observability.RecordDeviceRevocation(r.Context(), "others", "error")
		response.Status(w, http.StatusInternalServerError)
		return
	}

	observability.RecordDeviceRevocation(r.Context(), "others", "success")
	observability.Audit(r, "security.devices.revoked_others",
		"user_id", principal.UserID, "kept_device_id", principal.DeviceID, "revoked", revoked)
	response.Status(w, http.StatusNoContent)
}
