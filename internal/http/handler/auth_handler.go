package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bloggers-platform/internal/http/middleware"
	"bloggers-platform/internal/http/response"
	"bloggers-platform/internal/observability"
	"bloggers-platform/internal/security"
	"bloggers-platform/internal/service"
)

type AuthHandler struct {
	credentials service.CredentialVerifier
	registrar   service.Registrar
	tokens      service.TokenIssuer
	sessions    service.DeviceSessionManager
	users       service.UserAdmin
}

func NewAuthHandler(
	credentials service.CredentialVerifier,
	registrar service.Registrar,
	tokens service.TokenIssuer,
	sessions service.DeviceSessionManager,
	users service.UserAdmin,
) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		registrar:   registrar,
		tokens:      tokens,
		sessions:    sessions,
		users:       users,
	}
}

type loginRequest struct {
	LoginOrEmail string `json:"loginOrEmail"`
	Password     string `json:"password"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// Login verifies credentials, mints a fresh device session and hands out the
// token pair: access token in the body, refresh token in an HttpOnly cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var msgs []response.ErrorMessage
	if strings.TrimSpace(req.LoginOrEmail) == "" {
		msgs = append(msgs, response.ErrorMessage{Message: "loginOrEmail is required", Field: "loginOrEmail"})
	}
	if req.Password == "" {
		msgs = append(msgs, response.ErrorMessage{Message: "password is required", Field: "password"})
	}
	if len(msgs) > 0 {
		response.ValidationError(w, msgs...)
		return
	}

	user, err := h.credentials.CheckCredentials(req.LoginOrEmail, req.Password)
	if err != nil {
		observability.RecordAuthLogin(r.Context(), "failure")
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Status(w, http.StatusUnauthorized)
			return
		}
		response.Status(w, http.StatusInternalServerError)
		return
	}

	pair, err := h.tokens.Issue(user, deviceName(r), clientIP(r))
	if err != nil {
		observability.RecordAuthLogin(r.Context(), "failure")
		response.Status(w, http.StatusInternalServerError)
		return
	}

	observability.RecordAuthLogin(r.Context(), "success")
	observability.Audit(r, "auth.login", "user_id", user.ID, "device_id", pair.DeviceID)
	security.SetRefreshCookie(w, pair.RefreshToken, pair.RefreshExpiresAt)
	response.JSON(w, http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken})
}

// Refresh rotates the presented refresh token in place. The device id is
// preserved; the predecessor token stops working the moment rotation lands.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.RefreshPrincipalFromContext(r.Context())
	if !ok {
		response.Status(w, http.StatusUnauthorized)
		return
	}

	pair, userID, err := h.tokens.Rotate(principal.RawToken, deviceName(r), clientIP(r))
	if err != nil {
		observability.RecordAuthRefresh(r.Context(), "failure")
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			response.Status(w, http.StatusUnauthorized)
			return
		}
		response.Status(w, http.StatusInternalServerError)
		return
	}

	observability.RecordAuthRefresh(r.Context(), "success")
	observability.Audit(r, "auth.refresh", "user_id", userID, "device_id", pair.DeviceID)
	security.SetRefreshCookie(w, pair.RefreshToken, pair.RefreshExpiresAt)
	response.JSON(w, http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken})
}

// Logout deletes the calling device's session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.RefreshPrincipalFromContext(r.Context())
	if !ok {
		response.Status(w, http.StatusUnauthorized)
		return
	}

	if err := h.sessions.Logout(principal.DeviceID); err != nil {
		observability.RecordAuthLogout(r.Context(), "failure")
		response.Status(w, http.StatusInternalServerError)
		return
	}

	observability.RecordAuthLogout(r.Context(), "success")
	observability.Audit(r, "auth.logout", "user_id", principal.UserID, "device_id", principal.DeviceID)
	security.ClearRefreshCookie(w)
	response.Status(w, http.StatusNoContent)
}

type meResponse struct {
	UserID string `json:"userId"`
	Login  string `json:"login"`
	Email  string `json:"email"`
}

// Me resolves the access token's subject to the current account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Status(w, http.StatusUnauthorized)
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		response.Status(w, http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetByID(userID)
	if err != nil {
		response.Status(w, http.StatusUnauthorized)
		return
	}
	response.JSON(w, http.StatusOK, meResponse{
		UserID: strconv.FormatUint(uint64(user.ID), 10),
		Login:  user.Login,
		Email:  user.Email,
	})
}

type registrationRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// Registration creates an unconfirmed account and emails the confirmation
// code. Success is a bare 204 so the response can't leak account existence
// beyond the explicit duplicate-field errors.
func (h *AuthHandler) Registration(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var msgs []response.ErrorMessage
	msgs = validateLogin(req.Login, msgs)
	msgs = validatePassword(req.Password, msgs)
	msgs = validateEmail(req.Email, msgs)
	if len(msgs) > 0 {
		response.ValidationError(w, msgs...)
		return
	}

	err := h.registrar.Register(strings.TrimSpace(req.Login), req.Password, strings.TrimSpace(req.Email))
	switch {
	case err == nil:
		observability.Audit(r, "auth.registration", "login", req.Login)
		response.Status(w, http.StatusNoContent)
	case errors.Is(err, service.ErrLoginTaken):
		response.ValidationError(w, response.ErrorMessage{Message: "login already taken", Field: "login"})
	case errors.Is(err, service.ErrEmailTaken):
		response.ValidationError(w, response.ErrorMessage{Message: "email already taken", Field: "email"})
	default:
		response.Status(w, http.StatusInternalServerError)
	}
}

type confirmationRequest struct {
	Code string `json:"code"`
}

func (h *AuthHandler) RegistrationConfirmation(w http.ResponseWriter, r *http.Request) {
	var req confirmationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		response.ValidationError(w, response.ErrorMessage{Message: "code is required", Field: "code"})
		return
	}

	err := h.registrar.ConfirmEmail(req.Code)
	switch {
	case err == nil:
		response.Status(w, http.StatusNoContent)
	case errors.Is(err, service.ErrInvalidConfirmationCode):
		response.ValidationError(w, response.ErrorMessage{Message: "confirmation code is incorrect or expired", Field: "code"})
	default:
		response.Status(w, http.StatusInternalServerError)
	}
}

type resendRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) RegistrationEmailResending(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msgs := validateEmail(req.Email, nil); len(msgs) > 0 {
		response.ValidationError(w, msgs...)
		return
	}

	err := h.registrar.ResendConfirmation(strings.TrimSpace(req.Email))
	switch {
	case err == nil:
		response.Status(w, http.StatusNoContent)
	case errors.Is(err, service.ErrInvalidConfirmationCode):
		response.ValidationError(w, response.ErrorMessage{Message: "email is not registered", Field: "email"})
	case errors.Is(err, service.ErrEmailAlreadyConfirmed):
		response.ValidationError(w, response.ErrorMessage{Message: "email is already confirmed", Field: "email"})
	default:
		response.Status(w, http.StatusInternalServerError)
	}
}
