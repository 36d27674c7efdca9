package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bloggers-platform/internal/config"
	"bloggers-platform/internal/http/handler"
	"bloggers-platform/internal/http/middleware"
	"bloggers-platform/internal/http/router"
	"bloggers-platform/internal/repository"
	"bloggers-platform/internal/security"
	"bloggers-platform/internal/service"
	"bloggers-platform/internal/storage"
)

const basicAuthHeader = "Basic YWRtaW46cXdlcnR5"

type captureSender struct {
	mu    sync.Mutex
	codes []string
}

func (s *captureSender) SendConfirmationEmail(to, confirmationCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes = append(s.codes, confirmationCode)
	return nil
}

func (s *captureSender) lastCode(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codes) == 0 {
		t.Fatal("no confirmation email captured")
	}
	return s.codes[len(s.codes)-1]
}

type testEnv struct {
	baseURL string
	client  *http.Client
	sender  *captureSender
}

var dbSeq int

// newAuthTestServer wires the full stack against an in-memory database and
// returns a server plus the captured outbound mail.
func newAuthTestServer(t *testing.T, rateLimit int) *testEnv {
	t.Helper()

	dbSeq++
	cfg := &config.Config{
		DatabaseDriver: "sqlite",
		DatabaseDSN:    fmt.Sprintf("file:integration_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), dbSeq),
	}
	db, err := storage.Open(cfg)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	sender := &captureSender{}

	jwtMgr := security.NewJWTManager("iss", "aud", "access-secret-0123456789abcdef", "refresh-secret-0123456789abcdef")
	authSvc := service.NewAuthService(users, sender, service.NewInMemoryUnknownIdentifierCache(), 24*time.Hour, 10*time.Minute)
	tokenSvc := service.NewTokenService(jwtMgr, sessions, "pepper", 15*time.Minute, time.Hour)
	sessionSvc := service.NewSessionService(sessions)
	userSvc := service.NewUserService(users, authSvc)

	limiter := middleware.NewRateLimiter(
		middleware.NewLocalWindowLimiter(rateLimit, 10*time.Second),
		middleware.FailClosed, "auth", nil,
	).Middleware()

	h := router.NewRouter(router.Dependencies{
		AuthHandler:     handler.NewAuthHandler(authSvc, authSvc, tokenSvc, sessionSvc, userSvc),
		SecurityHandler: handler.NewSecurityHandler(sessionSvc),
		UserHandler:     handler.NewUserHandler(userSvc),
		JWTManager:      jwtMgr,
		Tokens:          tokenSvc,
		BasicAuthToken:  "YWRtaW46cXdlcnR5",
		AuthRateLimiter: limiter,
	})

	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	return &testEnv{
		baseURL: server.URL,
		client:  server.Client(),
		sender:  sender,
	}
}

type request struct {
	method  string
	path    string
	body    any
	headers map[string]string
	cookies []*http.Cookie
	ua      string
}

func (e *testEnv) do(t *testing.T, req request) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	httpReq, err := http.NewRequest(req.method, e.baseURL+req.path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.ua != "" {
		httpReq.Header.Set("User-Agent", req.ua)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}
	for _, c := range req.cookies {
		httpReq.AddCookie(c)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		t.Fatalf("%s %s: %v", req.method, req.path, err)
	}
	raw, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return resp, raw
}

// registerConfirmedUser drives the public registration flow end to end.
func (e *testEnv) registerConfirmedUser(t *testing.T, login, password, email string) {
	t.Helper()

	resp, body := e.do(t, request{
		method: http.MethodPost,
		path:   "/auth/registration",
		body:   map[string]string{"login": login, "password": password, "email": email},
	})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("registration failed: status=%d body=%s", resp.StatusCode, body)
	}

	resp, body = e.do(t, request{
		method: http.MethodPost,
		path:   "/auth/registration-confirmation",
		body:   map[string]string{"code": e.sender.lastCode(t)},
	})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("confirmation failed: status=%d body=%s", resp.StatusCode, body)
	}
}

// login authenticates and returns the access token plus the refresh cookie.
func (e *testEnv) login(t *testing.T, loginOrEmail, password, userAgent string) (string, *http.Cookie) {
	t.Helper()

	resp, body := e.do(t, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   map[string]string{"loginOrEmail": loginOrEmail, "password": password},
		ua:     userAgent,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: status=%d body=%s", resp.StatusCode, body)
	}

	var payload struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode login body: %v", err)
	}
	if payload.AccessToken == "" {
		t.Fatal("login response missing accessToken")
	}
	return payload.AccessToken, findRefreshCookie(t, resp)
}

func findRefreshCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == security.RefreshCookieName {
			return c
		}
	}
	t.Fatal("refresh cookie not set")
	return nil
}

type deviceView struct {
	IP             string    `json:"ip"`
	Title          string    `json:"title"`
	LastActiveDate time.Time `json:"lastActiveDate"`
	DeviceID       string    `json:"deviceId"`
}

func (e *testEnv) listDevices(t *testing.T, cookie *http.Cookie) []deviceView {
	t.Helper()
	resp, body := e.do(t, request{
		method:  http.MethodGet,
		path:    "/security/devices",
		cookies: []*http.Cookie{cookie},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list devices failed: status=%d body=%s", resp.StatusCode, body)
	}
	var devices []deviceView
	if err := json.Unmarshal(body, &devices); err != nil {
		t.Fatalf("decode devices: %v", err)
	}
	return devices
}
