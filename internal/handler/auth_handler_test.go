package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/blogman/internal/middleware"
	"github.com/hitoshi/blogman/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn       func(ctx context.Context, username, rawPassword string) (*model.User, error)
	authenticateFn   func(ctx context.Context, username, rawPassword string) (*model.Session, error)
	logoutFn         func(ctx context.Context, sessionID string) error
	resolveSessionFn func(ctx context.Context, sessionID string) (*model.CurrentUser, error)
}

func (m *mockAuthService) Register(ctx context.Context, username, rawPassword string) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, username, rawPassword)
	}
	return nil, nil
}

func (m *mockAuthService) Authenticate(ctx context.Context, username, rawPassword string) (*model.Session, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, username, rawPassword)
	}
	return nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthService) ResolveSession(ctx context.Context, sessionID string) (*model.CurrentUser, error) {
	if m.resolveSessionFn != nil {
		return m.resolveSessionFn(ctx, sessionID)
	}
	return nil, nil
}

var _ AuthServiceInterface = (*mockAuthService)(nil)

func decodeErrorBody(t *testing.T, resp *http.Response) apiErrorResponse {
	t.Helper()
	var body apiErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

// --- Register ---

func TestRegister_Success_Returns201WithUser(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, username, rawPassword string) (*model.User, error) {
			return &model.User{ID: "user-1", Username: username}, nil
		},
	}
	h := NewAuthHandler(svc, AuthHandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"username":"alice","password":"secret-password"}`))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusCreated)
	}
	var body userResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.ID != "user-1" || body.Username != "alice" {
		t.Errorf("body = %+v, want user-1/alice", body)
	}
}

func TestRegister_DuplicateUsername_Returns400(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, username, rawPassword string) (*model.User, error) {
			return nil, model.NewDuplicateUsernameError(username)
		},
	}
	h := NewAuthHandler(svc, AuthHandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"username":"alice","password":"secret-password"}`))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
	if body := decodeErrorBody(t, w.Result()); body.Code != model.ErrCodeDuplicateUsername {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeDuplicateUsername)
	}
}

func TestRegister_EmptyFields_Returns400(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{
		registerFn: func(ctx context.Context, username, rawPassword string) (*model.User, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}, AuthHandlerConfig{})

	for _, payload := range []string{
		`{"username":"","password":"secret"}`,
		`{"username":"alice","password":""}`,
		`{}`,
		`not-json`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(payload))
		w := httptest.NewRecorder()

		h.Register(w, req)

		if w.Result().StatusCode != http.StatusBadRequest {
			t.Errorf("payload %q: status = %d, want 400", payload, w.Result().StatusCode)
		}
	}
}

// --- Login ---

func TestLogin_Success_SetsSessionCookieAndReturnsUser(t *testing.T) {
	svc := &mockAuthService{
		authenticateFn: func(ctx context.Context, username, rawPassword string) (*model.Session, error) {
			return &model.Session{ID: "session-token", UserID: "user-1"}, nil
		},
		resolveSessionFn: func(ctx context.Context, sessionID string) (*model.CurrentUser, error) {
			return &model.CurrentUser{ID: "user-1", Username: "alice"}, nil
		},
	}
	h := NewAuthHandler(svc, AuthHandlerConfig{SessionMaxAge: 3600})

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"alice","password":"secret-password"}`))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var sessionCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "session_id" {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("expected session_id cookie")
	}
	if sessionCookie.Value != "session-token" {
		t.Errorf("cookie value = %q, want session-token", sessionCookie.Value)
	}
	if !sessionCookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}

	var body userResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Username != "alice" {
		t.Errorf("username = %q, want alice", body.Username)
	}
}

// ユーザー不在とパスワード不一致が同一のレスポンスになることを検証
func TestLogin_InvalidCredentials_IndistinguishableResponses(t *testing.T) {
	svc := &mockAuthService{
		authenticateFn: func(ctx context.Context, username, rawPassword string) (*model.Session, error) {
			return nil, nil
		},
	}
	h := NewAuthHandler(svc, AuthHandlerConfig{})

	var bodies []apiErrorResponse
	for _, payload := range []string{
		`{"username":"no-such-user","password":"whatever"}`,
		`{"username":"alice","password":"wrong-password"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(payload))
		w := httptest.NewRecorder()

		h.Login(w, req)

		if w.Result().StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
		}
		if len(w.Result().Cookies()) != 0 {
			t.Error("no cookie should be set on failed login")
		}
		bodies = append(bodies, decodeErrorBody(t, w.Result()))
	}

	if bodies[0] != bodies[1] {
		t.Errorf("failure responses differ: %+v vs %+v", bodies[0], bodies[1])
	}
	if bodies[0].Code != model.ErrCodeInvalidCredentials {
		t.Errorf("code = %q, want %q", bodies[0].Code, model.ErrCodeInvalidCredentials)
	}
}

// --- Logout ---

func TestLogout_WithCookie_DeletesSessionAndClearsCookie(t *testing.T) {
	var deletedID string
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			deletedID = sessionID
			return nil
		},
	}
	h := NewAuthHandler(svc, AuthHandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "session-token"})
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
	if deletedID != "session-token" {
		t.Errorf("deleted session = %q, want session-token", deletedID)
	}

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "session_id" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected session cookie to be cleared")
	}
}

func TestLogout_WithoutCookie_Returns204(t *testing.T) {
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			t.Fatal("service should not be called without cookie")
			return nil
		},
	}
	h := NewAuthHandler(svc, AuthHandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
}

// --- Me ---

func TestMe_Authenticated_ReturnsCurrentUser(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, AuthHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	ctx := middleware.ContextWithCurrentUser(req.Context(),
		&model.CurrentUser{ID: "user-1", Username: "alice"})
	w := httptest.NewRecorder()

	h.Me(w, req.WithContext(ctx))

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	var body userResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.ID != "user-1" || body.Username != "alice" {
		t.Errorf("body = %+v, want user-1/alice", body)
	}
}

func TestMe_Anonymous_Returns401(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, AuthHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	w := httptest.NewRecorder()

	h.Me(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
	if body := decodeErrorBody(t, w.Result()); body.Code != model.ErrCodeUnauthorized {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUnauthorized)
	}
}
