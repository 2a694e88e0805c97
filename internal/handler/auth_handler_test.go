package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/socialwall/internal/auth"
	"github.com/hitoshi/socialwall/internal/middleware"
	"github.com/hitoshi/socialwall/internal/model"
)

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	registerFn     func(ctx context.Context, email, password string) (*model.User, error)
	authenticateFn func(ctx context.Context, email, password string) (*model.AuthenticatedUser, error)
	findUserFn     func(ctx context.Context, subject string) (*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, email, password string) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, email, password)
	}
	return nil, nil
}

func (m *mockAuthService) Authenticate(ctx context.Context, email, password string) (*model.AuthenticatedUser, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, email, password)
	}
	return nil, nil
}

func (m *mockAuthService) FindUser(ctx context.Context, subject string) (*model.User, error) {
	if m.findUserFn != nil {
		return m.findUserFn(ctx, subject)
	}
	return nil, nil
}

// mockTokenIssuer はTokenIssuerのモック実装。
type mockTokenIssuer struct {
	issueFn func(user *model.AuthenticatedUser) (*auth.Token, error)
}

func (m *mockTokenIssuer) Issue(user *model.AuthenticatedUser) (*auth.Token, error) {
	if m.issueFn != nil {
		return m.issueFn(user)
	}
	return &auth.Token{AccessToken: "issued-token", TokenType: "Bearer", ExpiresIn: 3600}, nil
}

// mockMetricsRecorder はメトリクス記録のモック実装。
// 認証・投稿両方のレコーダーを兼ねる。
type mockMetricsRecorder struct {
	loginSuccess int
	loginFailure int
	tokensIssued int
	postsCreated int
}

func (m *mockMetricsRecorder) RecordLoginSuccess() { m.loginSuccess++ }
func (m *mockMetricsRecorder) RecordLoginFailure() { m.loginFailure++ }
func (m *mockMetricsRecorder) RecordTokenIssued()  { m.tokensIssued++ }
func (m *mockMetricsRecorder) RecordPostCreated()  { m.postsCreated++ }

// --- テストヘルパー ---

// withSubject はテスト用にリクエストコンテキストに認証subjectを注入するヘルパー。
func withSubject(r *http.Request, subject string) *http.Request {
	ctx := middleware.ContextWithSubject(r.Context(), subject)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		t.Fatalf("failed to encode request body: %v", err)
	}
	return &buf
}

// --- POST /auth/register テスト ---

func TestAuthHandler_Register_Success(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, email, password string) (*model.User, error) {
			if email != "alice@example.com" {
				t.Errorf("email = %q, want %q", email, "alice@example.com")
			}
			if password != "password123" {
				t.Errorf("password = %q, want %q", password, "password123")
			}
			return &model.User{ID: "user-1", Email: email}, nil
		},
	}
	h := NewAuthHandler(svc, &mockTokenIssuer{}, &mockMetricsRecorder{})

	body := jsonBody(t, map[string]string{"email": "alice@example.com", "password": "password123"})
	r := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	w := httptest.NewRecorder()
	h.Register(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["id"] != "user-1" {
		t.Errorf("id = %q, want %q", resp["id"], "user-1")
	}
	if resp["email"] != "alice@example.com" {
		t.Errorf("email = %q, want %q", resp["email"], "alice@example.com")
	}
}

func TestAuthHandler_Register_InvalidJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, &mockTokenIssuer{}, &mockMetricsRecorder{})

	r := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString("{broken"))
	w := httptest.NewRecorder()
	h.Register(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if resp := parseAPIErrorResponse(t, w); resp["code"] != model.ErrCodeInvalidRequest {
		t.Errorf("code = %q, want %q", resp["code"], model.ErrCodeInvalidRequest)
	}
}

func TestAuthHandler_Register_DuplicateEmail_Returns409(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, email, password string) (*model.User, error) {
			return nil, model.NewDuplicateEmailError()
		},
	}
	h := NewAuthHandler(svc, &mockTokenIssuer{}, &mockMetricsRecorder{})

	body := jsonBody(t, map[string]string{"email": "alice@example.com", "password": "password123"})
	r := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	w := httptest.NewRecorder()
	h.Register(w, r)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
	if resp := parseAPIErrorResponse(t, w); resp["code"] != model.ErrCodeDuplicateEmail {
		t.Errorf("code = %q, want %q", resp["code"], model.ErrCodeDuplicateEmail)
	}
}

func TestAuthHandler_Register_ValidationError_Returns400(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, email, password string) (*model.User, error) {
			return nil, model.NewInvalidArgumentError("メールアドレスの形式が不正です")
		},
	}
	h := NewAuthHandler(svc, &mockTokenIssuer{}, &mockMetricsRecorder{})

	body := jsonBody(t, map[string]string{"email": "bad", "password": "password123"})
	r := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	w := httptest.NewRecorder()
	h.Register(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// --- POST /auth/login テスト ---

func TestAuthHandler_Login_Success(t *testing.T) {
	svc := &mockAuthService{
		authenticateFn: func(ctx context.Context, email, password string) (*model.AuthenticatedUser, error) {
			return &model.AuthenticatedUser{Subject: email, Roles: []string{model.RoleUser}}, nil
		},
	}
	issuer := &mockTokenIssuer{
		issueFn: func(user *model.AuthenticatedUser) (*auth.Token, error) {
			if user.Subject != "alice@example.com" {
				t.Errorf("Subject = %q, want %q", user.Subject, "alice@example.com")
			}
			return &auth.Token{AccessToken: "signed-jwt", TokenType: "Bearer", ExpiresIn: 3600}, nil
		},
	}
	metrics := &mockMetricsRecorder{}
	h := NewAuthHandler(svc, issuer, metrics)

	body := jsonBody(t, map[string]string{"email": "alice@example.com", "password": "password123"})
	r := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	w := httptest.NewRecorder()
	h.Login(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AccessToken != "signed-jwt" {
		t.Errorf("access_token = %q, want %q", resp.AccessToken, "signed-jwt")
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("token_type = %q, want %q", resp.TokenType, "Bearer")
	}
	if resp.ExpiresIn != 3600 {
		t.Errorf("expires_in = %d, want %d", resp.ExpiresIn, 3600)
	}

	if metrics.loginSuccess != 1 || metrics.tokensIssued != 1 {
		t.Errorf("metrics = %+v, want loginSuccess=1 tokensIssued=1", metrics)
	}
	if metrics.loginFailure != 0 {
		t.Errorf("loginFailure = %d, want 0", metrics.loginFailure)
	}
}

func TestAuthHandler_Login_InvalidCredentials_Returns401(t *testing.T) {
	svc := &mockAuthService{
		authenticateFn: func(ctx context.Context, email, password string) (*model.AuthenticatedUser, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}
	metrics := &mockMetricsRecorder{}
	h := NewAuthHandler(svc, &mockTokenIssuer{}, metrics)

	body := jsonBody(t, map[string]string{"email": "alice@example.com", "password": "wrong"})
	r := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	w := httptest.NewRecorder()
	h.Login(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if resp := parseAPIErrorResponse(t, w); resp["code"] != model.ErrCodeInvalidCredentials {
		t.Errorf("code = %q, want %q", resp["code"], model.ErrCodeInvalidCredentials)
	}
	if metrics.loginFailure != 1 {
		t.Errorf("loginFailure = %d, want 1", metrics.loginFailure)
	}
	if metrics.loginSuccess != 0 || metrics.tokensIssued != 0 {
		t.Errorf("metrics = %+v, want no success metrics on failure", metrics)
	}
}

// TestAuthHandler_Login_BackendError はサーバー都合の認証失敗が
// ログイン失敗メトリクスに計上されないことを検証する。
func TestAuthHandler_Login_BackendError(t *testing.T) {
	svc := &mockAuthService{
		authenticateFn: func(ctx context.Context, email, password string) (*model.AuthenticatedUser, error) {
			return nil, errors.New("connection refused")
		},
	}
	metrics := &mockMetricsRecorder{}
	h := NewAuthHandler(svc, &mockTokenIssuer{}, metrics)

	body := jsonBody(t, map[string]string{"email": "alice@example.com", "password": "password123"})
	r := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	w := httptest.NewRecorder()
	h.Login(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if metrics.loginFailure != 0 {
		t.Errorf("loginFailure = %d, want 0 for backend errors", metrics.loginFailure)
	}
}

func TestAuthHandler_Login_InvalidJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, &mockTokenIssuer{}, &mockMetricsRecorder{})

	r := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()
	h.Login(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// --- GET /auth/me テスト ---

func TestAuthHandler_Me_Success(t *testing.T) {
	svc := &mockAuthService{
		findUserFn: func(ctx context.Context, subject string) (*model.User, error) {
			if subject != "alice@example.com" {
				t.Errorf("subject = %q, want %q", subject, "alice@example.com")
			}
			return &model.User{ID: "user-1", Email: "alice@example.com"}, nil
		},
	}
	h := NewAuthHandler(svc, &mockTokenIssuer{}, &mockMetricsRecorder{})

	r := withSubject(httptest.NewRequest(http.MethodGet, "/auth/me", nil), "alice@example.com")
	w := httptest.NewRecorder()
	h.Me(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["id"] != "user-1" {
		t.Errorf("id = %q, want %q", resp["id"], "user-1")
	}
	if resp["subject"] != "alice@example.com" {
		t.Errorf("subject = %q, want %q", resp["subject"], "alice@example.com")
	}
}

func TestAuthHandler_Me_NoSubject_Returns401(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, &mockTokenIssuer{}, &mockMetricsRecorder{})

	r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	w := httptest.NewRecorder()
	h.Me(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// --- GET /auth/ping テスト ---

func TestAuthHandler_Ping(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, &mockTokenIssuer{}, &mockMetricsRecorder{})

	r := httptest.NewRequest(http.MethodGet, "/auth/ping", nil)
	w := httptest.NewRecorder()
	h.Ping(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %q, want %q", resp["status"], "ok")
	}
}
