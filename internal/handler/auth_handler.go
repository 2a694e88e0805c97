// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hitoshi/socialwall/internal/auth"
	"github.com/hitoshi/socialwall/internal/middleware"
	"github.com/hitoshi/socialwall/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は新規ユーザーを登録する。
	Register(ctx context.Context, email, password string) (*model.User, error)
	// Authenticate はメールアドレスとパスワードを検証する。
	Authenticate(ctx context.Context, email, password string) (*model.AuthenticatedUser, error)
	// FindUser はsubjectからユーザーを取得する。
	FindUser(ctx context.Context, subject string) (*model.User, error)
}

// TokenIssuer はトークン発行に必要なインターフェース。
// auth.TokenServiceの部分集合として定義する。
type TokenIssuer interface {
	Issue(user *model.AuthenticatedUser) (*auth.Token, error)
}

// AuthMetricsRecorder は認証メトリクス記録に必要なインターフェース。
// metrics.MetricsCollectorの部分集合として定義する。
type AuthMetricsRecorder interface {
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordTokenIssued()
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	issuer  TokenIssuer
	metrics AuthMetricsRecorder
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, issuer TokenIssuer, metrics AuthMetricsRecorder) *AuthHandler {
	return &AuthHandler{
		service: service,
		issuer:  issuer,
		metrics: metrics,
	}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// registerResponse はユーザー登録成功時のレスポンス。
type registerResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse はトークン発行成功時のレスポンス。
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// meResponse は認証済みユーザー情報のレスポンス。
// SPAが「自分の投稿」を判定するための安定したIDを含む。
type meResponse struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
}

// Register はユーザー登録を処理する。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(registerResponse{
		ID:    user.ID,
		Email: user.Email,
	})
}

// Login は認証とトークン発行を処理する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	authenticated, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		// ログイン失敗メトリクスは認証情報の不一致のみを数える。
		// リポジトリ障害などのサーバー都合の失敗は含めない。
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeInvalidCredentials {
			h.metrics.RecordLoginFailure()
		}
		handleServiceError(w, err)
		return
	}

	token, err := h.issuer.Issue(authenticated)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordLoginSuccess()
	h.metrics.RecordTokenIssued()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresIn:   token.ExpiresIn,
	})
}

// Me は認証済みユーザー自身の情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	subject, err := middleware.SubjectFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, newUnauthorizedError())
		return
	}

	user, err := h.service.FindUser(r.Context(), subject)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(meResponse{
		ID:      user.ID,
		Subject: user.Email,
	})
}

// Ping は認証ルーターの死活確認エンドポイント。
// GET /auth/ping
func (h *AuthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
