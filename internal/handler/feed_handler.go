package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/socialwall/internal/feed"
	"github.com/hitoshi/socialwall/internal/middleware"
	"github.com/hitoshi/socialwall/internal/model"
)

// FeedServiceInterface はフィードハンドラーが必要とするサービスインターフェース。
type FeedServiceInterface interface {
	// GetPage はフィードの1ページ分を新しい順で取得する。
	GetPage(ctx context.Context, page, limit int) (*model.PageResult, error)
	// CreatePost は新規投稿を作成する。
	CreatePost(ctx context.Context, subject, content string) (*model.Post, error)
	// UpdatePost は投稿の本文を更新する。所有者のみ実行できる。
	UpdatePost(ctx context.Context, subject, postID, content string) (*model.Post, error)
	// DeletePost は投稿を削除する。所有者のみ実行できる。
	DeletePost(ctx context.Context, subject, postID string) error
}

// PostMetricsRecorder は投稿メトリクス記録に必要なインターフェース。
// metrics.MetricsCollectorの部分集合として定義する。
type PostMetricsRecorder interface {
	RecordPostCreated()
}

// FeedHandler はフィード投稿のHTTPハンドラー。
type FeedHandler struct {
	service FeedServiceInterface
	metrics PostMetricsRecorder
}

// NewFeedHandler はFeedHandlerを生成する。
func NewFeedHandler(service FeedServiceInterface, metrics PostMetricsRecorder) *FeedHandler {
	return &FeedHandler{
		service: service,
		metrics: metrics,
	}
}

// postContentRequest は投稿作成・更新リクエストのボディ。
type postContentRequest struct {
	Content string `json:"content"`
}

// authorResponse は投稿者情報のレスポンス。
type authorResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// feedItemResponse はフィード投稿1件のレスポンス。
type feedItemResponse struct {
	Kind      string         `json:"kind"`
	ID        string         `json:"id"`
	CreatedAt string         `json:"createdAt"`
	Author    authorResponse `json:"author"`
	Content   string         `json:"content"`
}

// pageInfoResponse はページング情報のレスポンス。
type pageInfoResponse struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	HasNext bool `json:"hasNext"`
}

// feedResponse はフィード1ページ分のレスポンス。
type feedResponse struct {
	Items    []feedItemResponse `json:"items"`
	PageInfo pageInfoResponse   `json:"pageInfo"`
}

// GetFeed はフィードの1ページ分を取得する。
// GET /feed?page=&limit=
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	page, err := parseQueryInt(r, "page", 1)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidArgumentError("pageは整数で指定してください"))
		return
	}
	limit, err := parseQueryInt(r, "limit", feed.DefaultPageLimit)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidArgumentError("limitは整数で指定してください"))
		return
	}

	result, err := h.service.GetPage(r.Context(), page, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toFeedResponse(result))
}

// CreatePost は新規投稿を作成する。
// POST /feed
func (h *FeedHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	subject, err := middleware.SubjectFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, newUnauthorizedError())
		return
	}

	var req postContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	post, err := h.service.CreatePost(r.Context(), subject, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordPostCreated()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", r.URL.Path+"/"+post.ID)
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toFeedItemResponse(post))
}

// UpdatePost は投稿の本文を更新する。
// PUT /feed/{id}
func (h *FeedHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	subject, err := middleware.SubjectFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, newUnauthorizedError())
		return
	}

	postID := chi.URLParam(r, "id")

	var req postContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	post, err := h.service.UpdatePost(r.Context(), subject, postID, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toFeedItemResponse(post))
}

// DeletePost は投稿を削除する。
// DELETE /feed/{id}
func (h *FeedHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	subject, err := middleware.SubjectFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, newUnauthorizedError())
		return
	}

	postID := chi.URLParam(r, "id")

	if err := h.service.DeletePost(r.Context(), subject, postID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseQueryInt はクエリパラメータを整数として解析する。未指定時はデフォルト値を返す。
func parseQueryInt(r *http.Request, key string, defaultVal int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

// toFeedItemResponse は投稿モデルをレスポンスDTOに変換する。
func toFeedItemResponse(post *model.Post) feedItemResponse {
	return feedItemResponse{
		Kind:      post.Kind,
		ID:        post.ID,
		CreatedAt: post.CreatedAt.UTC().Format(time.RFC3339),
		Author: authorResponse{
			ID:          post.AuthorID,
			DisplayName: post.AuthorDisplayName,
		},
		Content: post.Content,
	}
}

// toFeedResponse はページ結果をレスポンスDTOに変換する。
func toFeedResponse(result *model.PageResult) feedResponse {
	items := make([]feedItemResponse, 0, len(result.Items))
	for _, post := range result.Items {
		items = append(items, toFeedItemResponse(post))
	}
	return feedResponse{
		Items: items,
		PageInfo: pageInfoResponse{
			Page:    result.Page,
			Limit:   result.Limit,
			HasNext: result.HasNext,
		},
	}
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidArgument, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeInvalidCredentials, model.ErrCodeInvalidToken, model.ErrCodeTokenExpired, model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodePostNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateEmail:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// newInvalidRequestError はリクエストボディ解析失敗のエラーを生成する。
func newInvalidRequestError() *model.APIError {
	return &model.APIError{
		Code:     model.ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// newUnauthorizedError は未認証エラーを生成する。
func newUnauthorizedError() *model.APIError {
	return &model.APIError{
		Code:     model.ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてトークンを取得してください。",
	}
}
