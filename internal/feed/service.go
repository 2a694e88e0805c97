package feed

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/socialwall/internal/model"
	"github.com/hitoshi/socialwall/internal/repository"
)

// ContentMaxLength は投稿本文の最大文字数。
const ContentMaxLength = 1000

// DefaultPageLimit はlimit未指定時の1ページあたりの件数。
const DefaultPageLimit = 10

// ContentSanitizer は投稿本文のサニタイズに必要なインターフェース。
// security.ContentSanitizerServiceの部分集合として定義する。
type ContentSanitizer interface {
	Sanitize(raw string) string
}

// ServiceConfig はフィードサービスの設定。
type ServiceConfig struct {
	// MaxPageSize は1ページあたりの最大件数。これを超えるlimitはこの値に丸める。
	MaxPageSize int
}

// Service はフィード投稿に関するビジネスロジックを提供する。
type Service struct {
	postRepo  repository.PostRepository
	sanitizer ContentSanitizer
	config    ServiceConfig
}

// NewService はServiceを生成する。
func NewService(postRepo repository.PostRepository, sanitizer ContentSanitizer, config ServiceConfig) *Service {
	if config.MaxPageSize < 1 {
		config.MaxPageSize = 50
	}
	return &Service{
		postRepo:  postRepo,
		sanitizer: sanitizer,
		config:    config,
	}
}

// GetPage はフィードの1ページ分を新しい順で取得する。
// page < 1 と limit < 1 は黙って丸めずInvalidArgumentで拒否する。
// limitが上限を超える場合のみ上限に丸める。
// 次ページの有無はlimit+1件取得して余剰行の有無で判定する（COUNTクエリを回避）。
func (s *Service) GetPage(ctx context.Context, page, limit int) (*model.PageResult, error) {
	if page < 1 {
		return nil, model.NewInvalidArgumentError("pageは1以上を指定してください")
	}
	if limit < 1 {
		return nil, model.NewInvalidArgumentError("limitは1以上を指定してください")
	}
	if limit > s.config.MaxPageSize {
		limit = s.config.MaxPageSize
	}

	offset := (page - 1) * limit
	rows, err := s.postRepo.ListPage(ctx, offset, limit+1)
	if err != nil {
		return nil, fmt.Errorf("failed to get feed page: %w", err)
	}

	hasNext := len(rows) > limit
	if hasNext {
		rows = rows[:limit]
	}

	return &model.PageResult{
		Items:   rows,
		Page:    page,
		Limit:   limit,
		HasNext: hasNext,
	}, nil
}

// CreatePost は新規投稿を作成する。
// 所有者IDは認証subjectから導出して割り当てるため、作成パスに所有者判定は不要。
func (s *Service) CreatePost(ctx context.Context, subject, content string) (*model.Post, error) {
	clean, err := s.normalizeContent(content)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		ID:                uuid.New().String(),
		CreatedAt:         time.Now().UTC(),
		AuthorID:          DeriveAuthorID(subject),
		AuthorDisplayName: subject,
		Content:           clean,
		Kind:              model.PostKind,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return post, nil
}

// UpdatePost は投稿の本文を更新する。
// 存在確認を所有者判定より先に行い、404と403を区別して返す。
// 本文以外（所有者・作成日時・種別）は変更されない。
func (s *Service) UpdatePost(ctx context.Context, subject, postID, content string) (*model.Post, error) {
	clean, err := s.normalizeContent(content)
	if err != nil {
		return nil, err
	}

	existing, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if existing == nil {
		return nil, model.NewPostNotFoundError(postID)
	}

	if err := AuthorizeMutation(subject, existing.AuthorID); err != nil {
		return nil, err
	}

	if err := s.postRepo.UpdateContent(ctx, postID, clean); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	existing.Content = clean
	return existing, nil
}

// DeletePost は投稿を削除する。
// UpdatePost同様、存在確認が所有者判定に先行する。
func (s *Service) DeletePost(ctx context.Context, subject, postID string) error {
	existing, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to find post: %w", err)
	}
	if existing == nil {
		return model.NewPostNotFoundError(postID)
	}

	if err := AuthorizeMutation(subject, existing.AuthorID); err != nil {
		return err
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	return nil
}

// normalizeContent は投稿本文をサニタイズし、制約を検証する。
func (s *Service) normalizeContent(content string) (string, error) {
	clean := strings.TrimSpace(s.sanitizer.Sanitize(content))
	if clean == "" {
		return "", model.NewInvalidArgumentError("本文が空です")
	}
	if utf8.RuneCountInString(clean) > ContentMaxLength {
		return "", model.NewInvalidArgumentError(
			fmt.Sprintf("本文は%d文字以下にしてください", ContentMaxLength))
	}
	return clean, nil
}
