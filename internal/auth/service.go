package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/socialwall/internal/model"
	"github.com/hitoshi/socialwall/internal/repository"
)

// パスワード長の制約。
// 上限はbcryptが受け付ける72バイトに合わせる。これを超えて受理すると
// ハッシュ化の段階で失敗し、クライアント起因の入力が内部エラーとして返ってしまう。
const (
	passwordMinLength = 6
	passwordMaxLength = 72
)

// emailPattern はメールアドレスの簡易検証パターン。
// 厳密なRFC検証ではなく、明らかに不正な入力を弾くことが目的。
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Service はユーザー登録と認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, hasher PasswordHasher) *Service {
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
	}
}

// Register は新規ユーザーを登録する。
// 存在確認は高速パスの最適化であり、一意性の保証はストアのユニーク制約が担う。
// 同時登録の敗者にはユニーク制約違反経由でDuplicateEmailエラーを返す。
func (s *Service) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	// 高速パス: 既存メールアドレスを先に確認する
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, model.NewDuplicateEmailError()
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// 存在確認とINSERTは原子的でないため、競合の敗者はここに到達する
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewDuplicateEmailError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// Authenticate はメールアドレスとパスワードを検証する。
// ユーザー不在とパスワード不一致は同一のエラーにまとめる（アカウント列挙対策）。
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.AuthenticatedUser, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, model.NewInvalidCredentialsError()
	}

	return &model.AuthenticatedUser{
		Subject: user.Email,
		Roles:   []string{model.RoleUser},
	}, nil
}

// FindUser はsubject（メールアドレス）からユーザーを取得する。
// 見つからない場合はUserNotFoundエラーを返す。
func (s *Service) FindUser(ctx context.Context, subject string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by subject: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// validateEmail はメールアドレスの形式を検証する。
func validateEmail(email string) error {
	if email == "" {
		return model.NewInvalidArgumentError("メールアドレスが空です")
	}
	if len(email) > 255 || !emailPattern.MatchString(email) {
		return model.NewInvalidArgumentError("メールアドレスの形式が不正です")
	}
	return nil
}

// validatePassword はパスワードの長さ制約を検証する。
func validatePassword(password string) error {
	if len(password) < passwordMinLength {
		return model.NewInvalidArgumentError(
			fmt.Sprintf("パスワードは%d文字以上にしてください", passwordMinLength))
	}
	if len(password) > passwordMaxLength {
		return model.NewInvalidArgumentError(
			fmt.Sprintf("パスワードは%dバイト以下にしてください", passwordMaxLength))
	}
	return nil
}
