package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/socialwall/internal/model"
)

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// NewPostgresUserRepoが正しく初期化されることを検証
func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// ErrDuplicateEmailがerrors.Isで判別できるセンチネルであることを検証
func TestErrDuplicateEmail_IsSentinel(t *testing.T) {
	if !errors.Is(ErrDuplicateEmail, ErrDuplicateEmail) {
		t.Error("ErrDuplicateEmail should match itself with errors.Is")
	}
	if errors.Is(ErrDuplicateEmail, errors.New("email already exists")) {
		t.Error("ErrDuplicateEmail should not match a different error value")
	}
}

// Userモデルのフィールドが正しく構築されることを検証
func TestPostgresUserRepo_UserModel_Fields(t *testing.T) {
	now := time.Now().UTC()
	user := &model.User{
		ID:           "user-id-1",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$hash",
		CreatedAt:    now,
	}

	if user.ID != "user-id-1" {
		t.Errorf("user.ID = %q, want %q", user.ID, "user-id-1")
	}
	if user.Email != "alice@example.com" {
		t.Errorf("user.Email = %q, want %q", user.Email, "alice@example.com")
	}
	if user.PasswordHash != "$2a$10$hash" {
		t.Errorf("user.PasswordHash = %q, want %q", user.PasswordHash, "$2a$10$hash")
	}
	if !user.CreatedAt.Equal(now) {
		t.Errorf("user.CreatedAt = %v, want %v", user.CreatedAt, now)
	}
}
