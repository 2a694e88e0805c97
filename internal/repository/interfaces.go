// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/socialwall/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
// emailの一意性はストア側のユニーク制約で保証される。
type UserRepository interface {
	// ExistsByEmail は指定メールアドレスのユーザーが存在するかを返す。
	// 登録時の高速パス確認用。一意性の保証はCreateのユニーク制約が担う。
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// メールアドレスのユニーク制約違反の場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error
}

// PostRepository はフィード投稿の永続化インターフェース。
type PostRepository interface {
	// Create は投稿を作成する。
	Create(ctx context.Context, post *model.Post) error

	// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Post, error)

	// UpdateContent は投稿の本文のみを更新する。所有者・作成日時は変更しない。
	UpdateContent(ctx context.Context, id, content string) error

	// Delete は指定IDの投稿を削除する。
	Delete(ctx context.Context, id string) error

	// ListPage は作成日時の新しい順で投稿を取得する。
	// offsetから最大limit件返す。呼び出し側はlimit+1件要求して
	// 次ページの有無を判定できる（COUNTクエリを避けるため）。
	ListPage(ctx context.Context, offset, limit int) ([]*model.Post, error)
}
