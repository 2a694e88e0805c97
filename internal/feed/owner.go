// Package feed はフィード投稿の取得・作成・所有者判定付き変更を提供する。
package feed

import (
	"github.com/google/uuid"

	"github.com/hitoshi/socialwall/internal/model"
)

// authorNamespace はauthor_id導出用の固定名前空間UUID。
// この値を変更すると既存投稿の所有者判定が全て壊れるため、変更してはならない。
var authorNamespace = uuid.MustParse("7a1c9f04-3e52-4b8d-9c6a-d02f81e5b7c3")

// DeriveAuthorID は認証subjectから投稿の所有者IDを決定的に導出する。
// SHA-1名前ベースUUID（バージョン5）を使用する純粋関数で、
// 同一subjectは常に同一IDになる。ストア参照なしで所有者判定ができるのは
// この導出がトークンのsubjectだけから再計算可能なため。
func DeriveAuthorID(subject string) string {
	return uuid.NewSHA1(authorNamespace, []byte(subject)).String()
}

// AuthorizeMutation は呼び出し元subjectが投稿の所有者であることを検証する。
// 導出IDとauthor_idが一致しない場合はForbiddenエラーを返す。
// 投稿の存在確認は呼び出し側が先に行うこと（404と403を区別するため）。
func AuthorizeMutation(subject, authorID string) error {
	if DeriveAuthorID(subject) != authorID {
		return model.NewForbiddenError()
	}
	return nil
}
