// Package model はドメインモデルを定義する。
package model

import "time"

// PostKind は投稿種別を表すタグ。現状は"post"のみ。
const PostKind = "post"

// Post はフィード投稿を表す。
// AuthorIDは認証subjectから決定的に導出され、作成後は変更されない。
type Post struct {
	ID                string
	CreatedAt         time.Time
	AuthorID          string
	AuthorDisplayName string
	Content           string
	Kind              string
}

// PageResult はフィードの1ページ分の取得結果を表す。
// 永続化されず、リクエストごとに計算される。
type PageResult struct {
	Items   []*Post
	Page    int
	Limit   int
	HasNext bool
}
