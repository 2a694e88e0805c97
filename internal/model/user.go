// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// メールアドレスはDBのユニーク制約で一意性が保証される。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// AuthenticatedUser は認証に成功したユーザーを表す。
// Subjectはトークンのsubjectクレームに埋め込まれる識別子（メールアドレス）。
type AuthenticatedUser struct {
	Subject string
	Roles   []string
}

// RoleUser は全ユーザーに付与される固定ロール。
const RoleUser = "USER"
