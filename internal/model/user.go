// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービスに登録されたユーザー（アイデンティティ）を表す。
// PasswordHashはレスポンスへ射影する際に必ず除外すること。
type User struct {
	ID           string
	Name         string
	Email        string // 小文字に正規化済み
	PasswordHash string
	Bio          string
	JoinDate     time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileUpdate はプロフィールの部分更新内容を表す。
// nilのフィールドは変更しない。
type ProfileUpdate struct {
	Name *string
	Bio  *string
}

// IsEmpty は更新対象のフィールドが1つもない場合にtrueを返す。
func (u ProfileUpdate) IsEmpty() bool {
	return u.Name == nil && u.Bio == nil
}

// ユーザー属性の制約。
const (
	UserNameMinLength = 2
	UserNameMaxLength = 50
	UserBioMaxLength  = 500
	PasswordMinLength = 6
	PasswordMaxLength = 72 // bcryptが扱える最大バイト数
	SearchQueryMinLen = 2
	SearchResultLimit = 10
)

// Profile はユーザーのプロフィールと最近の投稿。
type Profile struct {
	User       *User
	Posts      []Post
	PostsCount int
}
