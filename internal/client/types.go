package client

import (
	"fmt"
	"net/http"
	"time"
)

// User はAPIが返すユーザー情報。
type User struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Bio      string    `json:"bio"`
	JoinDate time.Time `json:"joinDate"`
}

// UserRef は投稿・コメントに埋め込まれるユーザー情報。
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Bio   string `json:"bio,omitempty"`
}

type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	User      UserRef   `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

// Post は投稿。Likedは現在のトークンのユーザーがいいね済みかどうか。
type Post struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	Author        UserRef   `json:"author"`
	LikesCount    int       `json:"likesCount"`
	CommentsCount int       `json:"commentsCount"`
	Comments      []Comment `json:"comments"`
	Liked         bool      `json:"liked"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalPosts  int  `json:"totalPosts"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

// FeedPage はフィードの1ページ分。
type FeedPage struct {
	Posts      []Post     `json:"posts"`
	Pagination Pagination `json:"pagination"`
}

// Profile はプロフィール画面の内容。
type Profile struct {
	User       User   `json:"user"`
	Posts      []Post `json:"posts"`
	PostsCount int    `json:"postsCount"`
}

type LikeResult struct {
	Message    string `json:"message"`
	Liked      bool   `json:"liked"`
	LikesCount int    `json:"likesCount"`
}

type CommentResult struct {
	Message       string  `json:"message"`
	Comment       Comment `json:"comment"`
	CommentsCount int     `json:"commentsCount"`
}

// Health はヘルスチェックの結果。
type Health struct {
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
	Database    string    `json:"database"`
}

// RegisterRequest はユーザー登録のリクエスト。
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Bio      string `json:"bio,omitempty"`
}

// ProfileUpdate はプロフィール更新のリクエスト。nilのフィールドは送信しない。
type ProfileUpdate struct {
	Name *string `json:"name,omitempty"`
	Bio  *string `json:"bio,omitempty"`
}

type authResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

// FieldError はバリデーションエラーのフィールド単位の詳細。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error はAPIが返したエラーレスポンス。
type Error struct {
	StatusCode int          `json:"-"`
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	Category   string       `json:"category"`
	Action     string       `json:"action"`
	Errors     []FieldError `json:"errors,omitempty"`
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsUnauthorized は認証エラーかどうかを返す。
func (e *Error) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}
