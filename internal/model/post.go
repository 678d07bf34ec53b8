// Package model はドメインモデルを定義する。
package model

import "time"

// 投稿・コメントの制約。
const (
	PostContentMaxLength    = 1000
	CommentContentMaxLength = 500
	FeedCommentPreviewSize  = 3
	AuthorPostsLimit        = 20
)

// UserRef は投稿者・コメント投稿者として埋め込まれる公開ユーザー情報。
type UserRef struct {
	ID    string
	Name  string
	Email string
	Bio   string
}

// Post はユーザーが投稿した短いテキストを表す。
// いいねとコメントは投稿に従属し、投稿削除時に一緒に削除される。
type Post struct {
	ID            string
	AuthorID      string
	Author        UserRef
	Content       string
	CreatedAt     time.Time
	LikesCount    int
	CommentsCount int
	// Comments は作成順に並んだコメント。フィードではプレビュー分のみを保持する。
	Comments []Comment
	// LikedByViewer は閲覧者がいいね済みかどうか。閲覧者不明の場合はfalse。
	LikedByViewer bool
}

// Comment は投稿に付けられたコメントを表す。
type Comment struct {
	ID        string
	PostID    string
	UserID    string
	User      UserRef
	Content   string
	CreatedAt time.Time
}

// LikeResult はいいねトグルの結果。
type LikeResult struct {
	Liked      bool
	LikesCount int
}

// CommentResult はコメント追加の結果。
type CommentResult struct {
	Comment       Comment
	CommentsCount int
}

// Pagination はフィードのページング情報。
type Pagination struct {
	CurrentPage int
	TotalPages  int
	TotalPosts  int
	HasNext     bool
	HasPrev     bool
}

// NewPagination はページ番号・件数・総投稿数からページング情報を算出する。
func NewPagination(page, limit, totalPosts int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (totalPosts + limit - 1) / limit
	}
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalPosts:  totalPosts,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// FeedPage はフィード1ページ分の投稿とページング情報。
type FeedPage struct {
	Posts      []Post
	Pagination Pagination
}
