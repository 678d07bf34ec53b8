// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/minilink/internal/model"
)

// ストア層が返すエラー種別。
// サービス層はドライバ固有のエラーを調べず、これらのみで分岐する。
var (
	// ErrNotFound は対象レコードが存在しないことを示す。
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail はメールアドレスの一意制約違反を示す。
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository はユーザー（アイデンティティ）データの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。メールアドレスが重複する場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は正規化済みメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// UpdateProfile は名前・自己紹介を部分更新し、更新後のユーザーを返す。
	// ユーザーが存在しない場合はErrNotFoundを返す。
	UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error)

	// SearchByName は名前に部分一致（大文字小文字を区別しない）するユーザーを名前昇順で返す。
	SearchByName(ctx context.Context, query string, limit int) ([]*model.User, error)
}

// PostRepository は投稿といいね・コメントの永続化インターフェース。
// いいねとコメントの変更は投稿単位で原子的に行う。
type PostRepository interface {
	// Create は投稿を作成する。
	Create(ctx context.Context, post *model.Post) error

	// FindByID は投稿を全コメント付きで取得する。見つからない場合はnilを返す。
	// viewerIDが空でなければLikedByViewerを設定する。
	FindByID(ctx context.Context, id, viewerID string) (*model.Post, error)

	// ListFeed は作成日時降順でoffsetからlimit件の投稿を返す。
	// 各投稿のCommentsには作成順で先頭previewSize件のみを含める。
	ListFeed(ctx context.Context, viewerID string, offset, limit, previewSize int) ([]model.Post, error)

	// Count は全投稿数を返す。
	Count(ctx context.Context) (int, error)

	// ListByAuthor は指定ユーザーの投稿を作成日時降順で最大limit件返す。コメントは含めない。
	ListByAuthor(ctx context.Context, authorID, viewerID string, limit int) ([]model.Post, error)

	// ToggleLike は投稿へのactorIDのいいねを反転する。
	// 投稿が存在しない場合はErrNotFoundを返す。
	ToggleLike(ctx context.Context, postID, actorID string) (*model.LikeResult, error)

	// AddComment はコメントを投稿の末尾に追加する。
	// 投稿が存在しない場合はErrNotFoundを返す。
	AddComment(ctx context.Context, comment *model.Comment) (*model.CommentResult, error)

	// DeleteByAuthor は投稿者がauthorIDである投稿を削除する。
	// いいね・コメントも同時に削除される。該当する投稿が無い場合はErrNotFoundを返す。
	DeleteByAuthor(ctx context.Context, postID, authorID string) error
}
