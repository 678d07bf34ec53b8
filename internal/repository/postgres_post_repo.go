package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/minilink/internal/model"
	"github.com/lib/pq"
)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
// いいねはpost_likes、コメントはpost_commentsに正規化して保持し、
// 投稿単位の変更はトランザクション内で投稿行をロックして行う。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// postSelect は投稿・投稿者・件数・閲覧者のいいね有無を取得するSELECT句。
// $1は閲覧者のユーザーID（NULL可）。
const postSelect = `SELECT p.id, p.author_id, p.content, p.created_at,
       u.name, u.email, u.bio,
       (SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id),
       (SELECT COUNT(*) FROM post_comments c WHERE c.post_id = p.id),
       EXISTS (SELECT 1 FROM post_likes l WHERE l.post_id = p.id AND l.user_id = $1)
  FROM posts p
  JOIN users u ON u.id = p.author_id`

func scanPost(row interface{ Scan(...any) error }) (model.Post, error) {
	var p model.Post
	err := row.Scan(
		&p.ID, &p.AuthorID, &p.Content, &p.CreatedAt,
		&p.Author.Name, &p.Author.Email, &p.Author.Bio,
		&p.LikesCount, &p.CommentsCount, &p.LikedByViewer,
	)
	p.Author.ID = p.AuthorID
	return p, err
}

// Create は投稿を作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, content, created_at) VALUES ($1, $2, $3, $4)`,
		post.ID, post.AuthorID, post.Content, post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// FindByID は投稿を全コメント付きで取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id, viewerID string) (*model.Post, error) {
	if !isValidID(id) {
		return nil, nil
	}

	post, err := scanPost(r.db.QueryRowContext(ctx,
		postSelect+` WHERE p.id = $2`,
		nullableID(viewerID), id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post by ID: %w", err)
	}

	comments, err := r.listComments(ctx, []string{post.ID}, 0)
	if err != nil {
		return nil, err
	}
	post.Comments = comments[post.ID]
	if post.Comments == nil {
		post.Comments = []model.Comment{}
	}
	return &post, nil
}

// ListFeed は作成日時降順でoffsetからlimit件の投稿を返す。
// 同一時刻の投稿はIDの降順で並べ、ページ間で順序が揺れないようにする。
func (r *PostgresPostRepo) ListFeed(ctx context.Context, viewerID string, offset, limit, previewSize int) ([]model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		postSelect+` ORDER BY p.created_at DESC, p.id DESC LIMIT $2 OFFSET $3`,
		nullableID(viewerID), limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed: %w", err)
	}
	posts, err := collectPosts(rows)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}

	ids := make([]string, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	previews, err := r.listComments(ctx, ids, previewSize)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Comments = previews[posts[i].ID]
		if posts[i].Comments == nil {
			posts[i].Comments = []model.Comment{}
		}
	}
	return posts, nil
}

// Count は全投稿数を返す。
func (r *PostgresPostRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// ListByAuthor は指定ユーザーの投稿を作成日時降順で最大limit件返す。
func (r *PostgresPostRepo) ListByAuthor(ctx context.Context, authorID, viewerID string, limit int) ([]model.Post, error) {
	if !isValidID(authorID) {
		return []model.Post{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		postSelect+` WHERE p.author_id = $2 ORDER BY p.created_at DESC, p.id DESC LIMIT $3`,
		nullableID(viewerID), authorID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by author: %w", err)
	}
	return collectPosts(rows)
}

// ToggleLike は投稿へのactorIDのいいねを反転する。
// 投稿行をFOR UPDATEでロックし、同一投稿への並行トグルを直列化する。
func (r *PostgresPostRepo) ToggleLike(ctx context.Context, postID, actorID string) (*model.LikeResult, error) {
	if !isValidID(postID) {
		return nil, ErrNotFound
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockPost(ctx, tx, postID, "FOR UPDATE"); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`,
		postID, actorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to delete like: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	liked := false
	if removed == 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO post_likes (post_id, user_id, created_at) VALUES ($1, $2, NOW())
			 ON CONFLICT (post_id, user_id) DO NOTHING`,
			postID, actorID,
		); err != nil {
			return nil, fmt.Errorf("failed to insert like: %w", err)
		}
		liked = true
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM post_likes WHERE post_id = $1`, postID,
	).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &model.LikeResult{Liked: liked, LikesCount: count}, nil
}

// AddComment はコメントを投稿の末尾に追加する。
// 順序はpost_comments.seq（シーケンス採番）で保証する。
func (r *PostgresPostRepo) AddComment(ctx context.Context, comment *model.Comment) (*model.CommentResult, error) {
	if !isValidID(comment.PostID) {
		return nil, ErrNotFound
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 削除との競合を防ぐため共有ロックを取る。コメント同士は並行に追加できる。
	if err := lockPost(ctx, tx, comment.PostID, "FOR SHARE"); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO post_comments (id, post_id, user_id, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		comment.ID, comment.PostID, comment.UserID, comment.Content, comment.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}

	saved := *comment
	saved.User.ID = comment.UserID
	if err := tx.QueryRowContext(ctx,
		`SELECT name, email, bio FROM users WHERE id = $1`, comment.UserID,
	).Scan(&saved.User.Name, &saved.User.Email, &saved.User.Bio); err != nil {
		return nil, fmt.Errorf("failed to load commenter: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM post_comments WHERE post_id = $1`, comment.PostID,
	).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &model.CommentResult{Comment: saved, CommentsCount: count}, nil
}

// DeleteByAuthor は投稿者がauthorIDである投稿を削除する。
// post_likes、post_commentsはCASCADE削除される。
func (r *PostgresPostRepo) DeleteByAuthor(ctx context.Context, postID, authorID string) error {
	if !isValidID(postID) {
		return ErrNotFound
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE id = $1 AND author_id = $2`,
		postID, authorID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// listComments は指定投稿群のコメントを作成順で取得し、投稿IDごとにまとめて返す。
// limitPerPostが0より大きい場合は各投稿の先頭limitPerPost件に絞る。
func (r *PostgresPostRepo) listComments(ctx context.Context, postIDs []string, limitPerPost int) (map[string][]model.Comment, error) {
	query := `SELECT id, post_id, user_id, content, created_at, name, email, bio FROM (
		SELECT c.id, c.post_id, c.user_id, c.content, c.created_at, c.seq,
		       u.name, u.email, u.bio,
		       ROW_NUMBER() OVER (PARTITION BY c.post_id ORDER BY c.seq ASC) AS rn
		  FROM post_comments c
		  JOIN users u ON u.id = c.user_id
		 WHERE c.post_id = ANY($1)
	) ranked`
	args := []any{pq.Array(postIDs)}
	if limitPerPost > 0 {
		query += ` WHERE rn <= $2`
		args = append(args, limitPerPost)
	}
	query += ` ORDER BY post_id, seq ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	byPost := make(map[string][]model.Comment, len(postIDs))
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(
			&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt,
			&c.User.Name, &c.User.Email, &c.User.Bio,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comment row: %w", err)
		}
		c.User.ID = c.UserID
		byPost[c.PostID] = append(byPost[c.PostID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comment rows: %w", err)
	}
	return byPost, nil
}

// lockPost は投稿行をロックする。投稿が存在しない場合はErrNotFoundを返す。
func lockPost(ctx context.Context, tx *sql.Tx, postID, lockClause string) error {
	var id string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM posts WHERE id = $1 `+lockClause, postID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock post: %w", err)
	}
	return nil
}

func collectPosts(rows *sql.Rows) ([]model.Post, error) {
	defer rows.Close()

	posts := make([]model.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate post rows: %w", err)
	}
	return posts, nil
}

// nullableID は閲覧者IDをクエリパラメータに変換する。UUIDでなければNULLにする。
func nullableID(id string) any {
	if !isValidID(id) {
		return nil
	}
	return id
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
