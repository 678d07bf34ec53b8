package seed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Resetter はシード投入前に既存データを全削除する。
type Resetter interface {
	Reset(ctx context.Context) error
}

// ResetFunc は関数をResetterとして扱うアダプタ。
type ResetFunc func(ctx context.Context) error

func (f ResetFunc) Reset(ctx context.Context) error { return f(ctx) }

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// truncateQuery は全テーブルを空にする。外部キーの参照元から順に列挙する。
const truncateQuery = `TRUNCATE TABLE post_comments, post_likes, posts, users`

// PostgresResetter はPostgreSQLの全テーブルをTRUNCATEする。
type PostgresResetter struct {
	db     Executor
	logger *slog.Logger
}

// NewPostgresResetter は新しいPostgresResetterを生成する。
func NewPostgresResetter(db Executor, logger *slog.Logger) *PostgresResetter {
	return &PostgresResetter{db: db, logger: logger}
}

// Reset はユーザー・投稿・いいね・コメントをすべて削除する。
// 冪等: 空のテーブルに対して実行してもエラーにならない。
func (r *PostgresResetter) Reset(ctx context.Context) error {
	start := time.Now()

	if _, err := r.db.ExecContext(ctx, truncateQuery); err != nil {
		r.logger.Error("failed to clear existing data", slog.String("error", err.Error()))
		return fmt.Errorf("failed to truncate tables: %w", err)
	}

	r.logger.Info("cleared existing data",
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}
