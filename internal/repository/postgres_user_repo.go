package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hitoshi/minilink/internal/model"
	"github.com/lib/pq"
)

// uniqueViolation はPostgreSQLの一意制約違反を表すSQLSTATE。
const uniqueViolation = pq.ErrorCode("23505")

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, name, email, password_hash, bio, join_date, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.Bio, &user.JoinDate, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create はユーザーを作成する。メールアドレスが重複する場合はErrDuplicateEmailを返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, bio, join_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Name, user.Email, user.PasswordHash,
		user.Bio, user.JoinDate, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
// UUID形式でないIDは存在しないものとして扱う。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if !isValidID(id) {
		return nil, nil
	}

	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail は正規化済みメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// UpdateProfile は名前・自己紹介を部分更新し、更新後のユーザーを返す。
// nilのフィールドはCOALESCEにより既存値を維持する。
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error) {
	if !isValidID(id) {
		return nil, ErrNotFound
	}

	var name, bio sql.NullString
	if update.Name != nil {
		name = sql.NullString{String: *update.Name, Valid: true}
	}
	if update.Bio != nil {
		bio = sql.NullString{String: *update.Bio, Valid: true}
	}

	user, err := scanUser(r.db.QueryRowContext(ctx,
		`UPDATE users SET
		    name = COALESCE($2, name),
		    bio = COALESCE($3, bio),
		    updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, name, bio,
	))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// SearchByName は名前に部分一致（大文字小文字を区別しない）するユーザーを名前昇順で返す。
// クエリ中のワイルドカード文字はエスケープしてリテラルとして扱う。
func (r *PostgresUserRepo) SearchByName(ctx context.Context, query string, limit int) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE name ILIKE '%' || $1 || '%' ESCAPE '\'
		 ORDER BY name ASC, id ASC
		 LIMIT $2`,
		escapeLike(query), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}
	return users, nil
}

// escapeLike はLIKEパターンの特殊文字をエスケープする。
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// isValidID はIDがUUID形式かどうかを返す。
func isValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
