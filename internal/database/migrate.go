// Package database はデータベース接続とマイグレーション管理を提供する。
package database

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationResult はマイグレーション実行前後のスキーマバージョン。
// 未適用のデータベースではFromは0。
type MigrationResult struct {
	From    uint
	To      uint
	Applied bool
}

// NewMigrator はusers/posts/エンゲージメントのスキーマを適用するmigrateインスタンスを生成する。
func NewMigrator(databaseURL string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return m, nil
}

// LatestVersion は埋め込まれたマイグレーションの最新バージョンを返す。
func LatestVersion() (uint, error) {
	files, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	if err != nil {
		return 0, err
	}

	var latest uint
	for _, f := range files {
		prefix, _, ok := strings.Cut(path.Base(f), "_")
		if !ok {
			return 0, fmt.Errorf("malformed migration file name: %s", f)
		}
		v, err := strconv.ParseUint(prefix, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("malformed migration version in %s: %w", f, err)
		}
		if uint(v) > latest {
			latest = uint(v)
		}
	}
	return latest, nil
}

// RunMigrations は未適用のマイグレーションをすべて適用し、前後のバージョンを返す。
// すでに最新の場合はApplied=falseでエラーなしに返る。
// 前回の適用が途中で失敗しdirtyになっている場合は適用せずにエラーを返す。
func RunMigrations(databaseURL string) (*MigrationResult, error) {
	m, err := NewMigrator(databaseURL)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	from, err := currentVersion(m)
	if err != nil {
		return nil, err
	}

	result := &MigrationResult{From: from, To: from}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return result, nil
		}
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	to, err := currentVersion(m)
	if err != nil {
		return nil, err
	}
	result.To = to
	result.Applied = to != from
	return result, nil
}

func currentVersion(m *migrate.Migrate) (uint, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return 0, fmt.Errorf("schema version %d is dirty; fix it manually before migrating", v)
	}
	return v, nil
}
