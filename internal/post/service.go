// Package post は投稿・フィード・いいね・コメントのドメインロジックを提供する。
package post

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/minilink/internal/metrics"
	"github.com/hitoshi/minilink/internal/model"
	"github.com/hitoshi/minilink/internal/repository"
	"github.com/hitoshi/minilink/internal/security"
	"github.com/hitoshi/minilink/internal/validation"
)

// フィードのページングの既定値。
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// CreateInput は投稿作成の入力。
type CreateInput struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// CommentInput はコメント追加の入力。
type CommentInput struct {
	Content string `json:"content" validate:"required,max=500"`
}

// ServiceConfig は投稿サービスの設定。
type ServiceConfig struct {
	FeedMaxLimit int // フィード1ページあたりの最大件数
}

// Service は投稿に関するビジネスロジックを提供する。
type Service struct {
	postRepo  repository.PostRepository
	validator *validation.Validator
	sanitizer security.TextSanitizer
	metrics   metrics.MetricsCollector
	config    ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	postRepo repository.PostRepository,
	validator *validation.Validator,
	sanitizer security.TextSanitizer,
	collector metrics.MetricsCollector,
	config ServiceConfig,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		postRepo:  postRepo,
		validator: validator,
		sanitizer: sanitizer,
		metrics:   collector,
		config:    config,
	}
}

// ParsePageParams はクエリ文字列のpage/limitを解釈する。
// 数値でない値や1未満の値は既定値（1/10）とし、limitはmaxLimitで頭打ちにする。
func ParsePageParams(pageStr, limitStr string, maxLimit int) (page, limit int) {
	page = parsePositive(pageStr, DefaultPage)
	limit = parsePositive(limitStr, DefaultLimit)
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func parsePositive(s string, defaultVal int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return defaultVal
	}
	return n
}

// Create は呼び出し元を投稿者として投稿を作成する。
func (s *Service) Create(ctx context.Context, actorID string, in CreateInput) (*model.Post, error) {
	in.Content = s.sanitizer.Sanitize(in.Content)
	if fields := s.validator.Struct(in); fields != nil {
		return nil, model.NewValidationError(fields...)
	}

	post := &model.Post{
		ID:        uuid.New().String(),
		AuthorID:  actorID,
		Content:   in.Content,
		CreatedAt: time.Now(),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	// 投稿者情報を付けて返すため読み直す
	created, err := s.postRepo.FindByID(ctx, post.ID, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload post: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("post %s vanished after create", post.ID)
	}

	s.metrics.RecordPostCreated()
	slog.Info("post created",
		slog.String("post_id", created.ID),
		slog.String("user_id", actorID),
	)
	return created, nil
}

// Feed は全投稿を作成日時降順でページングして返す。
// 各投稿のコメントは先頭3件のみを含むが、件数は全件を数える。
func (s *Service) Feed(ctx context.Context, viewerID string, page, limit int) (*model.FeedPage, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if s.config.FeedMaxLimit > 0 && limit > s.config.FeedMaxLimit {
		limit = s.config.FeedMaxLimit
	}

	total, err := s.postRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	pagination := model.NewPagination(page, limit, total)

	// 最終ページより後ろは空。page <= totalPages ならoffsetはtotal未満に収まる
	if page > pagination.TotalPages {
		return &model.FeedPage{Posts: []model.Post{}, Pagination: pagination}, nil
	}

	posts, err := s.postRepo.ListFeed(ctx, viewerID, (page-1)*limit, limit, model.FeedCommentPreviewSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed: %w", err)
	}

	return &model.FeedPage{
		Posts:      posts,
		Pagination: pagination,
	}, nil
}

// Get は投稿を全コメント付きで返す。
func (s *Service) Get(ctx context.Context, postID, viewerID string) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, postID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError()
	}
	return post, nil
}

// ToggleLike は呼び出し元のいいねを反転する。
func (s *Service) ToggleLike(ctx context.Context, postID, actorID string) (*model.LikeResult, error) {
	result, err := s.postRepo.ToggleLike(ctx, postID, actorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, model.NewPostNotFoundError()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to toggle like: %w", err)
	}

	s.metrics.RecordLikeToggled(result.Liked)
	return result, nil
}

// AddComment は投稿の末尾にコメントを追加する。
func (s *Service) AddComment(ctx context.Context, postID, actorID string, in CommentInput) (*model.CommentResult, error) {
	in.Content = s.sanitizer.Sanitize(in.Content)
	if fields := s.validator.Struct(in); fields != nil {
		return nil, model.NewValidationError(fields...)
	}

	result, err := s.postRepo.AddComment(ctx, &model.Comment{
		ID:        uuid.New().String(),
		PostID:    postID,
		UserID:    actorID,
		Content:   in.Content,
		CreatedAt: time.Now(),
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, model.NewPostNotFoundError()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	s.metrics.RecordCommentAdded()
	return result, nil
}

// Delete は投稿を削除する。投稿者本人以外はForbiddenになる。
// いいね・コメントも同時に削除される。
func (s *Service) Delete(ctx context.Context, postID, actorID string) error {
	post, err := s.postRepo.FindByID(ctx, postID, "")
	if err != nil {
		return fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil {
		return model.NewPostNotFoundError()
	}
	if post.AuthorID != actorID {
		return model.NewForbiddenError("Not authorized to delete this post")
	}

	// 確認後に他のリクエストで削除された場合もNotFoundとして扱う
	if err := s.postRepo.DeleteByAuthor(ctx, postID, actorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewPostNotFoundError()
		}
		return fmt.Errorf("failed to delete post: %w", err)
	}

	s.metrics.RecordPostDeleted()
	slog.Info("post deleted",
		slog.String("post_id", postID),
		slog.String("user_id", actorID),
	)
	return nil
}
