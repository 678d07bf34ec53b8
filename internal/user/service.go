// Package user はプロフィールの参照・更新とユーザー検索を提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/minilink/internal/model"
	"github.com/hitoshi/minilink/internal/repository"
	"github.com/hitoshi/minilink/internal/security"
	"github.com/hitoshi/minilink/internal/validation"
)

// UpdateProfileInput はプロフィール更新の入力。nilのフィールドは変更しない。
type UpdateProfileInput struct {
	Name *string `json:"name"`
	Bio  *string `json:"bio"`
}

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo  repository.UserRepository
	postRepo  repository.PostRepository
	validator *validation.Validator
	sanitizer security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	validator *validation.Validator,
	sanitizer security.TextSanitizer,
) *Service {
	return &Service{
		userRepo:  userRepo,
		postRepo:  postRepo,
		validator: validator,
		sanitizer: sanitizer,
	}
}

// GetProfile はユーザーと、その最近の投稿（最大20件、作成日時降順）を返す。
// viewerIDが空でなければ各投稿に閲覧者のいいね有無を設定する。
func (s *Service) GetProfile(ctx context.Context, userID, viewerID string) (*model.Profile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	posts, err := s.postRepo.ListByAuthor(ctx, user.ID, viewerID, model.AuthorPostsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by author: %w", err)
	}

	return &model.Profile{
		User:       user,
		Posts:      posts,
		PostsCount: len(posts),
	}, nil
}

// UpdateProfile は呼び出し元自身のプロフィールを部分更新する。
// 指定されたフィールドのみを検証・更新し、何も指定されなければ現在の値を返す。
func (s *Service) UpdateProfile(ctx context.Context, actorID string, in UpdateProfileInput) (*model.User, error) {
	var update model.ProfileUpdate
	var fields []model.FieldError

	if in.Name != nil {
		name := s.sanitizer.Sanitize(*in.Name)
		if fe := s.validator.Var("name", name, "required,min=2,max=50"); fe != nil {
			fields = append(fields, *fe)
		}
		update.Name = &name
	}
	if in.Bio != nil {
		bio := s.sanitizer.Sanitize(*in.Bio)
		if fe := s.validator.Var("bio", bio, "max=500"); fe != nil {
			fields = append(fields, *fe)
		}
		update.Bio = &bio
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(fields...)
	}

	if update.IsEmpty() {
		user, err := s.userRepo.FindByID(ctx, actorID)
		if err != nil {
			return nil, fmt.Errorf("failed to find user: %w", err)
		}
		if user == nil {
			return nil, model.NewUserNotFoundError()
		}
		return user, nil
	}

	user, err := s.userRepo.UpdateProfile(ctx, actorID, update)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, model.NewUserNotFoundError()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	slog.Info("profile updated",
		slog.String("user_id", actorID),
		slog.Bool("name_changed", update.Name != nil),
		slog.Bool("bio_changed", update.Bio != nil),
	)
	return user, nil
}

// Search は名前に部分一致するユーザーを名前昇順で最大10件返す。
// 前後の空白を除いたクエリが2文字未満の場合はInvalidQueryを返す。
func (s *Service) Search(ctx context.Context, query string) ([]*model.User, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < model.SearchQueryMinLen {
		return nil, model.NewInvalidQueryError()
	}

	users, err := s.userRepo.SearchByName(ctx, query, model.SearchResultLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}
