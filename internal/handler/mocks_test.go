package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/minilink/internal/auth"
	"github.com/hitoshi/minilink/internal/middleware"
	"github.com/hitoshi/minilink/internal/model"
	"github.com/hitoshi/minilink/internal/post"
	"github.com/hitoshi/minilink/internal/user"
)

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	registerFn    func(ctx context.Context, in auth.RegisterInput) (*auth.Result, error)
	loginFn       func(ctx context.Context, in auth.LoginInput) (*auth.Result, error)
	currentUserFn func(ctx context.Context, userID string) (*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (*auth.Result, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return nil, nil
}

func (m *mockAuthService) Login(ctx context.Context, in auth.LoginInput) (*auth.Result, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, in)
	}
	return nil, nil
}

func (m *mockAuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, userID)
	}
	return nil, nil
}

// mockPostService はPostServiceInterfaceのモック実装。
type mockPostService struct {
	createFn     func(ctx context.Context, actorID string, in post.CreateInput) (*model.Post, error)
	feedFn       func(ctx context.Context, viewerID string, page, limit int) (*model.FeedPage, error)
	getFn        func(ctx context.Context, postID, viewerID string) (*model.Post, error)
	toggleLikeFn func(ctx context.Context, postID, actorID string) (*model.LikeResult, error)
	addCommentFn func(ctx context.Context, postID, actorID string, in post.CommentInput) (*model.CommentResult, error)
	deleteFn     func(ctx context.Context, postID, actorID string) error
}

func (m *mockPostService) Create(ctx context.Context, actorID string, in post.CreateInput) (*model.Post, error) {
	if m.createFn != nil {
		return m.createFn(ctx, actorID, in)
	}
	return nil, nil
}

func (m *mockPostService) Feed(ctx context.Context, viewerID string, page, limit int) (*model.FeedPage, error) {
	if m.feedFn != nil {
		return m.feedFn(ctx, viewerID, page, limit)
	}
	return &model.FeedPage{}, nil
}

func (m *mockPostService) Get(ctx context.Context, postID, viewerID string) (*model.Post, error) {
	if m.getFn != nil {
		return m.getFn(ctx, postID, viewerID)
	}
	return nil, model.NewPostNotFoundError()
}

func (m *mockPostService) ToggleLike(ctx context.Context, postID, actorID string) (*model.LikeResult, error) {
	if m.toggleLikeFn != nil {
		return m.toggleLikeFn(ctx, postID, actorID)
	}
	return nil, nil
}

func (m *mockPostService) AddComment(ctx context.Context, postID, actorID string, in post.CommentInput) (*model.CommentResult, error) {
	if m.addCommentFn != nil {
		return m.addCommentFn(ctx, postID, actorID, in)
	}
	return nil, nil
}

func (m *mockPostService) Delete(ctx context.Context, postID, actorID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, postID, actorID)
	}
	return nil
}

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	getProfileFn    func(ctx context.Context, userID, viewerID string) (*model.Profile, error)
	updateProfileFn func(ctx context.Context, actorID string, in user.UpdateProfileInput) (*model.User, error)
	searchFn        func(ctx context.Context, query string) ([]*model.User, error)
}

func (m *mockUserService) GetProfile(ctx context.Context, userID, viewerID string) (*model.Profile, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(ctx, userID, viewerID)
	}
	return nil, model.NewUserNotFoundError()
}

func (m *mockUserService) UpdateProfile(ctx context.Context, actorID string, in user.UpdateProfileInput) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, actorID, in)
	}
	return nil, nil
}

func (m *mockUserService) Search(ctx context.Context, query string) ([]*model.User, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query)
	}
	return nil, nil
}

// mockAuthenticator は固定トークンをユーザーIDに解決する。
type mockAuthenticator struct {
	tokens map[string]string
}

func (m *mockAuthenticator) Authenticate(_ context.Context, token string) (string, error) {
	if userID, ok := m.tokens[token]; ok {
		return userID, nil
	}
	return "", model.NewUnauthorizedError()
}

// withUserID はリクエストコンテキストに認証済みユーザーIDを注入する。
func withUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), userID))
}
