package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/minilink/internal/model"
	"github.com/hitoshi/minilink/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	GetProfile(ctx context.Context, userID, viewerID string) (*model.Profile, error)
	// UpdateProfile は呼び出し元自身のプロフィールを部分更新する。
	UpdateProfile(ctx context.Context, actorID string, in user.UpdateProfileInput) (*model.User, error)
	Search(ctx context.Context, query string) ([]*model.User, error)
}

// UserHandler はプロフィール・ユーザー検索のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

type profileResponse struct {
	User       userResponse          `json:"user"`
	Posts      []profilePostResponse `json:"posts"`
	PostsCount int                   `json:"postsCount"`
}

type profileUpdatedResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

type searchResponse struct {
	Users []userResponse `json:"users"`
	Count int            `json:"count"`
}

// GetProfile はユーザーのプロフィールと最近の投稿を返す。
// GET /api/users/profile/{id}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetProfile(r.Context(), chi.URLParam(r, "id"), viewerID(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		User:       toUserResponse(profile.User),
		Posts:      toProfilePostResponses(profile.Posts),
		PostsCount: profile.PostsCount,
	})
}

// UpdateProfile は自分の名前・自己紹介を更新する。
// PUT /api/users/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in user.UpdateProfileInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleServiceError(w, err)
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileUpdatedResponse{
		Message: "Profile updated successfully",
		User:    toUserResponse(updated),
	})
}

// Search は名前の部分一致でユーザーを検索する。
// GET /api/users/search?q=xxx
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]userResponse, len(users))
	for i, u := range users {
		results[i] = toUserResponse(u)
	}
	writeJSON(w, http.StatusOK, searchResponse{Users: results, Count: len(results)})
}
