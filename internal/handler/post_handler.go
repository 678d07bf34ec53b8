package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/minilink/internal/model"
	"github.com/hitoshi/minilink/internal/post"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	Create(ctx context.Context, actorID string, in post.CreateInput) (*model.Post, error)
	Feed(ctx context.Context, viewerID string, page, limit int) (*model.FeedPage, error)
	Get(ctx context.Context, postID, viewerID string) (*model.Post, error)
	ToggleLike(ctx context.Context, postID, actorID string) (*model.LikeResult, error)
	AddComment(ctx context.Context, postID, actorID string, in post.CommentInput) (*model.CommentResult, error)
	Delete(ctx context.Context, postID, actorID string) error
}

// PostHandler は投稿・フィード・いいね・コメントのHTTPハンドラー。
type PostHandler struct {
	service      PostServiceInterface
	feedMaxLimit int
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface, feedMaxLimit int) *PostHandler {
	return &PostHandler{
		service:      service,
		feedMaxLimit: feedMaxLimit,
	}
}

// --- レスポンス型 ---

type postEnvelope struct {
	Message string       `json:"message,omitempty"`
	Post    postResponse `json:"post"`
}

type feedResponse struct {
	Posts      []postResponse     `json:"posts"`
	Pagination paginationResponse `json:"pagination"`
}

type likeResponse struct {
	Message    string `json:"message"`
	Liked      bool   `json:"liked"`
	LikesCount int    `json:"likesCount"`
}

type commentAddedResponse struct {
	Message       string          `json:"message"`
	Comment       commentResponse `json:"comment"`
	CommentsCount int             `json:"commentsCount"`
}

// Create は投稿を作成する。
// POST /api/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in post.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleServiceError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, postEnvelope{
		Message: "Post created successfully",
		Post:    toPostResponse(*created),
	})
}

// Feed は全投稿を新しい順にページングして返す。
// GET /api/posts/feed?page=1&limit=10
func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	page, limit := post.ParsePageParams(r.URL.Query().Get("page"), r.URL.Query().Get("limit"), h.feedMaxLimit)

	result, err := h.service.Feed(r.Context(), viewerID(r), page, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	pg := result.Pagination
	writeJSON(w, http.StatusOK, feedResponse{
		Posts: toPostResponses(result.Posts),
		Pagination: paginationResponse{
			CurrentPage: pg.CurrentPage,
			TotalPages:  pg.TotalPages,
			TotalPosts:  pg.TotalPosts,
			HasNext:     pg.HasNext,
			HasPrev:     pg.HasPrev,
		},
	})
}

// Get は投稿を全コメント付きで返す。
// GET /api/posts/{id}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), viewerID(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, postEnvelope{Post: toPostResponse(*p)})
}

// ToggleLike はいいねを反転する。
// PUT /api/posts/{id}/like
func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	result, err := h.service.ToggleLike(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	message := "Post unliked"
	if result.Liked {
		message = "Post liked"
	}
	writeJSON(w, http.StatusOK, likeResponse{
		Message:    message,
		Liked:      result.Liked,
		LikesCount: result.LikesCount,
	})
}

// AddComment はコメントを追加する。
// POST /api/posts/{id}/comment
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in post.CommentInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.AddComment(r.Context(), chi.URLParam(r, "id"), userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, commentAddedResponse{
		Message:       "Comment added successfully",
		Comment:       toCommentResponse(result.Comment),
		CommentsCount: result.CommentsCount,
	})
}

// Delete は自分の投稿を削除する。
// DELETE /api/posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Post deleted successfully"})
}
