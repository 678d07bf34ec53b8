package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/minilink/internal/middleware"
	"github.com/hitoshi/minilink/internal/model"
)

// maxRequestBodyBytes はJSONリクエストボディの上限。
const maxRequestBodyBytes = 64 << 10

// --- レスポンス型 ---

// userResponse はユーザーの公開情報。パスワードハッシュは含めない。
type userResponse struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Bio      string    `json:"bio"`
	JoinDate time.Time `json:"joinDate"`
}

// userRefResponse は投稿者・コメント投稿者として埋め込むユーザー情報。
type userRefResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Bio   string `json:"bio,omitempty"`
}

type commentResponse struct {
	ID        string          `json:"id"`
	Content   string          `json:"content"`
	User      userRefResponse `json:"user"`
	CreatedAt time.Time       `json:"createdAt"`
}

// postResponse は投稿のレスポンス。likedは閲覧者がいいね済みかどうか。
type postResponse struct {
	ID            string            `json:"id"`
	Content       string            `json:"content"`
	Author        userRefResponse   `json:"author"`
	LikesCount    int               `json:"likesCount"`
	CommentsCount int               `json:"commentsCount"`
	Comments      []commentResponse `json:"comments"`
	Liked         bool              `json:"liked"`
	CreatedAt     time.Time         `json:"createdAt"`
}

type paginationResponse struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalPosts  int  `json:"totalPosts"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- 射影 ---

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Bio:      u.Bio,
		JoinDate: u.JoinDate,
	}
}

func toUserRefResponse(ref model.UserRef) userRefResponse {
	return userRefResponse{
		ID:    ref.ID,
		Name:  ref.Name,
		Email: ref.Email,
		Bio:   ref.Bio,
	}
}

func toCommentResponse(c model.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		Content:   c.Content,
		User:      toUserRefResponse(c.User),
		CreatedAt: c.CreatedAt,
	}
}

func toPostResponse(p model.Post) postResponse {
	resp := postResponse{
		ID:            p.ID,
		Content:       p.Content,
		Author:        toUserRefResponse(p.Author),
		LikesCount:    p.LikesCount,
		CommentsCount: p.CommentsCount,
		Liked:         p.LikedByViewer,
		CreatedAt:     p.CreatedAt,
	}
	resp.Comments = make([]commentResponse, len(p.Comments))
	for i, c := range p.Comments {
		resp.Comments[i] = toCommentResponse(c)
	}
	return resp
}

func toPostResponses(posts []model.Post) []postResponse {
	results := make([]postResponse, len(posts))
	for i, p := range posts {
		results[i] = toPostResponse(p)
	}
	return results
}

// profilePostResponse はプロフィールの投稿一覧用。コメントがなければキーごと省く。
type profilePostResponse struct {
	postResponse
	Comments []commentResponse `json:"comments,omitempty"`
}

func toProfilePostResponses(posts []model.Post) []profilePostResponse {
	results := make([]profilePostResponse, len(posts))
	for i, p := range posts {
		resp := toPostResponse(p)
		results[i] = profilePostResponse{postResponse: resp}
		if len(resp.Comments) > 0 {
			results[i].Comments = resp.Comments
		}
	}
	return results
}

// --- ヘルパー関数 ---

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// decodeJSON はリクエストボディをdstへデコードする。
// 不正なJSONはバリデーションエラーとして扱う。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return model.NewValidationError(model.FieldError{Field: "body", Message: "Request body must be valid JSON"})
	}
	return nil
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation, model.ErrCodeInvalidQuery:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodePostNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateEmail:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// requireUserID は認証ミドルウェアが注入したユーザーIDを返す。
// 見つからない場合は401を書き込みfalseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return "", false
	}
	return userID, true
}

// viewerID は任意認証で解決した閲覧者のユーザーIDを返す。未認証なら空文字列。
func viewerID(r *http.Request) string {
	userID, _ := middleware.UserIDFromContext(r.Context())
	return userID
}
