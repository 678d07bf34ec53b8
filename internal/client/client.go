// Package client はMini LinkedIn APIのHTTPクライアントを提供する。
// 登録・ログインで得たトークンと現在のユーザーを保持し、以降のリクエストに付与する。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// maxResponseBytes はレスポンスボディの読み取り上限。
const maxResponseBytes = 1 << 20

// Client はAPIクライアント。複数goroutineから安全に利用できる。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string

	mu    sync.RWMutex
	token string
	user  *User
}

// New はClientを生成する。baseURLはAPIのルート（例: http://localhost:5000/api）。
func New(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Token は保持しているトークンを返す。未ログインの場合は空文字。
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken は保存済みのトークンを復元する。ユーザー情報はMeで取得する。
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.user = nil
}

// CurrentUser は保持している現在のユーザーを返す。
func (c *Client) CurrentUser() *User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Logout はトークンとユーザーを破棄する。
func (c *Client) Logout() {
	c.SetToken("")
}

func (c *Client) setSession(token string, user User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.user = &user
}

// --- 認証 ---

// Register はユーザーを登録し、発行されたトークンを保持する。
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &resp); err != nil {
		return nil, err
	}
	c.setSession(resp.Token, resp.User)
	return &resp.User, nil
}

// Login はログインし、発行されたトークンを保持する。
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &resp); err != nil {
		return nil, err
	}
	c.setSession(resp.Token, resp.User)
	return &resp.User, nil
}

// Me は保持しているトークンのユーザーを取得する。
func (c *Client) Me(ctx context.Context) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &resp); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.user = &resp.User
	c.mu.Unlock()
	return &resp.User, nil
}

// --- 投稿 ---

// Feed はフィードを取得する。0以下のpage・limitはサーバーの既定値に任せる。
func (c *Client) Feed(ctx context.Context, page, limit int) (*FeedPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp FeedPage
	if err := c.do(ctx, http.MethodGet, "/posts/feed", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetPost(ctx context.Context, id string) (*Post, error) {
	var resp struct {
		Post Post `json:"post"`
	}
	if err := c.do(ctx, http.MethodGet, "/posts/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Post, nil
}

func (c *Client) CreatePost(ctx context.Context, content string) (*Post, error) {
	var resp struct {
		Post Post `json:"post"`
	}
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, "/posts", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp.Post, nil
}

// ToggleLike は投稿のいいねを切り替える。
func (c *Client) ToggleLike(ctx context.Context, postID string) (*LikeResult, error) {
	var resp LikeResult
	if err := c.do(ctx, http.MethodPut, "/posts/"+url.PathEscape(postID)+"/like", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) AddComment(ctx context.Context, postID, content string) (*CommentResult, error) {
	var resp CommentResult
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/comment", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodDelete, "/posts/"+url.PathEscape(postID), nil, nil, nil)
}

// --- ユーザー ---

func (c *Client) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	var resp Profile
	if err := c.do(ctx, http.MethodGet, "/users/profile/"+url.PathEscape(userID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateProfile は自分のプロフィールを更新し、保持しているユーザーも置き換える。
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/users/profile", nil, update, &resp); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.user = &resp.User
	c.mu.Unlock()
	return &resp.User, nil
}

func (c *Client) SearchUsers(ctx context.Context, query string) ([]User, error) {
	var resp struct {
		Users []User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/search", url.Values{"q": {query}}, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// Health はヘルスチェックを行う。DB不通時の503もHealthとして返す。
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var resp Health
	err := c.do(ctx, http.MethodGet, "/health", nil, nil, &resp)
	var apiErr *Error
	if err != nil && !(errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable) {
		return nil, err
	}
	return &resp, err
}

// --- 共通処理 ---

// do はリクエストを送信し、成功時はoutへデコードする。
// 401を受け取った場合は保持しているトークンを破棄する。
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("api request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &Error{StatusCode: resp.StatusCode}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, apiErr)
		}
		if apiErr.IsUnauthorized() {
			c.Logout()
		}
		// 503のヘルスチェック本文は呼び出し元で利用する
		if out != nil && resp.StatusCode == http.StatusServiceUnavailable {
			_ = json.Unmarshal(raw, out)
		}
		c.logger.Warn("api returned error",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
			slog.String("code", apiErr.Code),
		)
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
