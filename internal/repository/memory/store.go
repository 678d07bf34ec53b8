// Package memory はrepositoryインターフェースのインメモリ実装を提供する。
// STORE_BACKEND=memory での起動と、サービス・ハンドラのテストで使用する。
package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/hitoshi/minilink/internal/model"
)

// Store はユーザーと投稿を保持するインメモリストア。
// すべての操作は単一のRWMutexで直列化され、PostgreSQL実装と同じ原子性を持つ。
type Store struct {
	mu sync.RWMutex

	users   map[string]model.User
	byEmail map[string]string

	posts    map[string]model.Post
	likes    map[string]map[string]struct{}
	comments map[string][]model.Comment
}

// NewStore は空のStoreを生成する。
func NewStore() *Store {
	return &Store{
		users:    make(map[string]model.User),
		byEmail:  make(map[string]string),
		posts:    make(map[string]model.Post),
		likes:    make(map[string]map[string]struct{}),
		comments: make(map[string][]model.Comment),
	}
}

// Users はStoreをバックエンドとするUserRepoを返す。
func (s *Store) Users() *UserRepo {
	return &UserRepo{s: s}
}

// Posts はStoreをバックエンドとするPostRepoを返す。
func (s *Store) Posts() *PostRepo {
	return &PostRepo{s: s}
}

// Reset は全データを削除する。シード投入前に使用する。
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[string]model.User)
	s.byEmail = make(map[string]string)
	s.posts = make(map[string]model.Post)
	s.likes = make(map[string]map[string]struct{})
	s.comments = make(map[string][]model.Comment)
}

// userRef はユーザーの公開情報を返す。呼び出し側でロックを保持していること。
func (s *Store) userRef(id string) model.UserRef {
	u, ok := s.users[id]
	if !ok {
		return model.UserRef{ID: id}
	}
	return model.UserRef{ID: u.ID, Name: u.Name, Email: u.Email, Bio: u.Bio}
}

// projectPost は保存済み投稿に投稿者・件数・閲覧者のいいね有無を付与して返す。
// previewSizeが負の場合はコメントを含めず、0の場合は全件を含める。
func (s *Store) projectPost(p model.Post, viewerID string, previewSize int) model.Post {
	p.Author = s.userRef(p.AuthorID)
	p.LikesCount = len(s.likes[p.ID])
	p.CommentsCount = len(s.comments[p.ID])
	_, p.LikedByViewer = s.likes[p.ID][viewerID]

	switch {
	case previewSize < 0:
		p.Comments = nil
	default:
		all := s.comments[p.ID]
		n := len(all)
		if previewSize > 0 && previewSize < n {
			n = previewSize
		}
		p.Comments = make([]model.Comment, n)
		for i := 0; i < n; i++ {
			c := all[i]
			c.User = s.userRef(c.UserID)
			p.Comments[i] = c
		}
	}
	return p
}

// sortedPosts は条件に合う投稿を作成日時降順・ID降順で返す。
func (s *Store) sortedPosts(match func(model.Post) bool) []model.Post {
	posts := make([]model.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if match == nil || match(p) {
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
	return posts
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
