package memory

import (
	"context"

	"github.com/hitoshi/minilink/internal/model"
	"github.com/hitoshi/minilink/internal/repository"
)

// PostRepo はインメモリの投稿リポジトリ。
type PostRepo struct {
	s *Store
}

func (r *PostRepo) Create(_ context.Context, post *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored := *post
	stored.Comments = nil
	r.s.posts[post.ID] = stored
	return nil
}

// FindByID は投稿を全コメント付きで取得する。見つからない場合はnilを返す。
func (r *PostRepo) FindByID(_ context.Context, id, viewerID string) (*model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.posts[id]
	if !ok {
		return nil, nil
	}
	projected := r.s.projectPost(p, viewerID, 0)
	return &projected, nil
}

func (r *PostRepo) ListFeed(_ context.Context, viewerID string, offset, limit, previewSize int) ([]model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := r.s.sortedPosts(nil)
	return r.page(all, viewerID, offset, limit, previewSize), nil
}

func (r *PostRepo) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.posts), nil
}

func (r *PostRepo) ListByAuthor(_ context.Context, authorID, viewerID string, limit int) ([]model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := r.s.sortedPosts(func(p model.Post) bool { return p.AuthorID == authorID })
	return r.page(all, viewerID, 0, limit, -1), nil
}

// ToggleLike は投稿へのactorIDのいいねを反転する。
func (r *PostRepo) ToggleLike(_ context.Context, postID, actorID string) (*model.LikeResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[postID]; !ok {
		return nil, repository.ErrNotFound
	}

	likers := r.s.likes[postID]
	if likers == nil {
		likers = make(map[string]struct{})
		r.s.likes[postID] = likers
	}

	_, liked := likers[actorID]
	if liked {
		delete(likers, actorID)
	} else {
		likers[actorID] = struct{}{}
	}
	return &model.LikeResult{Liked: !liked, LikesCount: len(likers)}, nil
}

// AddComment はコメントを投稿の末尾に追加する。
func (r *PostRepo) AddComment(_ context.Context, comment *model.Comment) (*model.CommentResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[comment.PostID]; !ok {
		return nil, repository.ErrNotFound
	}

	stored := *comment
	stored.User = model.UserRef{}
	r.s.comments[comment.PostID] = append(r.s.comments[comment.PostID], stored)

	saved := *comment
	saved.User = r.s.userRef(comment.UserID)
	return &model.CommentResult{Comment: saved, CommentsCount: len(r.s.comments[comment.PostID])}, nil
}

// DeleteByAuthor は投稿者がauthorIDである投稿をいいね・コメントごと削除する。
func (r *PostRepo) DeleteByAuthor(_ context.Context, postID, authorID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[postID]
	if !ok || p.AuthorID != authorID {
		return repository.ErrNotFound
	}
	delete(r.s.posts, postID)
	delete(r.s.likes, postID)
	delete(r.s.comments, postID)
	return nil
}

// page はソート済み投稿からoffset/limitの範囲を切り出して射影する。呼び出し側でロックを保持していること。
func (r *PostRepo) page(all []model.Post, viewerID string, offset, limit, previewSize int) []model.Post {
	if offset < 0 || offset >= len(all) {
		return []model.Post{}
	}
	end := len(all)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}

	posts := make([]model.Post, 0, end-offset)
	for _, p := range all[offset:end] {
		posts = append(posts, r.s.projectPost(p, viewerID, previewSize))
	}
	return posts
}

// compile-time interface check
var _ repository.PostRepository = (*PostRepo)(nil)
