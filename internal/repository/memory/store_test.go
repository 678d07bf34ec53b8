package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/minilink/internal/model"
	"github.com/hitoshi/minilink/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, s *Store, id, name, email string) {
	t.Helper()
	require.NoError(t, s.Users().Create(context.Background(), &model.User{
		ID: id, Name: name, Email: email, PasswordHash: "hash", JoinDate: baseTime,
	}))
}

func seedPost(t *testing.T, s *Store, id, authorID string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, s.Posts().Create(context.Background(), &model.Post{
		ID: id, AuthorID: authorID, Content: "post " + id, CreatedAt: createdAt,
	}))
}

func TestUserRepo_CreateDuplicateEmail(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "u1", "John Doe", "john@example.com")

	err := s.Users().Create(context.Background(), &model.User{ID: "u2", Email: "john@example.com"})
	assert.True(t, errors.Is(err, repository.ErrDuplicateEmail))

	u, err := s.Users().FindByID(context.Background(), "u2")
	require.NoError(t, err)
	assert.Nil(t, u, "rejected registration must not be stored")
}

func TestUserRepo_FindByEmail(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "u1", "John Doe", "john@example.com")

	u, err := s.Users().FindByEmail(context.Background(), "john@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "u1", u.ID)

	u, err = s.Users().FindByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, u)
}

// 部分更新では指定されたフィールドのみが変わること
func TestUserRepo_UpdateProfile_Partial(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "u1", "John Doe", "john@example.com")
	bio := "Engineer"

	u, err := s.Users().UpdateProfile(context.Background(), "u1", model.ProfileUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "John Doe", u.Name)
	assert.Equal(t, "Engineer", u.Bio)

	_, err = s.Users().UpdateProfile(context.Background(), "missing", model.ProfileUpdate{Bio: &bio})
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestUserRepo_SearchByName(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "u1", "John Doe", "john@example.com")
	seedUser(t, s, "u2", "Jane Smith", "jane@example.com")
	seedUser(t, s, "u3", "Johnny Bravo", "johnny@example.com")

	users, err := s.Users().SearchByName(context.Background(), "JOHN", 10)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "John Doe", users[0].Name)
	assert.Equal(t, "Johnny Bravo", users[1].Name)

	users, err = s.Users().SearchByName(context.Background(), "o", 1)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

// フィードは作成日時降順で、ページ間で重複・欠落がないこと
func TestPostRepo_ListFeed_OrderAndPaging(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "u1", "John Doe", "john@example.com")
	for i := 0; i < 25; i++ {
		seedPost(t, s, fmt.Sprintf("p%02d", i), "u1", baseTime.Add(time.Duration(i)*time.Minute))
	}

	seen := make(map[string]bool)
	var prev time.Time
	for offset := 0; offset < 30; offset += 10 {
		page, err := s.Posts().ListFeed(context.Background(), "", offset, 10, 3)
		require.NoError(t, err)
		for _, p := range page {
			assert.False(t, seen[p.ID], "post %s appeared twice", p.ID)
			seen[p.ID] = true
			if !prev.IsZero() {
				assert.False(t, p.CreatedAt.After(prev), "feed not in descending order")
			}
			prev = p.CreatedAt
			assert.Equal(t, "John Doe", p.Author.Name)
		}
	}
	assert.Len(t, seen, 25)

	page, err := s.Posts().ListFeed(context.Background(), "", 30, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestPostRepo_ListFeed_OutOfRangeOffset(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "u1", "John Doe", "john@example.com")
	seedPost(t, s, "p1", "u1", baseTime)

	page, err := s.Posts().ListFeed(context.Background(), "", -6, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, page)

	page, err = s.Posts().ListFeed(context.Background(), "", 0, math.MaxInt, 3)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestPostRepo_ToggleLike_RoundTrip(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "u1", "John Doe", "john@example.com")
	seedPost(t, s, "p1", "u1", baseTime)
	ctx := context.Background()

	res, err := s.Posts().ToggleLike(ctx, "p1", "u1")
	require.NoError(t, err)
	assert.Equal(t, model.LikeResult{Liked: true, LikesCount: 1}, *res)

	post, err := s.Posts().FindByID(ctx, "p1", "u1")
	require.NoError(t, err)
	assert.True(t, post.LikedByViewer)

	res, err = s.Posts().ToggleLike(ctx, "p1", "u1")
	require.NoError(t, err)
	assert.Equal(t, model.LikeResult{Liked: false, LikesCount: 0}, *res)

	_, err = s.Posts().ToggleLike(ctx, "missing", "u1")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

// 並行に異なるユーザーがいいねしても更新が失われないこと
func TestPostRepo_ToggleLike_ConcurrentDistinctActors(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "author", "Author", "author@example.com")
	seedPost(t, s, "p1", "author", baseTime)

	const actors = 50
	var wg sync.WaitGroup
	for i := 0; i < actors; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Posts().ToggleLike(context.Background(), "p1", fmt.Sprintf("actor-%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	post, err := s.Posts().FindByID(context.Background(), "p1", "")
	require.NoError(t, err)
	assert.Equal(t, actors, post.LikesCount)
}

func TestPostRepo_AddComment_PreviewAndOrder(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "u1", "John Doe", "john@example.com")
	seedUser(t, s, "u2", "Jane Smith", "jane@example.com")
	seedPost(t, s, "p1", "u1", baseTime)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res, err := s.Posts().AddComment(ctx, &model.Comment{
			ID: fmt.Sprintf("c%d", i), PostID: "p1", UserID: "u2",
			Content: fmt.Sprintf("comment %d", i), CreatedAt: baseTime,
		})
		require.NoError(t, err)
		assert.Equal(t, i+1, res.CommentsCount)
		assert.Equal(t, "Jane Smith", res.Comment.User.Name)
	}

	feed, err := s.Posts().ListFeed(ctx, "", 0, 10, 3)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, 5, feed[0].CommentsCount)
	require.Len(t, feed[0].Comments, 3)
	assert.Equal(t, "comment 0", feed[0].Comments[0].Content)
	assert.Equal(t, "comment 2", feed[0].Comments[2].Content)

	post, err := s.Posts().FindByID(ctx, "p1", "")
	require.NoError(t, err)
	assert.Len(t, post.Comments, 5)

	_, err = s.Posts().AddComment(ctx, &model.Comment{ID: "x", PostID: "missing", UserID: "u2", Content: "hi"})
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

// 削除は投稿者のみ可能で、いいね・コメントも同時に消えること
func TestPostRepo_DeleteByAuthor(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "u1", "John Doe", "john@example.com")
	seedPost(t, s, "p1", "u1", baseTime)
	ctx := context.Background()
	_, err := s.Posts().ToggleLike(ctx, "p1", "u2")
	require.NoError(t, err)

	err = s.Posts().DeleteByAuthor(ctx, "p1", "u2")
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	require.NoError(t, s.Posts().DeleteByAuthor(ctx, "p1", "u1"))
	post, err := s.Posts().FindByID(ctx, "p1", "")
	require.NoError(t, err)
	assert.Nil(t, post)

	_, err = s.Posts().ToggleLike(ctx, "p1", "u2")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
	assert.Empty(t, s.likes["p1"])
}

func TestPostRepo_ListByAuthor(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "u1", "John Doe", "john@example.com")
	seedUser(t, s, "u2", "Jane Smith", "jane@example.com")
	seedPost(t, s, "p1", "u1", baseTime)
	seedPost(t, s, "p2", "u2", baseTime.Add(time.Minute))
	seedPost(t, s, "p3", "u1", baseTime.Add(2*time.Minute))

	posts, err := s.Posts().ListByAuthor(context.Background(), "u1", "", 20)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "p3", posts[0].ID)
	assert.Equal(t, "p1", posts[1].ID)
}
