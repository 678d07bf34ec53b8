package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/minilink/internal/model"
	"github.com/hitoshi/minilink/internal/repository/memory"
	"github.com/hitoshi/minilink/internal/security"
	"github.com/hitoshi/minilink/internal/validation"
)

func newTestService(store *memory.Store) *Service {
	return NewService(store.Users(), store.Posts(), validation.New(), security.NewTextSanitizer())
}

func seedUser(t *testing.T, store *memory.Store, id, name string) {
	t.Helper()
	now := time.Now()
	err := store.Users().Create(context.Background(), &model.User{
		ID: id, Name: name, Email: strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		PasswordHash: "hash", Bio: "bio of " + name, JoinDate: now, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func strPtr(s string) *string { return &s }

func assertCode(t *testing.T, err error, code string) *model.APIError {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != code {
		t.Fatalf("err = %v, want APIError %s", err, code)
	}
	return apiErr
}

// --- GetProfile ---

func TestService_GetProfile_ReturnsRecentPosts(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, "u1", "John Doe")
	seedUser(t, store, "u2", "Jane Smith")
	base := time.Now()
	for i := 0; i < 25; i++ {
		_ = store.Posts().Create(context.Background(), &model.Post{
			ID: fmt.Sprintf("p%02d", i), AuthorID: "u1", Content: "post", CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}
	_ = store.Posts().Create(context.Background(), &model.Post{ID: "other", AuthorID: "u2", Content: "x", CreatedAt: base})
	if _, err := store.Posts().ToggleLike(context.Background(), "p24", "u2"); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}

	svc := newTestService(store)
	profile, err := svc.GetProfile(context.Background(), "u1", "u2")
	if err != nil {
		t.Fatalf("GetProfile returned error: %v", err)
	}

	if profile.User.Name != "John Doe" {
		t.Errorf("name = %q", profile.User.Name)
	}
	if len(profile.Posts) != model.AuthorPostsLimit {
		t.Fatalf("len(posts) = %d, want %d", len(profile.Posts), model.AuthorPostsLimit)
	}
	if profile.PostsCount != model.AuthorPostsLimit {
		t.Errorf("PostsCount = %d, want %d", profile.PostsCount, model.AuthorPostsLimit)
	}
	if profile.Posts[0].ID != "p24" {
		t.Errorf("first post = %q, want newest p24", profile.Posts[0].ID)
	}
	if !profile.Posts[0].LikedByViewer || profile.Posts[0].LikesCount != 1 {
		t.Errorf("expected viewer like on newest post, got liked=%v count=%d", profile.Posts[0].LikedByViewer, profile.Posts[0].LikesCount)
	}
	for _, p := range profile.Posts {
		if p.AuthorID != "u1" {
			t.Errorf("post %s by %s leaked into profile", p.ID, p.AuthorID)
		}
	}
}

func TestService_GetProfile_NotFound(t *testing.T) {
	svc := newTestService(memory.NewStore())

	_, err := svc.GetProfile(context.Background(), "missing", "")
	assertCode(t, err, model.ErrCodeUserNotFound)
}

// --- UpdateProfile ---

// 省略したフィールドは変更されないこと
func TestService_UpdateProfile_Partial(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, "u1", "John Doe")
	svc := newTestService(store)

	user, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileInput{Bio: strPtr("Software Engineer")})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if user.Name != "John Doe" {
		t.Errorf("name = %q, want unchanged", user.Name)
	}
	if user.Bio != "Software Engineer" {
		t.Errorf("bio = %q", user.Bio)
	}

	user, err = svc.UpdateProfile(context.Background(), "u1", UpdateProfileInput{Name: strPtr("  Johnny  ")})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if user.Name != "Johnny" || user.Bio != "Software Engineer" {
		t.Errorf("user = %+v", user)
	}
}

func TestService_UpdateProfile_EmptyBioClears(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, "u1", "John Doe")
	svc := newTestService(store)

	user, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileInput{Bio: strPtr("")})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if user.Bio != "" {
		t.Errorf("bio = %q, want empty", user.Bio)
	}
}

func TestService_UpdateProfile_NoFieldsReturnsCurrent(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, "u1", "John Doe")
	svc := newTestService(store)

	user, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileInput{})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if user.Name != "John Doe" {
		t.Errorf("name = %q", user.Name)
	}
}

// 不正なフィールドが含まれる場合はどのフィールドも更新されないこと
func TestService_UpdateProfile_ValidationRejectsAll(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, "u1", "John Doe")
	svc := newTestService(store)

	_, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileInput{
		Name: strPtr("J"),
		Bio:  strPtr(strings.Repeat("b", 501)),
	})
	apiErr := assertCode(t, err, model.ErrCodeValidation)
	if len(apiErr.Errors) != 2 {
		t.Errorf("errors = %+v, want 2", apiErr.Errors)
	}

	user, _ := store.Users().FindByID(context.Background(), "u1")
	if user.Name != "John Doe" || user.Bio != "bio of John Doe" {
		t.Errorf("user modified despite validation failure: %+v", user)
	}
}

func TestService_UpdateProfile_UnknownUser(t *testing.T) {
	svc := newTestService(memory.NewStore())

	_, err := svc.UpdateProfile(context.Background(), "ghost", UpdateProfileInput{Bio: strPtr("x")})
	assertCode(t, err, model.ErrCodeUserNotFound)
}

// --- Search ---

func TestService_Search(t *testing.T) {
	store := memory.NewStore()
	seedUser(t, store, "u1", "John Doe")
	seedUser(t, store, "u2", "Jane Smith")
	seedUser(t, store, "u3", "Mike Johnson")
	svc := newTestService(store)

	users, err := svc.Search(context.Background(), "  jo ")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("len(users) = %d, want 2", len(users))
	}
	if users[0].Name != "John Doe" || users[1].Name != "Mike Johnson" {
		t.Errorf("order = %q, %q", users[0].Name, users[1].Name)
	}
}

func TestService_Search_LimitsResults(t *testing.T) {
	store := memory.NewStore()
	for i := 0; i < 15; i++ {
		seedUser(t, store, fmt.Sprintf("u%02d", i), fmt.Sprintf("Sam %02d", i))
	}
	svc := newTestService(store)

	users, err := svc.Search(context.Background(), "sam")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(users) != model.SearchResultLimit {
		t.Errorf("len(users) = %d, want %d", len(users), model.SearchResultLimit)
	}
}

func TestService_Search_QueryTooShort(t *testing.T) {
	svc := newTestService(memory.NewStore())

	for _, q := range []string{"", "a", "  b  "} {
		_, err := svc.Search(context.Background(), q)
		assertCode(t, err, model.ErrCodeInvalidQuery)
	}
}
