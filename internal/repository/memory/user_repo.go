package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/hitoshi/minilink/internal/model"
	"github.com/hitoshi/minilink/internal/repository"
)

// UserRepo はインメモリのユーザーリポジトリ。
type UserRepo struct {
	s *Store
}

// Create はユーザーを作成する。メールアドレスが重複する場合はErrDuplicateEmailを返す。
func (r *UserRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.byEmail[user.Email]; exists {
		return repository.ErrDuplicateEmail
	}
	r.s.users[user.ID] = *user
	r.s.byEmail[user.Email] = user.ID
	return nil
}

func (r *UserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byEmail[email]
	if !ok {
		return nil, nil
	}
	u := r.s.users[id]
	return &u, nil
}

// UpdateProfile は名前・自己紹介を部分更新し、更新後のユーザーを返す。
func (r *UserRepo) UpdateProfile(_ context.Context, id string, update model.ProfileUpdate) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Bio != nil {
		u.Bio = *update.Bio
	}
	u.UpdatedAt = time.Now()
	r.s.users[id] = u
	return &u, nil
}

// SearchByName は名前に部分一致するユーザーを名前昇順で最大limit件返す。
func (r *UserRepo) SearchByName(_ context.Context, query string, limit int) ([]*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]*model.User, 0)
	for _, u := range r.s.users {
		if containsFold(u.Name, query) {
			u := u
			users = append(users, &u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if c := strings.Compare(users[i].Name, users[j].Name); c != 0 {
			return c < 0
		}
		return users[i].ID < users[j].ID
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

// compile-time interface check
var _ repository.UserRepository = (*UserRepo)(nil)
