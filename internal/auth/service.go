// Package auth はパスワード認証とベアラートークンの発行・検証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/minilink/internal/metrics"
	"github.com/hitoshi/minilink/internal/model"
	"github.com/hitoshi/minilink/internal/repository"
	"github.com/hitoshi/minilink/internal/security"
	"github.com/hitoshi/minilink/internal/validation"
)

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
	Bio      string `json:"bio" validate:"max=500"`
}

// LoginInput はログインの入力。
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Result は登録・ログイン成功時に返すトークンとユーザー。
type Result struct {
	Token string
	User  *model.User
}

// TokenIssuer はトークンの発行と検証を行う。
type TokenIssuer interface {
	Issue(userID string) (string, error)
	Verify(token string) (string, error)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	hasher    PasswordHasher
	tokens    TokenIssuer
	validator *validation.Validator
	sanitizer security.TextSanitizer
	metrics   metrics.MetricsCollector

	dummyOnce sync.Once
	dummyHash string
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	validator *validation.Validator,
	sanitizer security.TextSanitizer,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		userRepo:  userRepo,
		hasher:    hasher,
		tokens:    tokens,
		validator: validator,
		sanitizer: sanitizer,
		metrics:   collector,
	}
}

// NormalizeEmail はメールアドレスの前後空白を除去し小文字化する。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register はユーザーを登録し、トークンを発行する。
// メールアドレスは小文字に正規化して一意性を判定する。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	in.Name = s.sanitizer.Sanitize(in.Name)
	in.Bio = s.sanitizer.Sanitize(in.Bio)
	in.Email = NormalizeEmail(in.Email)

	if fields := s.validator.Struct(in); fields != nil {
		return nil, model.NewValidationError(fields...)
	}

	existing, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateEmailError()
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Bio:          in.Bio,
		JoinDate:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 同時登録で事前確認をすり抜けた場合も一意制約で検出する
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewDuplicateEmailError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRegistration()
	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return &Result{Token: token, User: user}, nil
}

// Login はメールアドレスとパスワードを照合し、トークンを発行する。
// ユーザーが存在しない場合とパスワード不一致の場合は同一のエラーを返す。
func (s *Service) Login(ctx context.Context, in LoginInput) (*Result, error) {
	in.Email = NormalizeEmail(in.Email)

	if fields := s.validator.Struct(in); fields != nil {
		return nil, model.NewValidationError(fields...)
	}

	user, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if user == nil {
		// 応答時間からメールアドレスの登録有無を推測されないようにハッシュ比較を1回行う
		_ = s.hasher.Compare(s.dummyPasswordHash(), in.Password)
		s.metrics.RecordLogin(false)
		return nil, model.NewInvalidCredentialsError()
	}

	if err := s.hasher.Compare(user.PasswordHash, in.Password); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			s.metrics.RecordLogin(false)
			return nil, model.NewInvalidCredentialsError()
		}
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLogin(true)
	slog.Info("user logged in", slog.String("user_id", user.ID))

	return &Result{Token: token, User: user}, nil
}

// Authenticate はベアラートークンを検証し、呼び出し元のユーザーIDを返す。
// トークンが不正、またはユーザーが既に存在しない場合はUnauthorizedを返す。
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return "", model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return "", model.NewUnauthorizedError()
	}
	return user.ID, nil
}

// CurrentUser は呼び出し元のユーザーを返す。
func (s *Service) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}
	return user, nil
}

func (s *Service) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.New().String())
		if err != nil {
			slog.Error("failed to prepare dummy password hash", slog.String("error", err.Error()))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
