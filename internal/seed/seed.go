// Package seed はデモ用のユーザー・投稿・いいね・コメントを投入する。
// 既存データを削除してから、登録・投稿の各サービスを経由して作成する。
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/minilink/internal/auth"
	"github.com/hitoshi/minilink/internal/model"
	"github.com/hitoshi/minilink/internal/post"
)

// DemoPassword は全デモアカウント共通のパスワード。
const DemoPassword = "password123"

// Registrar はユーザー登録を行う。
type Registrar interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.Result, error)
}

// PostWriter は投稿の作成といいね・コメントを行う。
type PostWriter interface {
	Create(ctx context.Context, actorID string, in post.CreateInput) (*model.Post, error)
	ToggleLike(ctx context.Context, postID, actorID string) (*model.LikeResult, error)
	AddComment(ctx context.Context, postID, actorID string, in post.CommentInput) (*model.CommentResult, error)
}

// DemoUser はデモアカウントの定義。
type DemoUser struct {
	Name  string
	Email string
	Bio   string
}

type demoPost struct {
	author  int
	content string
}

type demoComment struct {
	post    int
	user    int
	content string
}

// DemoUsers はデモアカウントの一覧。
var DemoUsers = []DemoUser{
	{
		Name:  "John Doe",
		Email: "john@example.com",
		Bio:   "Software Engineer passionate about web development and creating innovative solutions. Love working with React, Node.js, and modern web technologies.",
	},
	{
		Name:  "Jane Smith",
		Email: "jane@example.com",
		Bio:   "Product Manager with 5+ years of experience in tech startups. Focused on user experience and data-driven product decisions.",
	},
	{
		Name:  "Mike Johnson",
		Email: "mike@example.com",
		Bio:   "Full-stack developer and tech enthusiast. Building scalable applications and mentoring junior developers.",
	},
	{
		Name:  "Sarah Wilson",
		Email: "sarah@example.com",
		Bio:   "UX Designer creating beautiful and intuitive user experiences. Passionate about accessibility and inclusive design.",
	},
	{
		Name:  "David Brown",
		Email: "david@example.com",
		Bio:   "DevOps Engineer specializing in cloud infrastructure and automation. AWS certified and Kubernetes enthusiast.",
	},
}

var demoPosts = []demoPost{
	{0, "Just finished building a new React application with Next.js 14! The new app directory structure is amazing and makes development so much more intuitive. Excited to share more about my experience with the community! 🚀"},
	{1, "Had an amazing product strategy session today. Key takeaway: Always start with the user problem, not the solution. Understanding your users deeply is the foundation of any successful product. What's your approach to user research?"},
	{2, "Mentoring junior developers has been one of the most rewarding parts of my career. Today I helped a new developer understand async/await in JavaScript. Seeing that \"aha!\" moment never gets old. Remember, we all started somewhere! 💡"},
	{3, "Working on a new design system for our platform. Consistency is key in creating great user experiences. Every component should feel like it belongs to the same family. What are your favorite design systems to reference?"},
	{4, "Successfully migrated our entire infrastructure to Kubernetes today! The scalability and reliability improvements are already showing. DevOps is all about making developers' lives easier while ensuring system reliability. ⚙️"},
	{0, "Just attended an amazing tech conference! The talks on AI and machine learning were particularly inspiring. It's incredible how fast this field is evolving. What new technologies are you most excited about?"},
	{1, "Product management tip: Your roadmap should be a living document, not set in stone. Market conditions change, user needs evolve, and new opportunities arise. Stay flexible and data-driven in your decisions! 📊"},
	{2, "Code review best practices: Be kind, be constructive, and remember we're all learning. A good code review should teach something to both the author and the reviewer. Let's build each other up! 👥"},
}

// demoLikes は[投稿, ユーザー]の組。
var demoLikes = [][2]int{
	{0, 1}, {0, 2}, {0, 3},
	{1, 0}, {1, 3},
	{2, 1}, {2, 4},
	{4, 0}, {4, 2},
	{7, 1},
}

var demoComments = []demoComment{
	{0, 1, "Congrats John! The app router took me a while to get used to, but it's worth it."},
	{0, 2, "Would love to read a write-up on the migration."},
	{1, 3, "Usability interviews first, always. Great reminder!"},
	{2, 0, "Mentoring is the best way to learn twice."},
	{4, 2, "Huge milestone! How long did the migration take?"},
	{4, 4, "About three months end to end, with a lot of dry runs."},
}

// Summary は投入結果の件数。
type Summary struct {
	Users    int
	Posts    int
	Likes    int
	Comments int
}

// Seeder はデモデータを投入する。
type Seeder struct {
	resetter Resetter
	auth     Registrar
	posts    PostWriter
	logger   *slog.Logger
}

// NewSeeder は新しいSeederを生成する。
func NewSeeder(resetter Resetter, registrar Registrar, posts PostWriter, logger *slog.Logger) *Seeder {
	return &Seeder{
		resetter: resetter,
		auth:     registrar,
		posts:    posts,
		logger:   logger,
	}
}

// Run は既存データを削除し、デモデータを投入する。
// 途中で失敗した場合はそれまでに作成したデータを残したままエラーを返す。
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	if err := s.resetter.Reset(ctx); err != nil {
		return nil, err
	}

	summary := &Summary{}

	userIDs := make([]string, len(DemoUsers))
	for i, u := range DemoUsers {
		result, err := s.auth.Register(ctx, auth.RegisterInput{
			Name:     u.Name,
			Email:    u.Email,
			Password: DemoPassword,
			Bio:      u.Bio,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", u.Email, err)
		}
		userIDs[i] = result.User.ID
		summary.Users++
		s.logger.Info("created demo user", slog.String("name", u.Name), slog.String("email", u.Email))
	}

	postIDs := make([]string, len(demoPosts))
	for i, p := range demoPosts {
		created, err := s.posts.Create(ctx, userIDs[p.author], post.CreateInput{Content: p.content})
		if err != nil {
			return nil, fmt.Errorf("failed to create post %d: %w", i, err)
		}
		postIDs[i] = created.ID
		summary.Posts++
	}

	for _, l := range demoLikes {
		if _, err := s.posts.ToggleLike(ctx, postIDs[l[0]], userIDs[l[1]]); err != nil {
			return nil, fmt.Errorf("failed to like post %d: %w", l[0], err)
		}
		summary.Likes++
	}

	for _, c := range demoComments {
		if _, err := s.posts.AddComment(ctx, postIDs[c.post], userIDs[c.user], post.CommentInput{Content: c.content}); err != nil {
			return nil, fmt.Errorf("failed to comment on post %d: %w", c.post, err)
		}
		summary.Comments++
	}

	s.logger.Info("seed data created",
		slog.Int("users", summary.Users),
		slog.Int("posts", summary.Posts),
		slog.Int("likes", summary.Likes),
		slog.Int("comments", summary.Comments),
	)
	return summary, nil
}
