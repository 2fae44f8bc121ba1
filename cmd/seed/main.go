// seed 生成演示数据: 用户、分组、帖子、评论和关注关系
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"go-blog/internal/model"
	"go-blog/internal/repository"
	"go-blog/internal/service"
	"go-blog/pkg/config"
	"go-blog/pkg/db"
	"go-blog/pkg/logger"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"
)

const defaultPassword = "password123"

func main() {
	userCount := flag.Int("users", 5, "number of users")
	groupCount := flag.Int("groups", 3, "number of groups")
	postCount := flag.Int("posts", 30, "number of posts")
	seed := flag.Int64("seed", 0, "random seed, 0 for a random one")
	flag.Parse()

	if err := config.Init(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.InitLogger(config.GlobalConfig.Log.Level, config.GlobalConfig.Log.ProductionMode); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := db.InitDB(); err != nil {
		logger.L.Fatal("Failed to initialize database", zap.Error(err))
	}
	gofakeit.Seed(*seed)

	ctx := context.Background()
	s := newSeeder()
	if err := s.run(ctx, *userCount, *groupCount, *postCount); err != nil {
		logger.L.Fatal("Seeding failed", zap.Error(err))
	}
	logger.L.Info("Seeding finished",
		zap.Int("users", len(s.users)),
		zap.Int("groups", len(s.groupIDs)),
		zap.Int("posts", len(s.postIDs)),
		zap.String("password", defaultPassword),
	)
}

type seeder struct {
	auth    *service.AuthService
	posts   *service.PostService
	follows *service.FollowService
	groups  *repository.GroupRepository

	users    []service.Identity
	groupIDs []uint
	postIDs  []uint
}

func newSeeder() *seeder {
	users := repository.NewUserRepository()
	groups := repository.NewGroupRepository()
	return &seeder{
		auth:    service.NewAuthService(users),
		posts:   service.NewPostService(groups, repository.NewPostRepository(), repository.NewCommentRepository(), nil, nil),
		follows: service.NewFollowService(users, repository.NewFollowRepository()),
		groups:  groups,
	}
}

func (s *seeder) run(ctx context.Context, userCount, groupCount, postCount int) error {
	for i := 0; i < userCount; i++ {
		if err := s.createUser(ctx); err != nil {
			return err
		}
	}
	if len(s.users) == 0 {
		return fmt.Errorf("no users created")
	}
	for i := 0; i < groupCount; i++ {
		if err := s.createGroup(ctx); err != nil {
			return err
		}
	}
	for i := 0; i < postCount; i++ {
		if err := s.createPost(ctx); err != nil {
			return err
		}
	}
	if err := s.createComments(ctx); err != nil {
		return err
	}
	return s.createFollows(ctx)
}

func (s *seeder) createUser(ctx context.Context) error {
	in := service.SignupInput{
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Username:  strings.ToLower(gofakeit.Username()),
		Email:     gofakeit.Email(),
		Password1: defaultPassword,
		Password2: defaultPassword,
	}
	user, err := s.auth.Register(ctx, in)
	if _, dup := service.AsValidationError(err); dup {
		// 随机用户名重复, 跳过
		logger.L.Debug("Skipping duplicate user", zap.String("username", in.Username))
		return nil
	}
	if err != nil {
		return fmt.Errorf("register %s: %w", in.Username, err)
	}
	s.users = append(s.users, service.Identity{UserID: user.ID, Username: user.Username})
	return nil
}

func (s *seeder) createGroup(ctx context.Context) error {
	title := gofakeit.HipsterWord() + " " + gofakeit.Noun()
	g := &model.Group{
		Title:       title,
		Slug:        fmt.Sprintf("%s-%d", strings.ReplaceAll(strings.ToLower(title), " ", "-"), gofakeit.Number(100, 999)),
		Description: gofakeit.Sentence(12),
	}
	if err := s.groups.Create(ctx, g); err != nil {
		return fmt.Errorf("create group %s: %w", g.Slug, err)
	}
	s.groupIDs = append(s.groupIDs, g.ID)
	return nil
}

func (s *seeder) createPost(ctx context.Context) error {
	author := s.users[gofakeit.Number(0, len(s.users)-1)]
	in := service.CreatePostInput{Text: gofakeit.Paragraph(1, gofakeit.Number(2, 5), 12, " ")}
	// 大约三分之一的帖子不属于任何分组
	if len(s.groupIDs) > 0 && gofakeit.Number(0, 2) > 0 {
		id := s.groupIDs[gofakeit.Number(0, len(s.groupIDs)-1)]
		in.GroupID = &id
	}
	post, err := s.posts.CreatePost(ctx, author, in)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	s.postIDs = append(s.postIDs, post.ID)
	return nil
}

func (s *seeder) createComments(ctx context.Context) error {
	for _, postID := range s.postIDs {
		for i := gofakeit.Number(0, 3); i > 0; i-- {
			author := s.users[gofakeit.Number(0, len(s.users)-1)]
			if _, err := s.posts.AddComment(ctx, author, postID, service.CommentInput{Text: gofakeit.Sentence(8)}); err != nil {
				return fmt.Errorf("comment on post %d: %w", postID, err)
			}
		}
	}
	return nil
}

// 每个用户随机关注其他人
func (s *seeder) createFollows(ctx context.Context) error {
	for _, user := range s.users {
		for _, author := range s.users {
			if user.UserID == author.UserID || !gofakeit.Bool() {
				continue
			}
			if err := s.follows.Follow(ctx, user, author.Username); err != nil {
				return fmt.Errorf("%s follow %s: %w", user.Username, author.Username, err)
			}
		}
	}
	return nil
}
