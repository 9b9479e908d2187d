package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/postboard/internal/apperr"
	"github.com/postboard/internal/config"
	"github.com/postboard/internal/db"
	"github.com/postboard/internal/service"
	"gorm.io/gorm"
)

var seedCategories = []string{"Go", "Databases", "Web", "Notes", "Tooling"}

// seedOptions 控制生成的数据量
type seedOptions struct {
	Users           int
	DaysPerUser     int
	CommentsPerPost int
	Seed            int64
	Location        *time.Location
	Now             time.Time
	Password        string
}

type seedSummary struct {
	Users      int
	Posts      int
	Comments   int
	Categories int
}

// 测试数据生成器
func main() {
	users := flag.Int("users", 3, "number of accounts to create")
	days := flag.Int("days", 5, "days of back-dated posts per account")
	comments := flag.Int("comments", 2, "comments per post")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// 初始化数据库
	if err := db.Init(db.Options{Driver: cfg.DatabaseDriver, Path: cfg.DatabasePath, DSN: cfg.DatabaseDSN}); err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	summary, err := run(db.DB, seedOptions{
		Users:           *users,
		DaysPerUser:     *days,
		CommentsPerPost: *comments,
		Seed:            *seed,
		Location:        cfg.Location(),
		Now:             time.Now(),
		Password:        "password123",
	})
	if err != nil {
		slog.Error("seeding failed", "error", err)
		os.Exit(1)
	}

	fmt.Println("测试数据生成完成！")
	fmt.Printf("用户: %d (密码: password123)\n", summary.Users)
	fmt.Printf("文章: %d  评论: %d  分类: %d\n", summary.Posts, summary.Comments, summary.Categories)
}

// run 通过服务层写入数据，因此每日一篇与标题唯一的规则同样生效；
// 文章按天回溯创建，每个用户每天一篇。
func run(gdb *gorm.DB, opts seedOptions) (seedSummary, error) {
	var summary seedSummary
	faker := gofakeit.New(opts.Seed)

	current := opts.Now
	posts := service.NewPostService(gdb).
		WithClock(func() time.Time { return current }).
		WithLocation(opts.Location)
	users := service.NewUserService(gdb)
	comments := service.NewCommentService(gdb)
	categories := service.NewCategoryService(gdb)

	categoryIDs, created, err := ensureCategories(categories)
	if err != nil {
		return summary, err
	}
	summary.Categories = created

	for i := 0; i < opts.Users; i++ {
		user, err := users.Register(service.RegisterInput{
			Username: fmt.Sprintf("%s%d", sanitizeUsername(faker.Username()), faker.Number(100, 999)),
			Password: opts.Password,
		})
		if err != nil {
			return summary, fmt.Errorf("create user: %w", err)
		}
		summary.Users++

		for day := 0; day < opts.DaysPerUser; day++ {
			current = opts.Now.AddDate(0, 0, -day)
			post, err := createPost(posts, faker, user.ID)
			if err != nil {
				return summary, err
			}
			summary.Posts++

			if len(categoryIDs) > 0 {
				pick := categoryIDs[faker.Number(0, len(categoryIDs)-1)]
				if _, err := categories.Link(post.ID, []uint{pick}); err != nil {
					return summary, fmt.Errorf("link category: %w", err)
				}
			}

			for c := 0; c < opts.CommentsPerPost; c++ {
				if _, err := comments.Create(service.CommentInput{
					PostID: post.ID,
					Author: truncate(faker.FirstName()+" "+faker.LastName(), 30),
					Body:   truncate(faker.Sentence(10), 500),
				}); err != nil {
					return summary, fmt.Errorf("create comment: %w", err)
				}
				summary.Comments++
			}
		}
	}
	return summary, nil
}

func createPost(posts *service.PostService, faker *gofakeit.Faker, userID uint) (*db.Post, error) {
	status := db.PostStatusPublished
	if faker.Bool() {
		status = db.PostStatusStored
	}
	content := faker.Paragraph(2, 3, 12, "\n\n")

	// 随机标题可能撞车，换一个再试
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		title := truncate(fmt.Sprintf("%s %s %d", faker.BuzzWord(), faker.Noun(), faker.Number(1, 9999)), 30)
		post, err := posts.Create(service.PostInput{
			Title:   &title,
			Content: &content,
			Status:  &status,
			UserID:  userID,
		})
		if err == nil {
			return post, nil
		}
		if apperr.From(err).Code != apperr.CodePostConflict {
			return nil, fmt.Errorf("create post: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("create post: %w", lastErr)
}

func ensureCategories(categories *service.CategoryService) ([]uint, int, error) {
	created := 0
	for _, name := range seedCategories {
		if _, err := categories.Create(name); err != nil {
			if apperr.From(err).Code == apperr.CodeCategoryConflict {
				continue
			}
			return nil, created, fmt.Errorf("create category %s: %w", name, err)
		}
		created++
	}

	all, err := categories.List()
	if err != nil {
		return nil, created, err
	}
	ids := make([]uint, 0, len(all))
	for _, c := range all {
		ids = append(ids, c.ID)
	}
	return ids, created, nil
}

func sanitizeUsername(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			return r
		}
		return -1
	}, name)
	if len(name) < 2 {
		name = "user"
	}
	return truncate(name, 24)
}

func truncate(s string, max int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= max {
		return string(runes)
	}
	return strings.TrimSpace(string(runes[:max]))
}
