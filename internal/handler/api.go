package handler

import (
	"time"

	"github.com/postboard/internal/service"
	"github.com/postboard/internal/storage"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db         *gorm.DB
	users      *service.UserService
	tokens     *service.TokenService
	posts      *service.PostService
	comments   *service.CommentService
	categories *service.CategoryService
	images     *service.ImageService
	policy     *service.AccessPolicy
	renderer   *service.Renderer
}

// Options configures the services behind the handlers.
type Options struct {
	JWTSecret      string
	TokenTTL       time.Duration
	Store          storage.Store
	MaxUploadBytes int64
	BlockStartHour int
	BlockEndHour   int
	Location       *time.Location
	// PasswordHashCost overrides the bcrypt cost; zero keeps the default.
	PasswordHashCost int
	// Now overrides the clock used for quotas and tokens.
	Now func() time.Time
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	store := opts.Store
	if store == nil {
		store = storage.NewLocalStore("", "")
	}

	return &API{
		db:         gdb,
		users:      service.NewUserService(gdb).WithHashCost(opts.PasswordHashCost),
		tokens:     service.NewTokenService(opts.JWTSecret, opts.TokenTTL).WithClock(now),
		posts:      service.NewPostService(gdb).WithClock(now).WithLocation(loc),
		comments:   service.NewCommentService(gdb),
		categories: service.NewCategoryService(gdb),
		images:     service.NewImageService(gdb, store, opts.MaxUploadBytes).WithClock(now),
		policy:     service.NewAccessPolicy(opts.BlockStartHour, opts.BlockEndHour).WithLocation(loc),
		renderer:   service.NewRenderer(),
	}
}

// Tokens exposes the token service for the authentication middleware.
func (a *API) Tokens() *service.TokenService {
	return a.tokens
}

// Policy exposes the access policy for the time-window middleware.
func (a *API) Policy() *service.AccessPolicy {
	return a.policy
}

// Users exposes the account service, mainly for bootstrap tooling and tests.
func (a *API) Users() *service.UserService {
	return a.users
}
