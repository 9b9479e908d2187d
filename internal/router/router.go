package router

import (
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/postboard/internal/handler"
	"github.com/postboard/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const sessionCookieName = "postboard_session"

// Options configures the HTTP surface around the handlers.
type Options struct {
	SessionSecret string
	// RedisClient backs the write rate limiter; nil disables it.
	RedisClient        redis.Cmdable
	RateLimitPerMinute int
	UploadDir          string
	UploadURLPath      string
	// Now overrides the clock consulted by the time-window check.
	Now func() time.Time
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Metrics(),
	)

	// 配置会话中间件
	secret := opts.SessionSecret
	if secret == "" {
		secret = "postboard-dev-secret"
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: 7 * 24 * 60 * 60})
	r.Use(sessions.Sessions(sessionCookieName, store))
	r.Use(middleware.Authenticate(api.Tokens()))

	// 本地存储的图片直接由静态路由提供
	if opts.UploadDir != "" && opts.UploadURLPath != "" {
		r.Static(opts.UploadURLPath, opts.UploadDir)
	}

	writes := middleware.RateLimit(opts.RedisClient, opts.RateLimitPerMinute, time.Minute, "writes")

	r.GET("/ping", api.Ping)
	r.GET("/healthz", api.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	accounts := r.Group("/accounts")
	{
		accounts.POST("/signup", writes, api.Signup)
		accounts.POST("/login", writes, api.Login)
		accounts.POST("/logout", api.Logout)
		accounts.GET("/me", middleware.RequireAuth(), api.Me)
	}

	posts := r.Group("/posts")
	{
		posts.GET("", api.GetPosts)
		posts.POST("", middleware.RequireAuth(), writes, api.CreatePost)

		// 详情接口：先检查时间窗口，再检查登录，最后由处理函数校验作者
		detail := posts.Group("/:id",
			middleware.AllowedTime(api.Policy(), opts.Now),
			middleware.RequireAuthForWrites(),
		)
		{
			detail.GET("", api.GetPost)
			detail.HEAD("", api.GetPost)
			detail.OPTIONS("", api.PostOptions)
			detail.PUT("", writes, api.UpdatePost)
			detail.PATCH("", writes, api.PatchPost)
			detail.DELETE("", writes, api.DeletePost)
		}

		posts.GET("/:id/comments", api.GetPostComments)
		posts.POST("/:id/comments", writes, api.CreateComment)
		posts.PUT("/:id/categories", middleware.RequireAuth(), writes, api.SetPostCategories)
	}

	comments := r.Group("/comments/:id")
	{
		comments.GET("", api.GetComment)
		comments.PUT("", middleware.RequireAuth(), writes, api.UpdateComment)
		comments.DELETE("", middleware.RequireAuth(), writes, api.DeleteComment)
	}

	categories := r.Group("/categories")
	{
		categories.GET("", api.GetCategories)
		categories.POST("", middleware.RequireAuth(), writes, api.CreateCategory)
		categories.DELETE("/:id", middleware.RequireAuth(), writes, api.DeleteCategory)
		categories.GET("/:id/posts", api.GetCategoryPosts)
	}

	images := r.Group("/images")
	{
		images.GET("", api.GetImages)
		images.POST("", middleware.RequireAuth(), writes, api.UploadImage)
		images.GET("/:id", api.GetImage)
		images.DELETE("/:id", middleware.RequireAuth(), writes, api.DeleteImage)
	}

	return r
}
