package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/postboard/internal/db"
	"github.com/postboard/internal/handler"
	"github.com/postboard/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

var seoul = time.FixedZone("KST", 9*60*60)

type server struct {
	engine    *gin.Engine
	now       time.Time
	uploadDir string
}

func newServer(t *testing.T, rdb redis.Cmdable, ratePerMinute int) *server {
	t.Helper()

	dsn := fmt.Sprintf("file:router-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	s := &server{
		now:       time.Date(2024, 5, 1, 12, 0, 0, 0, seoul),
		uploadDir: t.TempDir(),
	}
	clock := func() time.Time { return s.now }

	api := handler.NewAPI(gdb, handler.Options{
		JWTSecret:        "router-test-secret",
		TokenTTL:         time.Hour,
		Store:            storage.NewLocalStore(s.uploadDir, "/uploads"),
		BlockStartHour:   22,
		BlockEndHour:     7,
		Location:         seoul,
		Now:              clock,
		PasswordHashCost: bcrypt.MinCost,
	})
	s.engine = SetupRouter(api, Options{
		SessionSecret:      "router-session-secret",
		RedisClient:        rdb,
		RateLimitPerMinute: ratePerMinute,
		UploadDir:          s.uploadDir,
		UploadURLPath:      "/uploads",
		Now:                clock,
	})
	return s
}

func (s *server) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func (s *server) signup(t *testing.T, username string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/accounts/signup", map[string]string{"username": username, "password": "password123"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Token
}

func (s *server) createPost(t *testing.T, token, title string) uint {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/posts", map[string]string{"title": title, "content": "router content"}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body struct {
		Post struct {
			ID uint `json:"id"`
		} `json:"post"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Post.ID
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error.Code
}

func TestPostLifecycle(t *testing.T) {
	s := newServer(t, nil, 0)
	alice := s.signup(t, "alice")
	bob := s.signup(t, "bob")

	id := s.createPost(t, alice, "router post")
	path := fmt.Sprintf("/posts/%d", id)

	rec := s.do(t, http.MethodPost, "/posts", map[string]string{"title": "another post", "content": "router content"}, alice)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "DAILY_POST_LIMIT_EXCEEDED", errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/posts", map[string]string{"title": "router post", "content": "router content"}, bob)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPatch, path, map[string]string{"status": "PUBLISHED"}, bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPatch, path, map[string]string{"status": "PUBLISHED"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPatch, path, map[string]string{"status": "PUBLISHED"}, alice)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/posts?status=published", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"published_count":1`)

	rec = s.do(t, http.MethodDelete, path, nil, alice)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDetailTimeWindow(t *testing.T) {
	s := newServer(t, nil, 0)
	alice := s.signup(t, "alice")
	id := s.createPost(t, alice, "window post")
	path := fmt.Sprintf("/posts/%d", id)

	tests := []struct {
		name   string
		at     time.Time
		status int
	}{
		{name: "late evening", at: time.Date(2024, 5, 1, 23, 0, 0, 0, seoul), status: http.StatusForbidden},
		{name: "window start", at: time.Date(2024, 5, 1, 22, 0, 0, 0, seoul), status: http.StatusForbidden},
		{name: "early morning", at: time.Date(2024, 5, 2, 6, 59, 0, 0, seoul), status: http.StatusForbidden},
		{name: "window end", at: time.Date(2024, 5, 2, 7, 0, 0, 0, seoul), status: http.StatusOK},
		{name: "before start", at: time.Date(2024, 5, 1, 21, 59, 0, 0, seoul), status: http.StatusOK},
		{name: "utc daytime is late in seoul", at: time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC), status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.now = tt.at
			rec := s.do(t, http.MethodGet, path, nil, "")
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	s.now = time.Date(2024, 5, 1, 23, 0, 0, 0, seoul)

	rec := s.do(t, http.MethodGet, "/posts/999", nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code, "window is checked before the post is loaded")
	assert.Equal(t, "PERMISSION_DENIED", errorCode(t, rec))

	rec = s.do(t, http.MethodDelete, path, nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code, "window is checked before authentication")

	for _, method := range []string{http.MethodHead, http.MethodOptions} {
		rec = s.do(t, method, path, nil, "")
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s is inside the window too", method)
	}

	rec = s.do(t, http.MethodGet, "/posts", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code, "list stays available at night")
}

func TestDetailHeadAndOptions(t *testing.T) {
	s := newServer(t, nil, 0)
	alice := s.signup(t, "alice")
	path := fmt.Sprintf("/posts/%d", s.createPost(t, alice, "head post"))

	rec := s.do(t, http.MethodHead, path, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodHead, "/posts/999", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodOptions, path, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Allow"), "DELETE")
}

func TestWriteRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	s := newServer(t, rdb, 2)
	s.signup(t, "alice")
	s.signup(t, "bob")

	rec := s.do(t, http.MethodPost, "/accounts/signup", map[string]string{"username": "carol", "password": "password123"}, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, rec))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	rec = s.do(t, http.MethodGet, "/posts", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code, "reads are not limited")

	mr.FastForward(time.Minute)
	s.signup(t, "carol")
}

func TestServesUploadsAndOperationalEndpoints(t *testing.T) {
	s := newServer(t, nil, 0)

	content := []byte("hello uploads")
	require.NoError(t, os.WriteFile(filepath.Join(s.uploadDir, "example.txt"), content, 0o644))

	rec := s.do(t, http.MethodGet, "/uploads/example.txt", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(content), rec.Body.String())

	rec = s.do(t, http.MethodGet, "/ping", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = s.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "postboard_http_request_duration_seconds")
}
