package service

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/postboard/internal/apperr"
	"github.com/postboard/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = apperr.New(http.StatusUnauthorized, apperr.CodeInvalidCredentials, "invalid username or password")

	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// UserService 处理账号注册与登录校验
type UserService struct {
	db   *gorm.DB
	cost int
}

// RegisterInput carries signup fields.
type RegisterInput struct {
	Username string
	Password string
}

// NewUserService creates a UserService instance.
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb, cost: bcrypt.DefaultCost}
}

// WithHashCost lowers the bcrypt cost, mainly for tests.
func (s *UserService) WithHashCost(cost int) *UserService {
	if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
		s.cost = cost
	}
	return s
}

// Register creates an account with a bcrypt-hashed password.
func (s *UserService) Register(input RegisterInput) (*db.User, error) {
	errs := apperr.NewFieldErrors()
	username := checkLength(errs, "username", input.Username, 3, 30)
	if !errs.Has("username") && !usernamePattern.MatchString(username) {
		errs.Add("username", "may only contain letters, digits and _ . -")
	}
	if utf8.RuneCountInString(input.Password) < 8 {
		errs.Add("password", "must be at least 8 characters")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&db.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, usernameConflict(username)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, err
	}

	user := db.User{Username: username, Password: string(hashed)}
	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, usernameConflict(username)
		}
		return nil, err
	}
	return &user, nil
}

// EnsureAccount creates the bootstrap account when it does not exist yet.
// Both values blank means no bootstrap account is configured. The credentials
// go through the same validation as signup.
func (s *UserService) EnsureAccount(username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" && strings.TrimSpace(password) == "" {
		return false, nil
	}

	if username != "" {
		var count int64
		if err := s.db.Model(&db.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return false, err
		}
		if count > 0 {
			return false, nil
		}
	}

	if _, err := s.Register(RegisterInput{Username: username, Password: password}); err != nil {
		return false, err
	}
	return true, nil
}

// Authenticate verifies a username/password pair.
func (s *UserService) Authenticate(username, password string) (*db.User, error) {
	var user db.User
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Get fetches a user by id.
func (s *UserService) Get(id uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func usernameConflict(username string) *apperr.Error {
	return apperr.Conflict(apperr.CodeUsernameConflict, fmt.Sprintf("username '%s' is already taken", username))
}
