package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/postboard/internal/apperr"
	"github.com/postboard/internal/db"
	"github.com/postboard/internal/middleware"
	"github.com/postboard/internal/service"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup 注册新账号并返回访问令牌
func (a *API) Signup(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := a.users.Register(service.RegisterInput{Username: req.Username, Password: req.Password})
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := a.tokens.Issue(user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "account created",
		"user":    user,
		"token":   token,
	})
}

// Login 校验账号密码，签发令牌并建立会话
func (a *API) Login(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := a.users.Authenticate(req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := a.tokens.Issue(user)
	if err != nil {
		respondError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "login succeeded",
		"user":       user,
		"token":      token,
		"expires_in": int(a.tokens.TTL().Seconds()),
	})
}

// Logout 清除会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the authenticated account.
func (a *API) Me(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := a.users.Get(uid)
	if err != nil {
		if apperr.From(err).Code == apperr.CodeNotFound {
			respondError(c, apperr.NotAuthenticated("the account behind these credentials no longer exists"))
			return
		}
		respondError(c, err)
		return
	}

	var posts int64
	if err := a.db.Model(&db.Post{}).Where("user_id = ?", uid).Count(&posts).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "post_count": posts})
}
