package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/postboard/internal/db"
	"github.com/postboard/internal/middleware"
	"github.com/postboard/internal/service"
)

type commentRequest struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

// GetPostComments 获取文章下的全部评论
func (a *API) GetPostComments(c *gin.Context) {
	postID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	comments, err := a.comments.ListByPost(postID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments, "total": len(comments)})
}

// CreateComment 发表评论，作者名由请求体提供
func (a *API) CreateComment(c *gin.Context) {
	postID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := a.comments.Create(service.CommentInput{PostID: postID, Author: req.Author, Body: req.Body})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "comment created", "comment": comment})
}

// GetComment 获取单条评论
func (a *API) GetComment(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	comment, err := a.comments.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comment": comment})
}

// UpdateComment lets the author of the parent post moderate a comment.
func (a *API) UpdateComment(c *gin.Context) {
	comment, ok := a.loadModeratedComment(c)
	if !ok {
		return
	}

	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := a.comments.Update(comment.ID, service.CommentInput{Author: req.Author, Body: req.Body})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment updated", "comment": updated})
}

// DeleteComment lets the author of the parent post remove a comment.
func (a *API) DeleteComment(c *gin.Context) {
	comment, ok := a.loadModeratedComment(c)
	if !ok {
		return
	}

	if err := a.comments.Delete(comment.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) loadModeratedComment(c *gin.Context) (*db.Comment, bool) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	comment, err := a.comments.Get(id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	post, err := a.posts.Get(comment.PostID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	uid, _ := middleware.UserID(c)
	if err := a.policy.AuthorizeOwner(c.Request.Method, post.UserID, uid); err != nil {
		respondError(c, err)
		return nil, false
	}
	return comment, true
}
