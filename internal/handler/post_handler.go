package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/postboard/internal/db"
	"github.com/postboard/internal/middleware"
	"github.com/postboard/internal/service"
)

type postRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Status  *string `json:"status"`
}

func (r postRequest) input(userID uint) service.PostInput {
	return service.PostInput{Title: r.Title, Content: r.Content, Status: r.Status, UserID: userID}
}

type postView struct {
	db.Post
	Author      string   `json:"author,omitempty"`
	ContentHTML string   `json:"content_html,omitempty"`
	Images      []string `json:"images,omitempty"`
}

func (a *API) detailView(post *db.Post) (postView, error) {
	html, err := a.renderer.Render(post.Content)
	if err != nil {
		return postView{}, err
	}
	return postView{
		Post:        *post,
		Author:      post.User.Username,
		ContentHTML: html,
		Images:      service.ImageURLs(post.Content),
	}, nil
}

// GetPosts 获取文章列表
func (a *API) GetPosts(c *gin.Context) {
	result, err := a.posts.List(service.PostFilter{
		Search:  c.Query("search"),
		Status:  c.Query("status"),
		UserID:  parseUintQuery(c, "user"),
		Page:    parseIntQuery(c, "page"),
		PerPage: parseIntQuery(c, "per_page"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":           result.Posts,
		"total":           result.Total,
		"published_count": result.PublishedCount,
		"stored_count":    result.StoredCount,
		"page":            result.Page,
		"per_page":        result.PerPage,
		"total_pages":     result.TotalPages,
	})
}

// CreatePost 创建文章，作者为当前登录用户
func (a *API) CreatePost(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}

	var req postRequest
	if !bindJSON(c, &req) {
		return
	}

	post, err := a.posts.Create(req.input(uid))
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := a.detailView(post)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "post created", "post": view})
}

// GetPost 获取单篇文章
func (a *API) GetPost(c *gin.Context) {
	post, ok := a.loadPost(c)
	if !ok {
		return
	}

	view, err := a.detailView(post)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": view})
}

// PostOptions 返回详情接口支持的方法
func (a *API) PostOptions(c *gin.Context) {
	c.Header("Allow", "GET, HEAD, OPTIONS, PUT, PATCH, DELETE")
	c.Status(http.StatusNoContent)
}

// UpdatePost 全量更新文章
func (a *API) UpdatePost(c *gin.Context) {
	a.updatePost(c, false)
}

// PatchPost 部分更新文章
func (a *API) PatchPost(c *gin.Context) {
	a.updatePost(c, true)
}

func (a *API) updatePost(c *gin.Context, partial bool) {
	post, ok := a.loadOwnedPost(c)
	if !ok {
		return
	}

	var req postRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := a.posts.Update(post.ID, req.input(post.UserID), partial)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := a.detailView(updated)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post updated", "post": view})
}

// DeletePost 删除文章及其评论
func (a *API) DeletePost(c *gin.Context) {
	post, ok := a.loadOwnedPost(c)
	if !ok {
		return
	}

	if err := a.posts.Delete(post.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetPostCategories replaces the categories attached to a post.
func (a *API) SetPostCategories(c *gin.Context) {
	post, ok := a.loadOwnedPost(c)
	if !ok {
		return
	}

	var req struct {
		CategoryIDs []uint `json:"category_ids"`
	}
	if !bindJSON(c, &req) {
		return
	}

	categories, err := a.categories.Link(post.ID, req.CategoryIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "categories updated", "categories": categories})
}

func (a *API) loadPost(c *gin.Context) (*db.Post, bool) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	post, err := a.posts.Get(id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return post, true
}

// loadOwnedPost loads the post and applies the ownership rule before the
// request body is looked at.
func (a *API) loadOwnedPost(c *gin.Context) (*db.Post, bool) {
	post, ok := a.loadPost(c)
	if !ok {
		return nil, false
	}

	uid, _ := middleware.UserID(c)
	if err := a.policy.AuthorizeOwner(c.Request.Method, post.UserID, uid); err != nil {
		respondError(c, err)
		return nil, false
	}
	return post, true
}
