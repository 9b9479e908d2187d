package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type categoryRequest struct {
	Name string `json:"name"`
}

// GetCategories 获取分类列表
func (a *API) GetCategories(c *gin.Context) {
	categories, err := a.categories.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// CreateCategory 创建新分类
func (a *API) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := a.categories.Create(req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "category created", "category": category})
}

// DeleteCategory 删除分类，文章本身保留
func (a *API) DeleteCategory(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := a.categories.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetCategoryPosts 按分类筛选文章，最新的在前
func (a *API) GetCategoryPosts(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	category, err := a.categories.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}

	posts, err := a.posts.ListByCategory(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category, "posts": posts, "total": len(posts)})
}
