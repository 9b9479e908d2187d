package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/postboard/internal/apperr"
	"github.com/postboard/internal/service"
)

// multipart 头部与分隔符的额外空间
const multipartOverhead = 1 << 20

var errBodyTooLarge = apperr.New(http.StatusRequestEntityTooLarge, apperr.CodePayloadTooLarge, "request body too large")

// UploadImage 处理图片上传请求，文件本体写入存储，数据库只记录地址
func (a *API) UploadImage(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}

	limit := a.images.MaxBytes() + multipartOverhead
	if c.Request.ContentLength > limit {
		respondError(c, errBodyTooLarge)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	file, err := c.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(c, errBodyTooLarge)
			return
		}
		respondError(c, apperr.FieldError("image", "no image was uploaded"))
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer src.Close()

	record, err := a.images.Upload(c.Request.Context(), uid, service.ImageUpload{
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Size:        file.Size,
		Body:        src,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "image uploaded", "image": record})
}

// GetImages 分页获取图片列表
func (a *API) GetImages(c *gin.Context) {
	result, err := a.images.List(service.ImageFilter{
		UserID:  parseUintQuery(c, "user"),
		Page:    parseIntQuery(c, "page"),
		PerPage: parseIntQuery(c, "per_page"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"images":      result.Items,
		"total":       result.Total,
		"page":        result.Page,
		"per_page":    result.PerPage,
		"total_pages": result.TotalPages,
	})
}

// GetImage 获取单张图片信息
func (a *API) GetImage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	record, err := a.images.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"image": record})
}

// DeleteImage 删除图片，仅上传者可操作
func (a *API) DeleteImage(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := a.images.Delete(c.Request.Context(), id, uid); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
