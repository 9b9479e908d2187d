package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/postboard/internal/apperr"
	"github.com/postboard/internal/db"
	"github.com/postboard/internal/observability"
	"github.com/postboard/internal/storage"
	_ "golang.org/x/image/webp"
	"gorm.io/gorm"
)

// DefaultMaxImageBytes caps uploads when no explicit limit is configured.
const DefaultMaxImageBytes int64 = 10 << 20

var ErrImageNotFound = apperr.NotFound("image")

var imageExtensions = map[string]string{
	"png":  ".png",
	"jpeg": ".jpg",
	"gif":  ".gif",
	"webp": ".webp",
}

// ImageService 负责图片上传、元数据记录与删除。
type ImageService struct {
	db       *gorm.DB
	store    storage.Store
	maxBytes int64
	now      func() time.Time
}

// ImageUpload describes one uploaded file.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ImageFilter describes filters for listing images.
type ImageFilter struct {
	UserID  uint
	Page    int
	PerPage int
}

// ImageListResult aggregates paginated image results.
type ImageListResult struct {
	Items      []db.Image
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// NewImageService creates an ImageService writing bytes to store.
func NewImageService(gdb *gorm.DB, store storage.Store, maxBytes int64) *ImageService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &ImageService{db: gdb, store: store, maxBytes: maxBytes, now: time.Now}
}

// WithClock overrides the clock used for storage key prefixes.
func (s *ImageService) WithClock(now func() time.Time) *ImageService {
	if now != nil {
		s.now = now
	}
	return s
}

// MaxBytes returns the upload size limit.
func (s *ImageService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload validates the file, stores its bytes and records the resulting URL.
func (s *ImageService) Upload(ctx context.Context, userID uint, upload ImageUpload) (*db.Image, error) {
	if upload.Body == nil {
		return nil, apperr.FieldError("image", "no image was uploaded")
	}
	if upload.Size > s.maxBytes {
		return nil, s.tooLarge()
	}

	declared := strings.ToLower(strings.TrimSpace(upload.ContentType))
	if declared != "" && !strings.HasPrefix(declared, "image/") {
		return nil, apperr.FieldError("image", "only image files may be uploaded")
	}

	data, err := io.ReadAll(io.LimitReader(upload.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, s.tooLarge()
	}
	if len(data) == 0 {
		return nil, apperr.FieldError("image", "the uploaded file is empty")
	}

	sniffed := http.DetectContentType(data)
	if !strings.HasPrefix(sniffed, "image/") {
		return nil, apperr.FieldError("image", "only image files may be uploaded")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.FieldError("image", "unsupported or corrupt image")
	}
	ext, ok := imageExtensions[format]
	if !ok {
		return nil, apperr.FieldError("image", "unsupported image format "+format)
	}

	key := fmt.Sprintf("%s-%s%s", s.now().Format("20060102"), uuid.New().String(), ext)
	contentType := "image/" + format
	url, err := s.store.Put(ctx, key, bytes.NewReader(data), contentType)
	if err != nil {
		return nil, err
	}

	record := db.Image{
		URL:         url,
		StorageKey:  key,
		ContentType: contentType,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Size:        int64(len(data)),
	}
	if userID != 0 {
		uploader := userID
		record.UserID = &uploader
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if delErr := s.store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			observability.FromContext(ctx).Warn("failed to remove orphaned upload", "key", key, "error", delErr)
		}
		return nil, err
	}

	observability.ImageBytesUploaded.Add(float64(record.Size))
	return &record, nil
}

// Get fetches image metadata by id.
func (s *ImageService) Get(id uint) (*db.Image, error) {
	var record db.Image
	if err := s.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return &record, nil
}

// List returns images newest first.
func (s *ImageService) List(filter ImageFilter) (*ImageListResult, error) {
	page, perPage := normalizePage(filter.Page, filter.PerPage)
	result := &ImageListResult{Page: page, PerPage: perPage}

	query := s.db.Model(&db.Image{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if err := query.Count(&result.Total).Error; err != nil {
		return nil, err
	}
	if err := query.Order("created_at desc, id desc").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&result.Items).Error; err != nil {
		return nil, err
	}

	result.TotalPages = totalPages(result.Total, perPage)
	return result, nil
}

// Delete removes an image uploaded by userID, including the stored bytes.
func (s *ImageService) Delete(ctx context.Context, id, userID uint) error {
	record, err := s.Get(id)
	if err != nil {
		return err
	}
	if record.UserID == nil || *record.UserID != userID {
		observability.RecordRejection(observability.RuleOwnership)
		return apperr.PermissionDenied("only the uploader may delete this image")
	}

	if err := s.db.WithContext(ctx).Delete(&db.Image{}, record.ID).Error; err != nil {
		return err
	}
	if err := s.store.Delete(ctx, record.StorageKey); err != nil {
		observability.FromContext(ctx).Warn("failed to remove stored image", "key", record.StorageKey, "error", err)
	}
	return nil
}

func (s *ImageService) tooLarge() *apperr.Error {
	return apperr.New(http.StatusRequestEntityTooLarge, apperr.CodePayloadTooLarge,
		fmt.Sprintf("image exceeds the %d MB limit", s.maxBytes>>20))
}
