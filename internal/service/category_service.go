package service

import (
	"errors"
	"fmt"

	"github.com/postboard/internal/apperr"
	"github.com/postboard/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CategoryService manages categories and their links to posts.
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a CategoryService instance.
func NewCategoryService(gdb *gorm.DB) *CategoryService {
	return &CategoryService{db: gdb}
}

// List returns all categories sorted by name.
func (s *CategoryService) List() ([]db.Category, error) {
	var categories []db.Category
	if err := s.db.Order("name asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Get fetches a category by id.
func (s *CategoryService) Get(id uint) (*db.Category, error) {
	var category db.Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// Create adds a category; names are unique.
func (s *CategoryService) Create(name string) (*db.Category, error) {
	errs := apperr.NewFieldErrors()
	trimmed := checkLength(errs, "name", name, 1, 30)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&db.Category{}).Where("name = ?", trimmed).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, categoryConflict(trimmed)
	}

	category := db.Category{Name: trimmed}
	if err := s.db.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, categoryConflict(trimmed)
		}
		return nil, err
	}
	return &category, nil
}

// Delete removes a category and its links. Linked posts are kept.
func (s *CategoryService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", id).Delete(&db.CategoryPost{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&db.Category{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCategoryNotFound
		}
		return nil
	})
}

// Link replaces the set of categories attached to a post.
func (s *CategoryService) Link(postID uint, categoryIDs []uint) ([]db.Category, error) {
	ids := uniqueIDs(categoryIDs)

	var categories []db.Category
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var post db.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}

		if len(ids) > 0 {
			if err := tx.Where("id IN ?", ids).Order("name asc").Find(&categories).Error; err != nil {
				return err
			}
			if len(categories) != len(ids) {
				return ErrCategoryNotFound
			}
		}

		if err := tx.Where("post_id = ?", postID).Delete(&db.CategoryPost{}).Error; err != nil {
			return err
		}
		for _, id := range ids {
			link := db.CategoryPost{PostID: postID, CategoryID: id}
			if err := tx.Omit(clause.Associations).Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []db.Category{}
	}
	return categories, nil
}

func categoryConflict(name string) *apperr.Error {
	return apperr.Conflict(apperr.CodeCategoryConflict, fmt.Sprintf("a category named '%s' already exists", name))
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
