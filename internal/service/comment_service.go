package service

import (
	"errors"

	"github.com/postboard/internal/apperr"
	"github.com/postboard/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrCommentNotFound = apperr.NotFound("comment")

// CommentService manages comments attached to posts.
type CommentService struct {
	db *gorm.DB
}

// CommentInput carries the writable comment fields.
type CommentInput struct {
	PostID uint
	Author string
	Body   string
}

// NewCommentService creates a CommentService instance.
func NewCommentService(gdb *gorm.DB) *CommentService {
	return &CommentService{db: gdb}
}

// ListByPost returns the comments of a post in the order they were written.
func (s *CommentService) ListByPost(postID uint) ([]db.Comment, error) {
	if err := s.ensurePost(s.db, postID); err != nil {
		return nil, err
	}

	var comments []db.Comment
	if err := s.db.Where("post_id = ?", postID).
		Order("written_at asc, id asc").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// Get fetches a single comment.
func (s *CommentService) Get(id uint) (*db.Comment, error) {
	var comment db.Comment
	if err := s.db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return &comment, nil
}

// Create validates input and stores a new comment.
func (s *CommentService) Create(input CommentInput) (*db.Comment, error) {
	author, body, err := validateCommentInput(input)
	if err != nil {
		return nil, err
	}

	comment := db.Comment{PostID: input.PostID, Author: author, Body: body}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.ensurePost(tx, input.PostID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(&comment).Error
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Update replaces author and body of a comment. The parent post is fixed.
func (s *CommentService) Update(id uint, input CommentInput) (*db.Comment, error) {
	comment, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	input.PostID = comment.PostID
	author, body, err := validateCommentInput(input)
	if err != nil {
		return nil, err
	}

	comment.Author = author
	comment.Body = body
	if err := s.db.Omit(clause.Associations).Save(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// Delete removes a comment.
func (s *CommentService) Delete(id uint) error {
	result := s.db.Delete(&db.Comment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func (s *CommentService) ensurePost(tx *gorm.DB, postID uint) error {
	var count int64
	if err := tx.Model(&db.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrPostNotFound
	}
	return nil
}

func validateCommentInput(input CommentInput) (string, string, error) {
	errs := apperr.NewFieldErrors()
	author := checkLength(errs, "author", input.Author, 2, 30)
	body := checkLength(errs, "body", input.Body, 15, 500)
	if input.PostID == 0 {
		errs.Add("post", "this field is required")
	}
	return author, body, errs.Err()
}
