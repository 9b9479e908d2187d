package service

import (
	"errors"
	"strings"
	"time"

	"github.com/postboard/internal/apperr"
	"github.com/postboard/internal/db"
	"github.com/postboard/internal/observability"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxPostsPerDay 每个用户每个自然日允许创建的文章数量
const MaxPostsPerDay = 1

var (
	ErrPostNotFound     = apperr.NotFound("post")
	ErrCategoryNotFound = apperr.NotFound("category")
	ErrUserNotFound     = apperr.NotFound("user")
)

// PostService wraps post related database operations.
type PostService struct {
	db  *gorm.DB
	now func() time.Time
	loc *time.Location
}

// PostFilter describes filters for listing posts.
type PostFilter struct {
	Search  string
	Status  string
	UserID  uint
	Page    int
	PerPage int
}

// PostListResult aggregates paginated list data and counters.
type PostListResult struct {
	Posts          []db.Post
	Total          int64
	PublishedCount int64
	StoredCount    int64
	TotalPages     int
	Page           int
	PerPage        int
}

// PostInput represents fields accepted when creating or updating a post.
// Nil fields are treated as absent, which only a partial update allows.
type PostInput struct {
	Title   *string
	Content *string
	Status  *string
	UserID  uint
}

// NewPostService creates a PostService instance.
func NewPostService(gdb *gorm.DB) *PostService {
	return &PostService{db: gdb, now: time.Now, loc: time.Local}
}

// WithClock overrides the time source used for the daily quota.
func (s *PostService) WithClock(now func() time.Time) *PostService {
	if now != nil {
		s.now = now
	}
	return s
}

// WithLocation sets the zone whose calendar days the quota is counted in.
func (s *PostService) WithLocation(loc *time.Location) *PostService {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// Get fetches a post by id with its owner and categories.
func (s *PostService) Get(id uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.Preload("User").Preload("Links.Category").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	post.PopulateDerivedFields()
	return &post, nil
}

// List provides paginated posts, newest first, with per-status counters.
func (s *PostService) List(filter PostFilter) (*PostListResult, error) {
	page, perPage := normalizePage(filter.Page, filter.PerPage)
	result := &PostListResult{Page: page, PerPage: perPage}

	status := strings.ToUpper(strings.TrimSpace(filter.Status))
	if status != "" && !db.ValidPostStatus(status) {
		return nil, apperr.FieldError("status", "must be one of STORED, PUBLISHED")
	}
	filter.Status = status

	if err := s.applyFilters(s.db.Model(&db.Post{}), filter, true).Count(&result.Total).Error; err != nil {
		return nil, err
	}

	var posts []db.Post
	if err := s.applyFilters(s.db.Model(&db.Post{}), filter, true).
		Preload("Links.Category").
		Order("posts.created_at desc, posts.id desc").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].PopulateDerivedFields()
	}

	withoutStatus := filter
	withoutStatus.Status = ""
	if err := s.applyFilters(s.db.Model(&db.Post{}), withoutStatus, false).
		Where("posts.status = ?", db.PostStatusPublished).
		Count(&result.PublishedCount).Error; err != nil {
		return nil, err
	}
	if err := s.applyFilters(s.db.Model(&db.Post{}), withoutStatus, false).
		Where("posts.status = ?", db.PostStatusStored).
		Count(&result.StoredCount).Error; err != nil {
		return nil, err
	}

	result.TotalPages = totalPages(result.Total, perPage)
	result.Posts = posts
	return result, nil
}

// ListByCategory returns posts linked to a category, newest post first.
func (s *PostService) ListByCategory(categoryID uint) ([]db.Post, error) {
	var category db.Category
	if err := s.db.First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	var posts []db.Post
	if err := s.db.Model(&db.Post{}).
		Joins("JOIN category_posts ON category_posts.post_id = posts.id").
		Where("category_posts.category_id = ?", categoryID).
		Preload("Links.Category").
		Order("posts.created_at desc, posts.id desc").
		Find(&posts).Error; err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].PopulateDerivedFields()
	}
	return posts, nil
}

// CountCreatedOn counts posts the user created during day's calendar date.
func (s *PostService) CountCreatedOn(userID uint, day time.Time) (int64, error) {
	return s.countCreatedOn(s.db, userID, day)
}

func (s *PostService) countCreatedOn(tx *gorm.DB, userID uint, day time.Time) (int64, error) {
	local := day.In(s.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 0, 1)

	var count int64
	err := tx.Model(&db.Post{}).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, start, end).
		Count(&count).Error
	return count, err
}

// Create validates input and persists a new post owned by input.UserID.
// Field validation runs first, then the daily quota, then the title check.
func (s *PostService) Create(input PostInput) (*db.Post, error) {
	title, content, status, err := validatePostInput(input, nil, true)
	if err != nil {
		return nil, err
	}
	if status == "" {
		status = db.PostStatusStored
	}

	now := s.now().In(s.loc)
	post := db.Post{
		Title:     title,
		Content:   content,
		Status:    status,
		UserID:    input.UserID,
		QuotaDay:  now.Format(db.QuotaDayLayout),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var owner db.User
		if err := tx.First(&owner, input.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		count, err := s.countCreatedOn(tx, owner.ID, now)
		if err != nil {
			return err
		}
		if count >= MaxPostsPerDay {
			observability.RecordRejection(observability.RuleDailyQuota)
			return apperr.DailyPostLimit(owner.Username, MaxPostsPerDay)
		}

		if err := s.ensureTitleAvailable(tx, title, 0); err != nil {
			return err
		}

		post.User = owner
		return tx.Omit(clause.Associations).Create(&post).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = s.explainDuplicate(title, 0, post.User.Username)
	}
	if err != nil {
		return nil, err
	}

	return s.Get(post.ID)
}

// Update applies input to an existing post. A full update requires title and
// content; a partial update only touches the fields present.
func (s *PostService) Update(id uint, input PostInput, partial bool) (*db.Post, error) {
	var existing db.Post
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	var current *db.Post
	if partial {
		current = &existing
	}
	title, content, status, err := validatePostInput(input, current, false)
	if err != nil {
		return nil, err
	}

	existing.Title = title
	existing.Content = content
	if status != "" {
		existing.Status = status
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.ensureTitleAvailable(tx, existing.Title, existing.ID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(&existing).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = s.explainDuplicate(existing.Title, existing.ID, "")
	}
	if err != nil {
		return nil, err
	}

	return s.Get(existing.ID)
}

// Delete removes a post together with its comments and category links.
func (s *PostService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var post db.Post
		if err := tx.Select("id").First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&db.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&db.CategoryPost{}).Error; err != nil {
			return err
		}
		return tx.Delete(&db.Post{}, id).Error
	})
}

func (s *PostService) ensureTitleAvailable(tx *gorm.DB, title string, excludeID uint) error {
	query := tx.Model(&db.Post{}).Where("title = ?", title)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		observability.RecordRejection(observability.RuleTitleConflict)
		return apperr.PostConflict(title)
	}
	return nil
}

// explainDuplicate maps a unique-index violation raised by a concurrent writer
// back to the rule it broke. It runs after the transaction rolled back.
func (s *PostService) explainDuplicate(title string, excludeID uint, username string) error {
	if err := s.ensureTitleAvailable(s.db, title, excludeID); err != nil {
		return err
	}
	if excludeID != 0 {
		// Updates never change the quota day, so only the title can collide.
		observability.RecordRejection(observability.RuleTitleConflict)
		return apperr.PostConflict(title)
	}
	observability.RecordRejection(observability.RuleDailyQuota)
	return apperr.DailyPostLimit(username, MaxPostsPerDay)
}

func (s *PostService) applyFilters(query *gorm.DB, filter PostFilter, includeStatus bool) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("(posts.title LIKE ? OR posts.content LIKE ?)", like, like)
	}
	if includeStatus && filter.Status != "" {
		query = query.Where("posts.status = ?", filter.Status)
	}
	if filter.UserID != 0 {
		query = query.Where("posts.user_id = ?", filter.UserID)
	}
	return query
}

// validatePostInput collects every field error of the request. current is
// the stored post for partial updates and nil otherwise.
func validatePostInput(input PostInput, current *db.Post, creating bool) (title, content, status string, err error) {
	errs := apperr.NewFieldErrors()

	switch {
	case input.Title != nil:
		title = checkLength(errs, "title", *input.Title, 2, 30)
	case current != nil:
		title = current.Title
	default:
		errs.Add("title", "this field is required")
	}

	switch {
	case input.Content != nil:
		content = checkLength(errs, "content", *input.Content, 5, 0)
	case current != nil:
		content = current.Content
	default:
		errs.Add("content", "this field is required")
	}

	if input.Status != nil {
		status = strings.TrimSpace(*input.Status)
		if !db.ValidPostStatus(status) {
			errs.Add("status", "must be one of STORED (kept), PUBLISHED (published)")
		}
	}

	if creating && input.UserID == 0 {
		errs.Add("user", "this field is required")
	}

	return title, content, status, errs.Err()
}
