package db

import "time"

// Post lifecycle states.
const (
	PostStatusStored    = "STORED"
	PostStatusPublished = "PUBLISHED"
)

// QuotaDayLayout formats the local calendar day a post counts against.
const QuotaDayLayout = "2006-01-02"

// Post 定义了文章模型
// Title 全局唯一；(UserID, QuotaDay) 唯一索引兜底每日一篇的限制
type Post struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Title      string         `gorm:"size:100;uniqueIndex;not null" json:"title"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	Status     string         `gorm:"size:15;not null;default:STORED" json:"status"`
	UserID     uint           `gorm:"not null;uniqueIndex:idx_posts_user_quota_day,priority:1" json:"user"`
	User       User           `json:"-"`
	QuotaDay   string         `gorm:"size:10;not null;uniqueIndex:idx_posts_user_quota_day,priority:2" json:"-"`
	Links      []CategoryPost `gorm:"foreignKey:PostID" json:"-"`
	Categories []Category     `gorm:"-" json:"categories"`
	CreatedAt  time.Time      `gorm:"index" json:"created"`
	UpdatedAt  time.Time      `json:"updated"`
}

// PopulateDerivedFields 根据关联表填充分类列表
func (p *Post) PopulateDerivedFields() {
	categories := make([]Category, 0, len(p.Links))
	for _, link := range p.Links {
		if link.Category.ID == 0 {
			continue
		}
		categories = append(categories, link.Category)
	}
	p.Categories = categories
}

// ValidPostStatus reports whether status is one of the lifecycle states.
func ValidPostStatus(status string) bool {
	return status == PostStatusStored || status == PostStatusPublished
}
