package db

import "time"

// Category 定义了文章分类
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:30;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"updated"`
}

// CategoryPost 关联分类与文章，仅用于按分类筛选
type CategoryPost struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PostID     uint      `gorm:"not null;uniqueIndex:idx_category_posts_pair,priority:1" json:"post"`
	CategoryID uint      `gorm:"not null;index;uniqueIndex:idx_category_posts_pair,priority:2" json:"category"`
	Category   Category  `json:"-"`
	CreatedAt  time.Time `json:"created"`
	UpdatedAt  time.Time `json:"updated"`
}
