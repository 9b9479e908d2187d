package db

import "time"

// Image 只保存外部存储中的图片地址，不保存二进制内容
type Image struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	URL         string    `gorm:"size:500;not null" json:"image_url"`
	StorageKey  string    `gorm:"size:255;not null" json:"-"`
	UserID      *uint     `gorm:"index" json:"user"`
	ContentType string    `gorm:"size:100" json:"content_type"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created"`
	UpdatedAt   time.Time `json:"updated"`
}

// TableName 自定义表名以保持命名一致。
func (Image) TableName() string {
	return "images"
}
