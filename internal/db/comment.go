package db

import "time"

// Comment 属于一篇文章，作者名由调用方自由填写
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PostID     uint      `gorm:"not null;index" json:"post"`
	Post       Post      `json:"-"`
	Author     string    `gorm:"size:30;not null" json:"author"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	WrittenAt  time.Time `gorm:"autoCreateTime" json:"written_time"`
	ModifiedAt time.Time `gorm:"autoUpdateTime" json:"modified_time"`
}
