package models

import "time"

// Post represents a blog article written by the administrator.
// Date is a display string fixed at creation time and never updated afterwards.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Title     string    `gorm:"size:250;uniqueIndex;not null" json:"title"`
	Subtitle  string    `gorm:"size:250;not null" json:"subtitle"`
	Date      string    `gorm:"size:250;not null" json:"date"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	ImgURL    string    `gorm:"size:250;not null" json:"img_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"author"`
	Comments  []Comment `gorm:"foreignKey:PostID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments"`
}

func (Post) TableName() string { return "blog_posts" }

// DateFormat renders creation dates the way the blog always has, e.g. "August 29, 2026".
const DateFormat = "January 02, 2006"

// PublicView returns the export representation of the post.
func (p *Post) PublicView() map[string]interface{} {
	return map[string]interface{}{
		"id":        p.ID,
		"author_id": p.AuthorID,
		"title":     p.Title,
		"subtitle":  p.Subtitle,
		"date":      p.Date,
		"body":      p.Body,
		"img_url":   p.ImgURL,
	}
}
