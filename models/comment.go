package models

import "time"

// Comment represents a reply attached to a post. It is only ever rendered in
// the context of its parent post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"author"`
}

func (Comment) TableName() string { return "comments" }

// PublicView returns the export representation of the comment.
func (c *Comment) PublicView() map[string]interface{} {
	return map[string]interface{}{
		"id":        c.ID,
		"author_id": c.AuthorID,
		"post_id":   c.PostID,
		"text":      c.Text,
	}
}
