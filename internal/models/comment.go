package models

import "time"

// Comment belongs to a post.
type Comment struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	PostID    string    `json:"postId" gorm:"index;type:varchar(36);not null" bson:"post_id"`
	AuthorID  string    `json:"authorId" gorm:"type:varchar(36);not null" bson:"author_id"`
	Content   string    `json:"content" gorm:"type:text;not null" bson:"content"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}
