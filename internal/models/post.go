package models

import "time"

// Post is a blog article addressed by its slug.
type Post struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Title     string    `json:"title" gorm:"type:varchar(200);not null" bson:"title"`
	Slug      string    `json:"slug" gorm:"uniqueIndex;type:varchar(255);not null" bson:"slug"`
	Content   string    `json:"content" gorm:"type:text;not null" bson:"content"`
	Category  string    `json:"category" gorm:"index;type:varchar(100)" bson:"category"`
	Tags      []string  `json:"tags" gorm:"serializer:json" bson:"tags"`
	AuthorID  string    `json:"authorId" gorm:"index;type:varchar(36);not null" bson:"author_id"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}
