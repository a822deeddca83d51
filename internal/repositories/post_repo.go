package repositories

import (
	"context"

	"blog/internal/models"
)

// PostRepository defines the interface for post data access.
// List methods return posts newest first.
type PostRepository interface {
	GetAll(ctx context.Context) ([]models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	GetByAuthor(ctx context.Context, authorID string) ([]models.Post, error)
	GetByCategory(ctx context.Context, category string) ([]models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
}

// CommentRepository defines the interface for comment data access.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	// GetByPost returns the comments of a post oldest first.
	GetByPost(ctx context.Context, postID string) ([]models.Comment, error)
}
