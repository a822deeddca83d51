package repositories

import (
	"context"
	"errors"
	"fmt"

	"blog/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMPostRepository is a GORM implementation of PostRepository.
type GORMPostRepository struct {
	db *gorm.DB
}

// NewGORMPostRepository creates a new instance of GORMPostRepository.
func NewGORMPostRepository(db *gorm.DB) *GORMPostRepository {
	return &GORMPostRepository{
		db: db,
	}
}

// GetAll retrieves all posts from the database.
func (r *GORMPostRepository) GetAll(ctx context.Context) ([]models.Post, error) {
	return r.list(ctx, r.db.WithContext(ctx))
}

// GetByAuthor retrieves the posts written by authorID.
func (r *GORMPostRepository) GetByAuthor(ctx context.Context, authorID string) ([]models.Post, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("author_id = ?", authorID))
}

// GetByCategory retrieves the posts filed under category.
func (r *GORMPostRepository) GetByCategory(ctx context.Context, category string) ([]models.Post, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("category = ?", category))
}

// GetByID retrieves a single post by its ID from the database.
func (r *GORMPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	return r.first(ctx, "id = ?", id)
}

// GetBySlug retrieves a single post by its slug from the database.
func (r *GORMPostRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return r.first(ctx, "slug = ?", slug)
}

// Create creates a new post in the database.
func (r *GORMPostRepository) Create(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("slug %s: %w", post.Slug, ErrDuplicate)
		}
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// Update updates an existing post in the database.
func (r *GORMPostRepository) Update(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).Model(post).Select("*").Omit("id", "created_at").Updates(post)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("slug %s: %w", post.Slug, ErrDuplicate)
		}
		return fmt.Errorf("failed to update post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("post with ID %s: %w", post.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a post and its comments.
func (r *GORMPostRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Comment{}, "post_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete comments of post %s: %w", id, err)
		}
		res := tx.Delete(&models.Post{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete post: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("post with ID %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

func (r *GORMPostRepository) list(_ context.Context, q *gorm.DB) ([]models.Post, error) {
	var posts []models.Post
	if err := q.Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

func (r *GORMPostRepository) first(ctx context.Context, query string, args ...any) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where(query, args...).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// GORMCommentRepository is a GORM implementation of CommentRepository.
type GORMCommentRepository struct {
	db *gorm.DB
}

// NewGORMCommentRepository creates a new instance of GORMCommentRepository.
func NewGORMCommentRepository(db *gorm.DB) *GORMCommentRepository {
	return &GORMCommentRepository{db: db}
}

// Create stores a new comment.
func (r *GORMCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// GetByPost lists the comments of a post oldest first.
func (r *GORMCommentRepository) GetByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.WithContext(ctx).Where("post_id = ?", postID).Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("failed to list comments for post %s: %w", postID, err)
	}
	return comments, nil
}
