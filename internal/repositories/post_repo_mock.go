package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"blog/internal/models"

	"github.com/google/uuid"
)

// MockPostRepository is an in-memory implementation of PostRepository.
type MockPostRepository struct {
	posts map[string]models.Post
	mu    sync.RWMutex
}

// NewMockPostRepository creates a new instance of MockPostRepository.
func NewMockPostRepository() *MockPostRepository {
	return &MockPostRepository{
		posts: make(map[string]models.Post),
	}
}

// GetAll returns all posts.
func (r *MockPostRepository) GetAll(_ context.Context) ([]models.Post, error) {
	return r.filter(func(models.Post) bool { return true }), nil
}

// GetByAuthor returns the posts written by authorID.
func (r *MockPostRepository) GetByAuthor(_ context.Context, authorID string) ([]models.Post, error) {
	return r.filter(func(p models.Post) bool { return p.AuthorID == authorID }), nil
}

// GetByCategory returns the posts filed under category.
func (r *MockPostRepository) GetByCategory(_ context.Context, category string) ([]models.Post, error) {
	return r.filter(func(p models.Post) bool { return p.Category == category }), nil
}

// GetByID returns a post by its ID.
func (r *MockPostRepository) GetByID(_ context.Context, id string) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &post, nil
}

// GetBySlug returns a post by its slug.
func (r *MockPostRepository) GetBySlug(_ context.Context, slug string) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.posts {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

// Create adds a new post.
func (r *MockPostRepository) Create(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slugTaken(post.Slug, "") {
		return fmt.Errorf("slug %s: %w", post.Slug, ErrDuplicate)
	}
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	r.posts[post.ID] = *post
	return nil
}

// Update modifies an existing post.
func (r *MockPostRepository) Update(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.posts[post.ID]
	if !ok {
		return fmt.Errorf("post with ID %s: %w", post.ID, ErrNotFound)
	}
	if r.slugTaken(post.Slug, post.ID) {
		return fmt.Errorf("slug %s: %w", post.Slug, ErrDuplicate)
	}
	post.CreatedAt = existing.CreatedAt
	post.UpdatedAt = time.Now()
	r.posts[post.ID] = *post
	return nil
}

// Delete removes a post by its ID.
func (r *MockPostRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return fmt.Errorf("post with ID %s: %w", id, ErrNotFound)
	}
	delete(r.posts, id)
	return nil
}

func (r *MockPostRepository) slugTaken(slug, exceptID string) bool {
	for id, p := range r.posts {
		if p.Slug == slug && id != exceptID {
			return true
		}
	}
	return false
}

func (r *MockPostRepository) filter(keep func(models.Post) bool) []models.Post {
	r.mu.RLock()
	defer r.mu.RUnlock()

	posts := make([]models.Post, 0, len(r.posts))
	for _, p := range r.posts {
		if keep(p) {
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts
}

// MockCommentRepository is an in-memory implementation of CommentRepository.
type MockCommentRepository struct {
	comments []models.Comment
	mu       sync.RWMutex
}

// NewMockCommentRepository creates a new instance of MockCommentRepository.
func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{}
}

// Create appends a comment.
func (r *MockCommentRepository) Create(_ context.Context, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	now := time.Now()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	r.comments = append(r.comments, *comment)
	return nil
}

// GetByPost returns the comments of postID in insertion order.
func (r *MockCommentRepository) GetByPost(_ context.Context, postID string) ([]models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	comments := make([]models.Comment, 0)
	for _, c := range r.comments {
		if c.PostID == postID {
			comments = append(comments, c)
		}
	}
	return comments, nil
}
