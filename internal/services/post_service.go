package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blog/internal/models"
	"blog/internal/repositories"

	"github.com/go-playground/validator/v10"
)

const (
	defaultCategory = "general"
	slugAttempts    = 3
)

// PostInput is the writable part of a post.
type PostInput struct {
	Title    string   `json:"title" validate:"required,min=3,max=200"`
	Content  string   `json:"content" validate:"required"`
	Category string   `json:"category" validate:"max=100"`
	Tags     []string `json:"tags" validate:"max=20,dive,max=50"`
}

// PostService handles business logic related to posts.
type PostService struct {
	repo     repositories.PostRepository
	validate *validator.Validate
}

// NewPostService creates a new PostService.
func NewPostService(repo repositories.PostRepository) *PostService {
	return &PostService{
		repo:     repo,
		validate: validator.New(),
	}
}

// GetAllPosts retrieves all posts, newest first.
func (s *PostService) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	posts, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, internalError("list posts", err)
	}
	return posts, nil
}

// GetPostsByAuthor retrieves the posts written by authorID.
func (s *PostService) GetPostsByAuthor(ctx context.Context, authorID string) ([]models.Post, error) {
	posts, err := s.repo.GetByAuthor(ctx, authorID)
	if err != nil {
		return nil, internalError("list posts by author", err)
	}
	return posts, nil
}

// GetPostsByCategory retrieves the posts filed under category.
func (s *PostService) GetPostsByCategory(ctx context.Context, category string) ([]models.Post, error) {
	posts, err := s.repo.GetByCategory(ctx, strings.ToLower(strings.TrimSpace(category)))
	if err != nil {
		return nil, internalError("list posts by category", err)
	}
	return posts, nil
}

// GetPostBySlug retrieves a single post.
func (s *PostService) GetPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	post, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, internalError("get post", err)
	}
	return post, nil
}

// CreatePost validates input and stores a new post authored by authorID.
func (s *PostService) CreatePost(ctx context.Context, authorID string, in PostInput) (*models.Post, error) {
	in = normalizePostInput(in)
	if err := s.validate.Struct(in); err != nil {
		return nil, fieldValidationError(err)
	}

	post := &models.Post{
		Title:    in.Title,
		Content:  in.Content,
		Category: in.Category,
		Tags:     in.Tags,
		AuthorID: authorID,
	}
	err := s.withFreeSlug(ctx, post, func() error { return s.repo.Create(ctx, post) })
	if err != nil {
		var svcErr *Error
		if errors.As(err, &svcErr) {
			return nil, svcErr
		}
		return nil, internalError("create post", err)
	}
	return post, nil
}

// UpdatePost replaces the content of a post owned by authorID. A changed title
// produces a new slug.
func (s *PostService) UpdatePost(ctx context.Context, authorID, slug string, in PostInput) (*models.Post, error) {
	post, err := s.ownedPost(ctx, authorID, slug)
	if err != nil {
		return nil, err
	}

	in = normalizePostInput(in)
	if err := s.validate.Struct(in); err != nil {
		return nil, fieldValidationError(err)
	}

	retitled := in.Title != post.Title
	post.Title = in.Title
	post.Content = in.Content
	post.Category = in.Category
	post.Tags = in.Tags

	save := func() error { return s.repo.Update(ctx, post) }
	if retitled {
		err = s.withFreeSlug(ctx, post, save)
	} else {
		err = save()
	}
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrPostNotFound
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, ErrSlugTaken
		}
		var svcErr *Error
		if errors.As(err, &svcErr) {
			return nil, svcErr
		}
		return nil, internalError("update post", err)
	}
	return post, nil
}

// DeletePost removes a post owned by authorID, together with its comments.
func (s *PostService) DeletePost(ctx context.Context, authorID, slug string) error {
	post, err := s.ownedPost(ctx, authorID, slug)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, post.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrPostNotFound
		}
		return internalError("delete post", err)
	}
	return nil
}

func (s *PostService) ownedPost(ctx context.Context, authorID, slug string) (*models.Post, error) {
	post, err := s.GetPostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != authorID {
		return nil, ErrNotAuthor
	}
	return post, nil
}

// withFreeSlug gives post a free slug derived from its title and runs save. When
// a concurrent writer claims the slug first, save reports ErrDuplicate and the
// next free slug is tried.
func (s *PostService) withFreeSlug(ctx context.Context, post *models.Post, save func() error) error {
	for attempt := 1; ; attempt++ {
		slug, err := s.uniqueSlug(ctx, post.Title, post.ID)
		if err != nil {
			return err
		}
		post.Slug = slug

		err = save()
		if !errors.Is(err, repositories.ErrDuplicate) {
			return err
		}
		if attempt == slugAttempts {
			return ErrSlugTaken
		}
	}
}

// uniqueSlug derives a slug from title, appending -2, -3, ... until it is free
// or belongs to the post being updated.
func (s *PostService) uniqueSlug(ctx context.Context, title, postID string) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = "post"
	}
	candidate := base
	for i := 2; ; i++ {
		existing, err := s.repo.GetBySlug(ctx, candidate)
		if errors.Is(err, repositories.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", internalError("check slug", err)
		}
		if existing.ID == postID {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func normalizePostInput(in PostInput) PostInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	if in.Category == "" {
		in.Category = defaultCategory
	}
	tags := make([]string, 0, len(in.Tags))
	for _, t := range in.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	in.Tags = tags
	return in
}

func fieldValidationError(err error) *Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return validationError("Invalid request")
	}
	e := verrs[0]
	return validationError(fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag()))
}
