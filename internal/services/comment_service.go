package services

import (
	"context"
	"errors"
	"strings"

	"blog/internal/models"
	"blog/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// CommentInput is the body of a new comment.
type CommentInput struct {
	PostID  string `json:"postId" validate:"required"`
	Content string `json:"content" validate:"required,max=2000"`
}

// CommentService handles business logic related to comments.
type CommentService struct {
	comments repositories.CommentRepository
	posts    repositories.PostRepository
	validate *validator.Validate
}

// NewCommentService creates a new CommentService.
func NewCommentService(comments repositories.CommentRepository, posts repositories.PostRepository) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
		validate: validator.New(),
	}
}

// AddComment attaches a comment by authorID to an existing post.
func (s *CommentService) AddComment(ctx context.Context, authorID string, in CommentInput) (*models.Comment, error) {
	in.PostID = strings.TrimSpace(in.PostID)
	in.Content = strings.TrimSpace(in.Content)
	if err := s.validate.Struct(in); err != nil {
		return nil, fieldValidationError(err)
	}

	if _, err := s.posts.GetByID(ctx, in.PostID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, internalError("get post", err)
	}

	comment := &models.Comment{
		PostID:   in.PostID,
		AuthorID: authorID,
		Content:  in.Content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, internalError("create comment", err)
	}
	return comment, nil
}

// GetCommentsForPost lists a post's comments oldest first.
func (s *CommentService) GetCommentsForPost(ctx context.Context, postID string) ([]models.Comment, error) {
	comments, err := s.comments.GetByPost(ctx, postID)
	if err != nil {
		return nil, internalError("list comments", err)
	}
	return comments, nil
}
