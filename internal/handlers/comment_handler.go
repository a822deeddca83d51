package handlers

import (
	"blog/internal/middleware"
	"blog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CommentHandler handles HTTP requests for comments.
type CommentHandler struct {
	service *services.CommentService
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(service *services.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

// RegisterRoutes registers the comment routes.
func (h *CommentHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	commentRoutes := router.Group("/comments")
	commentRoutes.Post("/", authRequired, h.HandleAddComment)
	commentRoutes.Get("/post/:postId", h.HandleGetCommentsForPost)
}

// HandleAddComment adds a comment by the caller.
func (h *CommentHandler) HandleAddComment(c *fiber.Ctx) error {
	var in services.CommentInput
	if err := c.BodyParser(&in); err != nil {
		return errBadBody
	}

	comment, err := h.service.AddComment(c.UserContext(), middleware.UserID(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// HandleGetCommentsForPost lists a post's comments.
func (h *CommentHandler) HandleGetCommentsForPost(c *fiber.Ctx) error {
	comments, err := h.service.GetCommentsForPost(c.UserContext(), c.Params("postId"))
	if err != nil {
		return err
	}
	return c.JSON(comments)
}
