package handlers

import (
	"blog/internal/middleware"
	"blog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// PostHandler handles HTTP requests for posts.
type PostHandler struct {
	service *services.PostService
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(service *services.PostService) *PostHandler {
	return &PostHandler{
		service: service,
	}
}

// RegisterRoutes registers the post routes; writes and "my posts" need authRequired.
func (h *PostHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	postRoutes := router.Group("/posts")
	postRoutes.Get("/", h.HandleGetPosts)
	postRoutes.Get("/user/me", authRequired, h.HandleGetMyPosts)
	postRoutes.Get("/category/:category", h.HandleGetPostsByCategory)
	postRoutes.Get("/:slug", h.HandleGetPostBySlug)
	postRoutes.Post("/", authRequired, h.HandleCreatePost)
	postRoutes.Put("/:slug", authRequired, h.HandleUpdatePost)
	postRoutes.Delete("/:slug", authRequired, h.HandleDeletePost)
}

// HandleGetPosts lists all posts.
func (h *PostHandler) HandleGetPosts(c *fiber.Ctx) error {
	posts, err := h.service.GetAllPosts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(posts)
}

// HandleGetMyPosts lists the caller's posts.
func (h *PostHandler) HandleGetMyPosts(c *fiber.Ctx) error {
	posts, err := h.service.GetPostsByAuthor(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(posts)
}

// HandleGetPostsByCategory lists the posts of one category.
func (h *PostHandler) HandleGetPostsByCategory(c *fiber.Ctx) error {
	posts, err := h.service.GetPostsByCategory(c.UserContext(), c.Params("category"))
	if err != nil {
		return err
	}
	return c.JSON(posts)
}

// HandleGetPostBySlug retrieves a single post.
func (h *PostHandler) HandleGetPostBySlug(c *fiber.Ctx) error {
	post, err := h.service.GetPostBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	return c.JSON(post)
}

// HandleCreatePost creates a post authored by the caller.
func (h *PostHandler) HandleCreatePost(c *fiber.Ctx) error {
	var in services.PostInput
	if err := c.BodyParser(&in); err != nil {
		return errBadBody
	}

	post, err := h.service.CreatePost(c.UserContext(), middleware.UserID(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// HandleUpdatePost updates one of the caller's posts.
func (h *PostHandler) HandleUpdatePost(c *fiber.Ctx) error {
	var in services.PostInput
	if err := c.BodyParser(&in); err != nil {
		return errBadBody
	}

	post, err := h.service.UpdatePost(c.UserContext(), middleware.UserID(c), c.Params("slug"), in)
	if err != nil {
		return err
	}
	return c.JSON(post)
}

// HandleDeletePost deletes one of the caller's posts.
func (h *PostHandler) HandleDeletePost(c *fiber.Ctx) error {
	if err := h.service.DeletePost(c.UserContext(), middleware.UserID(c), c.Params("slug")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Post deleted successfully",
	})
}
