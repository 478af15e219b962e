package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/nano-midea/interactions/internal/middleware"
	"github.com/anonto42/nano-midea/interactions/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// PostService is the post behaviour PostHandler needs.
type PostService interface {
	CreatePost(ctx context.Context, authorID, content, image string, isPublic bool) (*models.Post, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	ListByAuthor(ctx context.Context, authorID, cursor string, limit int) (*models.FeedPage, error)
	DeletePost(ctx context.Context, id, requesterID string) error
}

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	posts PostService
	log   logrus.FieldLogger
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(posts PostService, log logrus.FieldLogger) *PostHandler {
	return &PostHandler{posts: posts, log: log}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts", h.GetMyPosts)
	g.GET("/posts/:id", h.GetPost)
	g.DELETE("/posts/:id", h.DeletePost)
}

// CreatePost creates a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, h.log, err)
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	post, err := h.posts.CreatePost(c.Request().Context(), middleware.ActorID(c), req.Content, req.Image, isPublic)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, post)
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.posts.GetPost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, post)
}

// GetMyPosts pages through the caller's own posts, private ones included
func (h *PostHandler) GetMyPosts(c echo.Context) error {
	limit, err := limitParam(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	page, err := h.posts.ListByAuthor(c.Request().Context(), middleware.ActorID(c), c.QueryParam("cursor"), limit)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, page)
}

// DeletePost deletes a post owned by the caller
func (h *PostHandler) DeletePost(c echo.Context) error {
	if err := h.posts.DeletePost(c.Request().Context(), c.Param("id"), middleware.ActorID(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
