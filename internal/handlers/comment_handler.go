package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/nano-midea/interactions/internal/middleware"
	"github.com/anonto42/nano-midea/interactions/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ThreadService is the comment behaviour CommentHandler needs.
type ThreadService interface {
	CreateTopLevel(ctx context.Context, postID, authorID, content string) (*models.Comment, error)
	CreateReply(ctx context.Context, parentID, authorID, content string) (*models.Comment, error)
	Get(ctx context.Context, commentID string) (*models.Comment, error)
	ListForPost(ctx context.Context, postID string, order models.CommentOrder) ([]models.Comment, error)
	ListReplies(ctx context.Context, parentID string, order models.CommentOrder) ([]models.Comment, error)
	Delete(ctx context.Context, commentID, requesterID string) error
}

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	threads ThreadService
	log     logrus.FieldLogger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(threads ThreadService, log logrus.FieldLogger) *CommentHandler {
	return &CommentHandler{threads: threads, log: log}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:id/comments", h.CreateComment)
	g.GET("/posts/:id/comments", h.GetCommentsByPostID)
	g.POST("/comments/:id/replies", h.CreateReply)
	g.GET("/comments/:id/replies", h.GetReplies)
	g.GET("/comments/:id", h.GetComment)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment creates a new top-level comment on a post
func (h *CommentHandler) CreateComment(c echo.Context) error {
	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, h.log, err)
	}

	comment, err := h.threads.CreateTopLevel(c.Request().Context(), c.Param("id"), middleware.ActorID(c), req.Content)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, comment)
}

// CreateReply creates a reply under an existing comment
func (h *CommentHandler) CreateReply(c echo.Context) error {
	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, h.log, err)
	}

	reply, err := h.threads.CreateReply(c.Request().Context(), c.Param("id"), middleware.ActorID(c), req.Content)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, reply)
}

// GetCommentsByPostID lists every comment of a post
func (h *CommentHandler) GetCommentsByPostID(c echo.Context) error {
	order, err := models.ParseCommentOrder(c.QueryParam("order"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	comments, err := h.threads.ListForPost(c.Request().Context(), c.Param("id"), order)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, comments)
}

// GetReplies lists the direct replies of a comment
func (h *CommentHandler) GetReplies(c echo.Context) error {
	order, err := models.ParseCommentOrder(c.QueryParam("order"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	replies, err := h.threads.ListReplies(c.Request().Context(), c.Param("id"), order)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, replies)
}

func (h *CommentHandler) GetComment(c echo.Context) error {
	comment, err := h.threads.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, comment)
}

// DeleteComment deletes a comment owned by the caller
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	if err := h.threads.Delete(c.Request().Context(), c.Param("id"), middleware.ActorID(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
