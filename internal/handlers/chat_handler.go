package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/nano-midea/interactions/internal/middleware"
	"github.com/anonto42/nano-midea/interactions/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ChatService is the chat behaviour ChatHandler needs.
type ChatService interface {
	GetOrCreate(ctx context.Context, requesterID string, others []string) (*models.ChatMetadata, error)
	Get(ctx context.Context, key, requesterID string) (*models.ChatMetadata, error)
	Delete(ctx context.Context, key, requesterID string) error
}

// ChatHandler handles HTTP requests related to chat metadata
type ChatHandler struct {
	chats ChatService
	log   logrus.FieldLogger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chats ChatService, log logrus.FieldLogger) *ChatHandler {
	return &ChatHandler{chats: chats, log: log}
}

// RegisterChatRoutes registers chat-related routes
func (h *ChatHandler) RegisterChatRoutes(g *echo.Group) {
	g.POST("/chats", h.GetOrCreateChat)
	g.GET("/chats/:key", h.GetChat)
	g.DELETE("/chats/:key", h.DeleteChat)
}

// GetOrCreateChat returns the caller's chat with the given participants,
// creating it on first use
func (h *ChatHandler) GetOrCreateChat(c echo.Context) error {
	var req models.CreateChatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, h.log, err)
	}

	chat, err := h.chats.GetOrCreate(c.Request().Context(), middleware.ActorID(c), req.Participants)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, chat)
}

func (h *ChatHandler) GetChat(c echo.Context) error {
	chat, err := h.chats.Get(c.Request().Context(), c.Param("key"), middleware.ActorID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, chat)
}

func (h *ChatHandler) DeleteChat(c echo.Context) error {
	if err := h.chats.Delete(c.Request().Context(), c.Param("key"), middleware.ActorID(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
