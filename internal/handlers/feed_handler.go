package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/anonto42/nano-midea/interactions/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Pager serves pages of the public feed.
type Pager interface {
	Page(ctx context.Context, cursor string, limit int) (*models.FeedPage, error)
}

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	feed Pager
	log  logrus.FieldLogger
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feed Pager, log logrus.FieldLogger) *FeedHandler {
	return &FeedHandler{feed: feed, log: log}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns one page of public posts, newest first
func (h *FeedHandler) GetFeed(c echo.Context) error {
	limit, err := limitParam(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	page, err := h.feed.Page(c.Request().Context(), c.QueryParam("cursor"), limit)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, page)
}

// limitParam reads the optional limit query parameter; 0 means "use the default".
func limitParam(c echo.Context) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.NewValidationError("limit must be an integer")
	}
	return n, nil
}
