package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/nano-midea/interactions/internal/middleware"
	"github.com/anonto42/nano-midea/interactions/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Toggler flips a like.
type Toggler interface {
	Toggle(ctx context.Context, kind models.EntityKind, entityID, actorID string) (*models.ToggleResult, error)
}

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	toggles Toggler
	log     logrus.FieldLogger
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(toggles Toggler, log logrus.FieldLogger) *LikeHandler {
	return &LikeHandler{toggles: toggles, log: log}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/like", h.toggle(models.KindPost))
	g.POST("/comments/:id/like", h.toggle(models.KindComment))
}

// toggle returns a handler that likes the entity if the caller has not, and
// unlikes it otherwise.
func (h *LikeHandler) toggle(kind models.EntityKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		res, err := h.toggles.Toggle(c.Request().Context(), kind, c.Param("id"), middleware.ActorID(c))
		if err != nil {
			return respondError(c, h.log, err)
		}
		return c.JSON(http.StatusOK, res)
	}
}
