package services

import (
	"context"

	"github.com/anonto42/nano-midea/interactions/internal/models"
	"github.com/anonto42/nano-midea/interactions/internal/repositories"
	"github.com/anonto42/nano-midea/interactions/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// maxToggleAttempts bounds the retries when a concurrent toggle by the same
// actor flips membership between our add and remove attempts.
const maxToggleAttempts = 3

// ToggleService flips an actor's like on a post or comment.
type ToggleService struct {
	likes repositories.LikeRepository
	log   logrus.FieldLogger
	opts  Options
}

func NewToggleService(likes repositories.LikeRepository, log logrus.FieldLogger, opts Options) *ToggleService {
	return &ToggleService{likes: likes, log: log, opts: opts.normalized()}
}

// Toggle adds actorID to the entity's likes if absent, otherwise removes it.
// Exactly one of the two store writes takes effect per call, and each one
// moves likes_count together with the set.
func (s *ToggleService) Toggle(ctx context.Context, kind models.EntityKind, entityID, actorID string) (*models.ToggleResult, error) {
	if _, err := models.ParseEntityKind(string(kind)); err != nil {
		return nil, err
	}
	if err := requireID(string(kind)+" id", entityID); err != nil {
		return nil, err
	}
	if err := requireID("actor id", actorID); err != nil {
		return nil, err
	}
	timeout := s.opts.StoreTimeout

	for attempt := 1; attempt <= maxToggleAttempts; attempt++ {
		state, err := storeCall(ctx, timeout, "likes.add", func(ctx context.Context) (*models.LikeState, error) {
			return s.likes.AddLike(ctx, kind, entityID, actorID)
		})
		if err != nil {
			return nil, translate(err, string(kind), entityID)
		}
		if state != nil {
			return s.result(kind, entityID, models.LikeAdded, state), nil
		}

		state, err = storeCall(ctx, timeout, "likes.remove", func(ctx context.Context) (*models.LikeState, error) {
			return s.likes.RemoveLike(ctx, kind, entityID, actorID)
		})
		if err != nil {
			return nil, translate(err, string(kind), entityID)
		}
		if state != nil {
			return s.result(kind, entityID, models.LikeRemoved, state), nil
		}

		// Neither write matched: the entity is gone, or another toggle by the
		// same actor landed between the two writes.
		exists, err := storeCall(ctx, timeout, "likes.exists", func(ctx context.Context) (bool, error) {
			return s.likes.Exists(ctx, kind, entityID)
		})
		if err != nil {
			return nil, translate(err, string(kind), entityID)
		}
		if !exists {
			return nil, models.NewNotFoundError(string(kind), entityID)
		}
		s.log.WithFields(logrus.Fields{
			"kind":    kind,
			"id":      entityID,
			"actor":   actorID,
			"attempt": attempt,
		}).Debug("like toggle raced, retrying")
	}
	return nil, models.NewConflictError("like toggle did not settle, try again", nil)
}

func (s *ToggleService) result(kind models.EntityKind, id string, st models.ToggleState, state *models.LikeState) *models.ToggleResult {
	metrics.RecordToggle(string(kind), string(st))

	fields := logrus.Fields{"kind": kind, "id": id, "likes_count": state.LikesCount, "likes": len(state.Likes)}
	if state.Clamped {
		metrics.RecordClamp(string(kind), string(models.FieldLikesCount))
		s.log.WithFields(fields).Warn("likes_count clamped at zero")
	}
	if state.LikesCount != len(state.Likes) {
		s.log.WithFields(fields).Warn("likes_count does not match like set")
	}
	return &models.ToggleResult{State: st, LikesCount: state.LikesCount}
}
