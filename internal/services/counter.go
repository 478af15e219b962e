package services

import (
	"context"

	"github.com/anonto42/nano-midea/interactions/internal/models"
	"github.com/anonto42/nano-midea/interactions/internal/repositories"
	"github.com/anonto42/nano-midea/interactions/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// CounterService applies deltas to the denormalized counters on posts and
// comments.
type CounterService struct {
	counters repositories.CounterRepository
	log      logrus.FieldLogger
	opts     Options
}

func NewCounterService(counters repositories.CounterRepository, log logrus.FieldLogger, opts Options) *CounterService {
	return &CounterService{counters: counters, log: log, opts: opts.normalized()}
}

// Apply adds delta to the target counter and returns the stored value.
// Decrements never take a counter below zero.
func (s *CounterService) Apply(ctx context.Context, target models.CounterTarget, delta int) (int, error) {
	if err := requireID("id", target.ID); err != nil {
		return 0, err
	}
	if !target.Valid() {
		return 0, models.NewValidationError("unknown counter " + string(target.Kind) + "." + string(target.Field))
	}

	res, err := storeCall(ctx, s.opts.StoreTimeout, "counter.apply", func(ctx context.Context) (models.CounterResult, error) {
		return s.counters.ApplyDelta(ctx, target, delta)
	})
	if err != nil {
		return 0, translate(err, string(target.Kind), target.ID)
	}
	if res.Clamped {
		s.clamped(target, delta)
	}
	return res.Value, nil
}

func (s *CounterService) clamped(target models.CounterTarget, delta int) {
	metrics.RecordClamp(string(target.Kind), string(target.Field))
	s.log.WithFields(logrus.Fields{
		"kind":  target.Kind,
		"id":    target.ID,
		"field": target.Field,
		"delta": delta,
	}).Warn("counter decrement clamped at zero")
}
