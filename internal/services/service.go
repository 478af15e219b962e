// Package services holds the interaction rules that sit between the HTTP
// handlers and the repositories: counters, like toggles, comment threads,
// feed pagination and chat deduplication. Services keep no shared mutable
// state; every consistency guarantee comes from a conditional store write.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anonto42/nano-midea/interactions/internal/models"
	"github.com/anonto42/nano-midea/interactions/internal/repositories"
	"github.com/anonto42/nano-midea/interactions/pkg/config"
	"github.com/anonto42/nano-midea/interactions/pkg/idgen"
	"github.com/anonto42/nano-midea/interactions/pkg/metrics"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

// MaxContentLength bounds post and comment bodies, in characters.
const MaxContentLength = 500

// Options tunes store timeouts and feed page sizes.
type Options struct {
	StoreTimeout     time.Duration
	FeedDefaultLimit int
	FeedMaxLimit     int
}

// DefaultOptions returns the values used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		StoreTimeout:     5 * time.Second,
		FeedDefaultLimit: 20,
		FeedMaxLimit:     50,
	}
}

// OptionsFromConfig copies the service settings out of the process config.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	if cfg.StoreTimeout > 0 {
		opts.StoreTimeout = cfg.StoreTimeout
	}
	if cfg.FeedDefaultLimit > 0 {
		opts.FeedDefaultLimit = cfg.FeedDefaultLimit
	}
	if cfg.FeedMaxLimit > 0 {
		opts.FeedMaxLimit = cfg.FeedMaxLimit
	}
	return opts
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.StoreTimeout <= 0 {
		o.StoreTimeout = d.StoreTimeout
	}
	if o.FeedMaxLimit <= 0 {
		o.FeedMaxLimit = d.FeedMaxLimit
	}
	if o.FeedDefaultLimit <= 0 {
		o.FeedDefaultLimit = d.FeedDefaultLimit
	}
	if o.FeedDefaultLimit > o.FeedMaxLimit {
		o.FeedDefaultLimit = o.FeedMaxLimit
	}
	return o
}

// storeCall runs fn under the store timeout and records its latency.
func storeCall[T any](ctx context.Context, timeout time.Duration, op string, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	v, err := fn(ctx)
	metrics.ObserveStore(op, err, time.Since(start))
	return v, err
}

// storeExec is storeCall for calls that only return an error.
func storeExec(ctx context.Context, timeout time.Duration, op string, fn func(context.Context) error) error {
	_, err := storeCall(ctx, timeout, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// translate maps repository and driver errors onto AppError kinds.
func translate(err error, resource, id string) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repositories.ErrNotFound):
		return models.NewNotFoundError(resource, id)
	case errors.Is(err, repositories.ErrDuplicateKey):
		return models.NewConflictError(resource+" already exists", err)
	case errors.Is(err, context.DeadlineExceeded), mongo.IsTimeout(err):
		return models.NewTimeoutError(err)
	}
	return models.NewInternalError(err)
}

// normalizeContent trims s and enforces the content rules shared by posts
// and comments.
func normalizeContent(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", models.NewValidationError("content is required")
	}
	if utf8.RuneCountInString(s) > MaxContentLength {
		return "", models.NewValidationError("content must be at most 500 characters")
	}
	return s, nil
}

func requireID(name, id string) error {
	if strings.TrimSpace(id) == "" {
		return models.NewValidationError(name + " is required")
	}
	return nil
}

// Services bundles every service over one store.
type Services struct {
	Counters *CounterService
	Toggles  *ToggleService
	Threads  *ThreadService
	Feed     *FeedService
	Chats    *ChatService
	Posts    *PostService
}

// New wires the services against store.
func New(store *repositories.Store, ids *idgen.Generator, log logrus.FieldLogger, opts Options) *Services {
	counters := NewCounterService(store.Counters, log, opts)
	return &Services{
		Counters: counters,
		Toggles:  NewToggleService(store.Likes, log, opts),
		Threads:  NewThreadService(store.Posts, store.Comments, counters, ids, log, opts),
		Feed:     NewFeedService(store.Posts, opts),
		Chats:    NewChatService(store.Chats, log, opts),
		Posts:    NewPostService(store.Posts, ids, opts),
	}
}
