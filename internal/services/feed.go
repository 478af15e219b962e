package services

import (
	"context"

	"github.com/anonto42/nano-midea/interactions/internal/models"
	"github.com/anonto42/nano-midea/interactions/internal/repositories"
	"github.com/anonto42/nano-midea/interactions/pkg/idgen"
)

// FeedService pages through public posts, newest first, keyed on post id.
type FeedService struct {
	posts repositories.PostRepository
	opts  Options
}

func NewFeedService(posts repositories.PostRepository, opts Options) *FeedService {
	return &FeedService{posts: posts, opts: opts.normalized()}
}

// Page returns up to limit public posts older than cursor. An empty cursor
// starts at the newest post. Posts created while a client walks the feed
// sort ahead of any cursor it holds, so a walk never repeats or skips.
func (s *FeedService) Page(ctx context.Context, cursor string, limit int) (*models.FeedPage, error) {
	return paginate(ctx, s.posts, s.opts, cursor, limit, "posts.list_public", s.posts.ListPublicPosts)
}

// pageFetcher reads up to limit posts with id < before, newest first.
type pageFetcher func(ctx context.Context, before string, limit int) ([]models.Post, error)

// paginate applies the cursor rules shared by every post listing: limits are
// clamped, a cursor must name an existing post, and one extra row is read to
// decide HasMore.
func paginate(ctx context.Context, posts repositories.PostRepository, opts Options, cursor string, limit int, op string, fetch pageFetcher) (*models.FeedPage, error) {
	limit = clampLimit(opts, limit)

	if cursor != "" {
		if !idgen.Valid(cursor) {
			return nil, models.NewValidationError("invalid cursor")
		}
		exists, err := storeCall(ctx, opts.StoreTimeout, "posts.exists", func(ctx context.Context) (bool, error) {
			return posts.PostExists(ctx, cursor)
		})
		if err != nil {
			return nil, translate(err, "post", cursor)
		}
		if !exists {
			return nil, models.NewValidationError("cursor does not reference a post")
		}
	}

	rows, err := storeCall(ctx, opts.StoreTimeout, op, func(ctx context.Context) ([]models.Post, error) {
		return fetch(ctx, cursor, limit+1)
	})
	if err != nil {
		return nil, translate(err, "feed", cursor)
	}

	page := &models.FeedPage{Posts: rows}
	if page.Posts == nil {
		page.Posts = []models.Post{}
	}
	if len(page.Posts) > limit {
		page.Posts = page.Posts[:limit]
		page.HasMore = true
		next := page.Posts[limit-1].ID
		page.NextCursor = &next
	}
	return page, nil
}

func clampLimit(opts Options, limit int) int {
	switch {
	case limit <= 0:
		return opts.FeedDefaultLimit
	case limit > opts.FeedMaxLimit:
		return opts.FeedMaxLimit
	}
	return limit
}
