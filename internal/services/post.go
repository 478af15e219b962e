package services

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/interactions/internal/models"
	"github.com/anonto42/nano-midea/interactions/internal/repositories"
	"github.com/anonto42/nano-midea/interactions/pkg/idgen"
)

// PostService creates, reads and deletes posts.
type PostService struct {
	posts repositories.PostRepository
	ids   *idgen.Generator
	opts  Options
}

func NewPostService(posts repositories.PostRepository, ids *idgen.Generator, opts Options) *PostService {
	return &PostService{posts: posts, ids: ids, opts: opts.normalized()}
}

func (s *PostService) CreatePost(ctx context.Context, authorID, content, image string, isPublic bool) (*models.Post, error) {
	if err := requireID("author id", authorID); err != nil {
		return nil, err
	}
	content, err := normalizeContent(content)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	post := &models.Post{
		ID:        s.ids.NewID(),
		AuthorID:  authorID,
		Content:   content,
		Image:     image,
		IsPublic:  isPublic,
		Likes:     []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = storeExec(ctx, s.opts.StoreTimeout, "posts.create", func(ctx context.Context) error {
		return s.posts.CreatePost(ctx, post)
	})
	if err != nil {
		return nil, translate(err, "post", post.ID)
	}
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	if err := requireID("post id", id); err != nil {
		return nil, err
	}
	post, err := storeCall(ctx, s.opts.StoreTimeout, "posts.get", func(ctx context.Context) (*models.Post, error) {
		return s.posts.GetPostByID(ctx, id)
	})
	if err != nil {
		return nil, translate(err, "post", id)
	}
	return post, nil
}

// ListByAuthor pages through authorID's own posts, private ones included,
// newest first. Cursor and limit follow the feed rules.
func (s *PostService) ListByAuthor(ctx context.Context, authorID, cursor string, limit int) (*models.FeedPage, error) {
	if err := requireID("author id", authorID); err != nil {
		return nil, err
	}
	fetch := func(ctx context.Context, before string, n int) ([]models.Post, error) {
		return s.posts.ListPostsByAuthor(ctx, authorID, before, n)
	}
	return paginate(ctx, s.posts, s.opts, cursor, limit, "posts.list_by_author", fetch)
}

// DeletePost removes a post owned by requesterID.
func (s *PostService) DeletePost(ctx context.Context, id, requesterID string) error {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != requesterID {
		return models.NewUnauthorizedError("only the author can delete this post")
	}
	err = storeExec(ctx, s.opts.StoreTimeout, "posts.delete", func(ctx context.Context) error {
		return s.posts.DeletePost(ctx, id)
	})
	return translate(err, "post", id)
}
