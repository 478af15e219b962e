package services

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/interactions/internal/models"
	"github.com/anonto42/nano-midea/interactions/internal/repositories"
	"github.com/anonto42/nano-midea/interactions/pkg/idgen"
	"github.com/sirupsen/logrus"
)

// ThreadService builds and prunes comment trees. Each comment carries the
// full id path of its ancestors, and only the immediate parent's reply_count
// (or the post's comments_count for top-level comments) tracks it.
type ThreadService struct {
	posts    repositories.PostRepository
	comments repositories.CommentRepository
	counters *CounterService
	ids      *idgen.Generator
	log      logrus.FieldLogger
	opts     Options
}

func NewThreadService(
	posts repositories.PostRepository,
	comments repositories.CommentRepository,
	counters *CounterService,
	ids *idgen.Generator,
	log logrus.FieldLogger,
	opts Options,
) *ThreadService {
	return &ThreadService{
		posts:    posts,
		comments: comments,
		counters: counters,
		ids:      ids,
		log:      log,
		opts:     opts.normalized(),
	}
}

// CreateTopLevel attaches a new comment directly to a post.
func (s *ThreadService) CreateTopLevel(ctx context.Context, postID, authorID, content string) (*models.Comment, error) {
	content, err := s.validate(postID, authorID, content)
	if err != nil {
		return nil, err
	}
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	comment := s.newComment(postID, authorID, content)
	target := models.CounterTarget{Kind: models.KindPost, ID: postID, Field: models.FieldCommentsCount}
	if err := s.insert(ctx, comment, target); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateReply attaches a new comment under parentID. The reply inherits the
// parent's post and extends its ancestor path by the parent itself.
func (s *ThreadService) CreateReply(ctx context.Context, parentID, authorID, content string) (*models.Comment, error) {
	content, err := s.validate(parentID, authorID, content)
	if err != nil {
		return nil, err
	}
	parent, err := s.Get(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.Deleted {
		return nil, models.NewValidationError("cannot reply to a deleted comment")
	}

	comment := s.newComment(parent.PostID, authorID, content)
	comment.ParentComment = &parent.ID
	comment.Ancestors = make([]string, 0, len(parent.Ancestors)+1)
	comment.Ancestors = append(comment.Ancestors, parent.Ancestors...)
	comment.Ancestors = append(comment.Ancestors, parent.ID)

	target := models.CounterTarget{Kind: models.KindComment, ID: parent.ID, Field: models.FieldReplyCount}
	if err := s.insert(ctx, comment, target); err != nil {
		return nil, err
	}
	return comment, nil
}

// Get returns one comment.
func (s *ThreadService) Get(ctx context.Context, commentID string) (*models.Comment, error) {
	if err := requireID("comment id", commentID); err != nil {
		return nil, err
	}
	comment, err := storeCall(ctx, s.opts.StoreTimeout, "comments.get", func(ctx context.Context) (*models.Comment, error) {
		return s.comments.GetCommentByID(ctx, commentID)
	})
	if err != nil {
		return nil, translate(err, "comment", commentID)
	}
	return comment, nil
}

// ListForPost returns every comment of a post, at any depth.
func (s *ThreadService) ListForPost(ctx context.Context, postID string, order models.CommentOrder) ([]models.Comment, error) {
	if err := requireID("post id", postID); err != nil {
		return nil, err
	}
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := storeCall(ctx, s.opts.StoreTimeout, "comments.list_post", func(ctx context.Context) ([]models.Comment, error) {
		return s.comments.GetCommentsByPostID(ctx, postID, order)
	})
	if err != nil {
		return nil, translate(err, "post", postID)
	}
	return comments, nil
}

// ListReplies returns the direct replies of a comment.
func (s *ThreadService) ListReplies(ctx context.Context, parentID string, order models.CommentOrder) ([]models.Comment, error) {
	if _, err := s.Get(ctx, parentID); err != nil {
		return nil, err
	}
	replies, err := storeCall(ctx, s.opts.StoreTimeout, "comments.list_replies", func(ctx context.Context) ([]models.Comment, error) {
		return s.comments.GetReplies(ctx, parentID, order)
	})
	if err != nil {
		return nil, translate(err, "comment", parentID)
	}
	return replies, nil
}

// Delete removes a comment on behalf of its author. A comment without
// replies is removed and its parent counter decremented. A comment with
// replies is redacted in place so the replies keep a valid ancestor path.
//
// The parent counter moves before the row does. If the row then cannot be
// removed the decrement is undone, so a failure never leaves a count that
// disagrees with the children actually stored.
func (s *ThreadService) Delete(ctx context.Context, commentID, requesterID string) error {
	if err := requireID("requester id", requesterID); err != nil {
		return err
	}
	comment, err := s.Get(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != requesterID {
		return models.NewUnauthorizedError("only the author can delete this comment")
	}
	if comment.Deleted {
		return nil
	}
	if comment.ReplyCount > 0 {
		return s.redact(ctx, commentID)
	}

	target := parentCounter(comment)
	decremented := true
	if _, err := s.counters.Apply(ctx, target, -1); err != nil {
		if !models.IsKind(err, models.KindNotFound) {
			return err
		}
		// parent already gone, nothing left to keep in step
		decremented = false
	}

	removed, err := storeCall(ctx, s.opts.StoreTimeout, "comments.delete_leaf", func(ctx context.Context) (bool, error) {
		return s.comments.DeleteLeafComment(ctx, commentID)
	})
	if err == nil && removed {
		return nil
	}
	if decremented {
		s.restore(ctx, target, commentID)
	}
	if err != nil {
		return translate(err, "comment", commentID)
	}
	// a reply landed after the read
	return s.redact(ctx, commentID)
}

func (s *ThreadService) redact(ctx context.Context, commentID string) error {
	err := storeExec(ctx, s.opts.StoreTimeout, "comments.redact", func(ctx context.Context) error {
		return s.comments.RedactComment(ctx, commentID)
	})
	return translate(err, "comment", commentID)
}

// restore undoes the parent decrement of a delete that did not remove its row.
func (s *ThreadService) restore(ctx context.Context, target models.CounterTarget, commentID string) {
	ctx = context.WithoutCancel(ctx)
	entry := s.log.WithFields(logrus.Fields{
		"comment": commentID,
		"target":  target.ID,
		"field":   target.Field,
	})
	if _, err := s.counters.Apply(ctx, target, 1); err != nil {
		entry.WithError(err).Error("failed to restore parent counter after aborted delete")
		return
	}
	entry.Warn("restored parent counter after aborted delete")
}

func (s *ThreadService) validate(parentID, authorID, content string) (string, error) {
	if err := requireID("parent id", parentID); err != nil {
		return "", err
	}
	if err := requireID("author id", authorID); err != nil {
		return "", err
	}
	return normalizeContent(content)
}

func (s *ThreadService) requirePost(ctx context.Context, postID string) error {
	exists, err := storeCall(ctx, s.opts.StoreTimeout, "posts.exists", func(ctx context.Context) (bool, error) {
		return s.posts.PostExists(ctx, postID)
	})
	if err != nil {
		return translate(err, "post", postID)
	}
	if !exists {
		return models.NewNotFoundError("post", postID)
	}
	return nil
}

func (s *ThreadService) newComment(postID, authorID, content string) *models.Comment {
	now := time.Now().UTC()
	return &models.Comment{
		ID:        s.ids.NewID(),
		PostID:    postID,
		AuthorID:  authorID,
		Content:   content,
		Ancestors: []string{},
		Likes:     []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// insert stores comment and bumps target. If the bump fails the insert is
// undone, so no comment is ever visible without its parent's count.
func (s *ThreadService) insert(ctx context.Context, comment *models.Comment, target models.CounterTarget) error {
	err := storeExec(ctx, s.opts.StoreTimeout, "comments.create", func(ctx context.Context) error {
		return s.comments.CreateComment(ctx, comment)
	})
	if err != nil {
		return translate(err, "comment", comment.ID)
	}

	if _, err := s.counters.Apply(ctx, target, 1); err != nil {
		s.compensate(ctx, comment.ID, err)
		return err
	}
	return nil
}

func (s *ThreadService) compensate(ctx context.Context, commentID string, cause error) {
	// the caller's context may be what failed; the undo must still run
	ctx = context.WithoutCancel(ctx)
	err := storeExec(ctx, s.opts.StoreTimeout, "comments.compensate", func(ctx context.Context) error {
		return s.comments.DeleteComment(ctx, commentID)
	})
	entry := s.log.WithFields(logrus.Fields{"comment": commentID, "cause": cause.Error()})
	if err != nil {
		entry.WithError(err).Error("failed to roll back comment after counter failure")
		return
	}
	entry.Warn("rolled back comment after counter failure")
}

func parentCounter(c *models.Comment) models.CounterTarget {
	if c.IsTopLevel() {
		return models.CounterTarget{Kind: models.KindPost, ID: c.PostID, Field: models.FieldCommentsCount}
	}
	return models.CounterTarget{Kind: models.KindComment, ID: *c.ParentComment, Field: models.FieldReplyCount}
}
