package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/anonto42/nano-midea/interactions/internal/models"
	"github.com/anonto42/nano-midea/interactions/internal/repositories"
	"github.com/anonto42/nano-midea/interactions/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThread_RepliesBuildAncestry(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	post := env.post(t, "author", true)

	c1, err := env.svc.Threads.CreateTopLevel(ctx, post.ID, "u1", "first")
	require.NoError(t, err)
	assert.Nil(t, c1.ParentComment)
	assert.Empty(t, c1.Ancestors)
	assert.Equal(t, 0, c1.ReplyCount)

	r1, err := env.svc.Threads.CreateReply(ctx, c1.ID, "u2", "reply")
	require.NoError(t, err)
	assert.Equal(t, []string{c1.ID}, r1.Ancestors)
	assert.Equal(t, post.ID, r1.PostID)

	c1, err = env.svc.Threads.Get(ctx, c1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, c1.ReplyCount)

	r2, err := env.svc.Threads.CreateReply(ctx, r1.ID, "u3", "deeper")
	require.NoError(t, err)
	assert.Equal(t, []string{c1.ID, r1.ID}, r2.Ancestors)
	assert.Equal(t, 2, r2.Depth())

	r1, err = env.svc.Threads.Get(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, r1.ReplyCount)

	// only the immediate parent counts the reply
	c1, err = env.svc.Threads.Get(ctx, c1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, c1.ReplyCount)

	fetched, err := env.svc.Posts.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fetched.CommentsCount)
}

func TestThread_AncestorsArePrefixOfChild(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	post := env.post(t, "author", true)

	node, err := env.svc.Threads.CreateTopLevel(ctx, post.ID, "u1", "root")
	require.NoError(t, err)
	for depth := 1; depth <= 5; depth++ {
		child, err := env.svc.Threads.CreateReply(ctx, node.ID, "u1", "next")
		require.NoError(t, err)
		assert.Equal(t, depth, child.Depth())
		assert.Equal(t, append(append([]string{}, node.Ancestors...), node.ID), child.Ancestors)
		node = child
	}
}

func TestThread_Validation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	post := env.post(t, "author", true)

	_, err := env.svc.Threads.CreateTopLevel(ctx, post.ID, "u1", "   ")
	assert.True(t, models.IsKind(err, models.KindValidation))

	_, err = env.svc.Threads.CreateTopLevel(ctx, post.ID, "u1", strings.Repeat("x", 501))
	assert.True(t, models.IsKind(err, models.KindValidation))

	c, err := env.svc.Threads.CreateTopLevel(ctx, post.ID, "u1", "  padded  ")
	require.NoError(t, err)
	assert.Equal(t, "padded", c.Content)

	_, err = env.svc.Threads.CreateTopLevel(ctx, env.ids.NewID(), "u1", "orphan")
	assert.True(t, models.IsKind(err, models.KindNotFound))

	_, err = env.svc.Threads.CreateReply(ctx, env.ids.NewID(), "u1", "orphan")
	assert.True(t, models.IsKind(err, models.KindNotFound))
}

func TestThread_ListOrdering(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	post := env.post(t, "author", true)

	a, err := env.svc.Threads.CreateTopLevel(ctx, post.ID, "u1", "a")
	require.NoError(t, err)
	b, err := env.svc.Threads.CreateReply(ctx, a.ID, "u1", "b")
	require.NoError(t, err)
	c, err := env.svc.Threads.CreateTopLevel(ctx, post.ID, "u1", "c")
	require.NoError(t, err)

	newest, err := env.svc.Threads.ListForPost(ctx, post.ID, models.NewestFirst)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, commentIDs(newest))

	oldest, err := env.svc.Threads.ListForPost(ctx, post.ID, models.OldestFirst)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, commentIDs(oldest))

	replies, err := env.svc.Threads.ListReplies(ctx, a.ID, models.NewestFirst)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, commentIDs(replies))

	_, err = env.svc.Threads.ListForPost(ctx, env.ids.NewID(), models.NewestFirst)
	assert.True(t, models.IsKind(err, models.KindNotFound))
}

func TestThread_DeleteLeaf(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	post := env.post(t, "author", true)

	top, err := env.svc.Threads.CreateTopLevel(ctx, post.ID, "u1", "top")
	require.NoError(t, err)
	reply, err := env.svc.Threads.CreateReply(ctx, top.ID, "u2", "reply")
	require.NoError(t, err)

	err = env.svc.Threads.Delete(ctx, reply.ID, "u1")
	assert.True(t, models.IsKind(err, models.KindUnauthorized))

	require.NoError(t, env.svc.Threads.Delete(ctx, reply.ID, "u2"))
	_, err = env.svc.Threads.Get(ctx, reply.ID)
	assert.True(t, models.IsKind(err, models.KindNotFound))

	top, err = env.svc.Threads.Get(ctx, top.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, top.ReplyCount)

	require.NoError(t, env.svc.Threads.Delete(ctx, top.ID, "u1"))
	fetched, err := env.svc.Posts.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, fetched.CommentsCount)

	err = env.svc.Threads.Delete(ctx, top.ID, "u1")
	assert.True(t, models.IsKind(err, models.KindNotFound))
}

func TestThread_DeleteWithRepliesRedacts(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	post := env.post(t, "author", true)

	top, err := env.svc.Threads.CreateTopLevel(ctx, post.ID, "u1", "top")
	require.NoError(t, err)
	reply, err := env.svc.Threads.CreateReply(ctx, top.ID, "u2", "reply")
	require.NoError(t, err)

	require.NoError(t, env.svc.Threads.Delete(ctx, top.ID, "u1"))

	tomb, err := env.svc.Threads.Get(ctx, top.ID)
	require.NoError(t, err)
	assert.True(t, tomb.Deleted)
	assert.Empty(t, tomb.Content)
	assert.Equal(t, 1, tomb.ReplyCount)

	kept, err := env.svc.Threads.Get(ctx, reply.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{top.ID}, kept.Ancestors)

	fetched, err := env.svc.Posts.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fetched.CommentsCount)

	// deleting a tombstone again is a no-op
	require.NoError(t, env.svc.Threads.Delete(ctx, top.ID, "u1"))

	_, err = env.svc.Threads.CreateReply(ctx, top.ID, "u3", "late")
	assert.True(t, models.IsKind(err, models.KindValidation))
}

// failingCounters refuses every delta.
type failingCounters struct{}

func (failingCounters) ApplyDelta(ctx context.Context, target models.CounterTarget, delta int) (models.CounterResult, error) {
	return models.CounterResult{}, errors.New("counter store unavailable")
}

func TestThread_CounterFailureRollsBackInsert(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	post := env.post(t, "author", true)
	top, err := env.svc.Threads.CreateTopLevel(ctx, post.ID, "u1", "top")
	require.NoError(t, err)

	opts := DefaultOptions()
	log := logger.Discard()
	threads := NewThreadService(
		env.store.Posts,
		env.store.Comments,
		NewCounterService(failingCounters{}, log, opts),
		env.ids,
		log,
		opts,
	)

	_, err = threads.CreateTopLevel(ctx, post.ID, "u1", "lost")
	assert.True(t, models.IsKind(err, models.KindInternal))

	_, err = threads.CreateReply(ctx, top.ID, "u1", "lost")
	assert.True(t, models.IsKind(err, models.KindInternal))

	comments, err := env.store.Comments.GetCommentsByPostID(ctx, post.ID, models.NewestFirst)
	require.NoError(t, err)
	assert.Equal(t, []string{top.ID}, commentIDs(comments))
}

func TestThread_CounterFailureKeepsDeletedComment(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	post := env.post(t, "author", true)
	top, err := env.svc.Threads.CreateTopLevel(ctx, post.ID, "u1", "top")
	require.NoError(t, err)
	reply, err := env.svc.Threads.CreateReply(ctx, top.ID, "u2", "reply")
	require.NoError(t, err)

	opts := DefaultOptions()
	log := logger.Discard()
	threads := NewThreadService(
		env.store.Posts,
		env.store.Comments,
		NewCounterService(failingCounters{}, log, opts),
		env.ids,
		log,
		opts,
	)

	err = threads.Delete(ctx, reply.ID, "u2")
	assert.True(t, models.IsKind(err, models.KindInternal))

	_, err = env.svc.Threads.Get(ctx, reply.ID)
	require.NoError(t, err, "reply must survive a failed delete")
	parent, err := env.svc.Threads.Get(ctx, top.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, parent.ReplyCount)
}

// stickyLeaf refuses to remove any comment, as if a reply had just landed
// under it or the store failed mid-delete.
type stickyLeaf struct {
	repositories.CommentRepository
	err error
}

func (s *stickyLeaf) DeleteLeafComment(ctx context.Context, id string) (bool, error) {
	return false, s.err
}

func TestThread_DeleteRestoresCounterWhenRowStays(t *testing.T) {
	t.Run("StoreError", func(t *testing.T) {
		env := setupTestEnv(t)
		ctx := context.Background()
		post := env.post(t, "author", true)
		top, err := env.svc.Threads.CreateTopLevel(ctx, post.ID, "u1", "top")
		require.NoError(t, err)

		comments := &stickyLeaf{CommentRepository: env.store.Comments, err: errors.New("write failed")}
		threads := NewThreadService(env.store.Posts, comments, env.svc.Counters, env.ids, logger.Discard(), DefaultOptions())

		err = threads.Delete(ctx, top.ID, "u1")
		assert.True(t, models.IsKind(err, models.KindInternal))

		fetched, err := env.svc.Posts.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, fetched.CommentsCount)
	})

	t.Run("ReplyArrived", func(t *testing.T) {
		env := setupTestEnv(t)
		ctx := context.Background()
		post := env.post(t, "author", true)
		top, err := env.svc.Threads.CreateTopLevel(ctx, post.ID, "u1", "top")
		require.NoError(t, err)

		threads := NewThreadService(env.store.Posts, &stickyLeaf{CommentRepository: env.store.Comments},
			env.svc.Counters, env.ids, logger.Discard(), DefaultOptions())

		require.NoError(t, threads.Delete(ctx, top.ID, "u1"))

		tomb, err := env.svc.Threads.Get(ctx, top.ID)
		require.NoError(t, err)
		assert.True(t, tomb.Deleted)
		fetched, err := env.svc.Posts.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, fetched.CommentsCount)
	})
}

func TestThread_ReplyToDeletedParentIsRolledBack(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	post := env.post(t, "author", true)
	top, err := env.svc.Threads.CreateTopLevel(ctx, post.ID, "u1", "top")
	require.NoError(t, err)

	// parent disappears between the read and the counter bump
	comments := &vanishingParent{CommentRepository: env.store.Comments, parentID: top.ID}
	threads := NewThreadService(env.store.Posts, comments, env.svc.Counters, env.ids, logger.Discard(), DefaultOptions())

	_, err = threads.CreateReply(ctx, top.ID, "u2", "reply")
	assert.True(t, models.IsKind(err, models.KindNotFound))

	all, err := env.store.Comments.GetCommentsByPostID(ctx, post.ID, models.NewestFirst)
	require.NoError(t, err)
	assert.Empty(t, all)
}

type vanishingParent struct {
	repositories.CommentRepository
	parentID string
}

func (v *vanishingParent) CreateComment(ctx context.Context, c *models.Comment) error {
	if err := v.CommentRepository.DeleteComment(ctx, v.parentID); err != nil {
		return err
	}
	return v.CommentRepository.CreateComment(ctx, c)
}

func commentIDs(comments []models.Comment) []string {
	out := make([]string, len(comments))
	for i, c := range comments {
		out[i] = c.ID
	}
	return out
}
