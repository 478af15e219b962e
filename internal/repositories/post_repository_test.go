package repositories

import (
	"context"
	"testing"

	"github.com/anonto42/nano-midea/interactions/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestPostgresPostRepository(t *testing.T) {
	db := setupTestDB(t)
	store := NewPostgresStore(db)
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		post := seedPost(t, store, true)

		fetched, err := store.Posts.GetPostByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, post.ID, fetched.ID)
		assert.Equal(t, "hello", fetched.Content)
		assert.NotNil(t, fetched.Likes)
		assert.Empty(t, fetched.Likes)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := store.Posts.GetPostByID(ctx, testIDs.NewID())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Exists", func(t *testing.T) {
		post := seedPost(t, store, true)

		ok, err := store.Posts.PostExists(ctx, post.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Posts.PostExists(ctx, testIDs.NewID())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("DeleteRemovesLikes", func(t *testing.T) {
		post := seedPost(t, store, true)
		_, err := store.Likes.AddLike(ctx, models.KindPost, post.ID, "u1")
		require.NoError(t, err)

		require.NoError(t, store.Posts.DeletePost(ctx, post.ID))

		var n int64
		db.Model(&models.Like{}).Where("entity_id = ?", post.ID).Count(&n)
		assert.Zero(t, n)
		assert.ErrorIs(t, store.Posts.DeletePost(ctx, post.ID), ErrNotFound)
	})
}

func TestPostgresPostRepository_ListPublicPosts(t *testing.T) {
	db := setupTestDB(t)
	store := NewPostgresStore(db)
	ctx := context.Background()

	var public []*models.Post
	for i := 0; i < 5; i++ {
		public = append(public, seedPost(t, store, true))
		seedPost(t, store, false)
	}
	_, err := store.Likes.AddLike(ctx, models.KindPost, public[4].ID, "u1")
	require.NoError(t, err)

	first, err := store.Posts.ListPublicPosts(ctx, "", 3)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, public[4].ID, first[0].ID)
	assert.Equal(t, public[3].ID, first[1].ID)
	assert.Equal(t, public[2].ID, first[2].ID)
	assert.Equal(t, []string{"u1"}, first[0].Likes)
	for _, p := range first {
		assert.True(t, p.IsPublic)
	}

	rest, err := store.Posts.ListPublicPosts(ctx, first[2].ID, 3)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, public[1].ID, rest[0].ID)
	assert.Equal(t, public[0].ID, rest[1].ID)

	none, err := store.Posts.ListPublicPosts(ctx, public[0].ID, 3)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestPostgresPostRepository_ListPostsByAuthor(t *testing.T) {
	db := setupTestDB(t)
	store := NewPostgresStore(db)
	ctx := context.Background()

	public := seedPost(t, store, true)
	private := seedPost(t, store, false)
	other := &models.Post{ID: testIDs.NewID(), AuthorID: "someone-else", Content: "x", IsPublic: true}
	require.NoError(t, store.Posts.CreatePost(ctx, other))

	mine, err := store.Posts.ListPostsByAuthor(ctx, "author", "", 10)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, private.ID, mine[0].ID, "private posts are listed for their author")
	assert.Equal(t, public.ID, mine[1].ID)

	older, err := store.Posts.ListPostsByAuthor(ctx, "author", private.ID, 10)
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, public.ID, older[0].ID)

	none, err := store.Posts.ListPostsByAuthor(ctx, "nobody", "", 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMongoPostRepository(t *testing.T) {
	mt := newMockT(t)
	ctx := context.Background()

	mt.Run("CreatePost", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		post := &models.Post{ID: testIDs.NewID(), Content: "hi"}
		require.NoError(mt, repo.CreatePost(ctx, post))
		assert.NotNil(mt, post.Likes)
	})

	mt.Run("GetPostByID", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		id := testIDs.NewID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, cursorNS(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "content", Value: "hi"},
			{Key: "is_public", Value: true},
			{Key: "likes", Value: bson.A{"u1"}},
			{Key: "likes_count", Value: 1},
		}))

		post, err := repo.GetPostByID(ctx, id)
		require.NoError(mt, err)
		assert.Equal(mt, id, post.ID)
		assert.Equal(mt, []string{"u1"}, post.Likes)
		assert.Equal(mt, 1, post.LikesCount)
	})

	mt.Run("GetPostByID not found", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, cursorNS(mt), mtest.FirstBatch))

		_, err := repo.GetPostByID(ctx, testIDs.NewID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("DeletePost not found", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		assert.ErrorIs(mt, repo.DeletePost(ctx, testIDs.NewID()), ErrNotFound)
	})

	mt.Run("ListPublicPosts", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		a, b := testIDs.NewID(), testIDs.NewID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, cursorNS(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: b}, {Key: "is_public", Value: true}},
			bson.D{{Key: "_id", Value: a}, {Key: "is_public", Value: true}},
		))

		posts, err := repo.ListPublicPosts(ctx, "", 2)
		require.NoError(mt, err)
		require.Len(mt, posts, 2)
		assert.Equal(mt, b, posts[0].ID)
		assert.Equal(mt, a, posts[1].ID)
	})

	mt.Run("ListPostsByAuthor", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		id := testIDs.NewID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, cursorNS(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: id}, {Key: "author_id", Value: "u1"}, {Key: "is_public", Value: false}},
		))

		posts, err := repo.ListPostsByAuthor(ctx, "u1", "", 5)
		require.NoError(mt, err)
		require.Len(mt, posts, 1)
		assert.Equal(mt, id, posts[0].ID)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		filter := started.Command.Lookup("filter").Document()
		assert.Equal(mt, "u1", filter.Lookup("author_id").StringValue())
		_, err = filter.LookupErr("is_public")
		assert.Error(mt, err, "author listing is not limited to public posts")
	})
}
