package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/interactions/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	PostExists(ctx context.Context, id string) (bool, error)
	DeletePost(ctx context.Context, id string) error
	// ListPublicPosts returns up to limit public posts with id < before
	// (no bound when before is empty), newest id first.
	ListPublicPosts(ctx context.Context, before string, limit int) ([]models.Post, error)
	// ListPostsByAuthor pages through every post of authorID, public or not,
	// with the same cursor rules as ListPublicPosts.
	ListPostsByAuthor(ctx context.Context, authorID, before string, limit int) ([]models.Post, error)
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection(postsCollection)}
}

// CreatePost inserts a post. The caller assigns ID and timestamps.
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if post.Likes == nil {
		post.Likes = []string{}
	}
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, mongoNotFound(err)
	}
	return &post, nil
}

func (r *MongoPostRepository) PostExists(ctx context.Context, id string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

// DeletePost deletes a post by ID from MongoDB
func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoPostRepository) ListPublicPosts(ctx context.Context, before string, limit int) ([]models.Post, error) {
	return r.list(ctx, bson.M{"is_public": true}, before, limit)
}

func (r *MongoPostRepository) ListPostsByAuthor(ctx context.Context, authorID, before string, limit int) ([]models.Post, error) {
	return r.list(ctx, bson.M{"author_id": authorID}, before, limit)
}

func (r *MongoPostRepository) list(ctx context.Context, filter bson.M, before string, limit int) ([]models.Post, error) {
	if before != "" {
		filter["_id"] = bson.M{"$lt": before}
	}
	findOptions := options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if post.Likes == nil {
		post.Likes = []string{}
	}
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	db := r.db.WithContext(ctx)
	var post models.Post
	if err := db.First(&post, "id = ?", id).Error; err != nil {
		return nil, gormNotFound(err)
	}
	likes, err := loadLikes(db, models.KindPost, []string{id})
	if err != nil {
		return nil, err
	}
	post.Likes = likes[id]
	return &post, nil
}

func (r *PostgresPostRepository) PostExists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// DeletePost removes the post together with its like rows.
func (r *PostgresPostRepository) DeletePost(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Post{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("entity_kind = ? AND entity_id = ?", models.KindPost, id).Delete(&models.Like{}).Error
	})
}

func (r *PostgresPostRepository) ListPublicPosts(ctx context.Context, before string, limit int) ([]models.Post, error) {
	db := r.db.WithContext(ctx)
	return listPosts(db, db.Where("is_public = ?", true), before, limit)
}

func (r *PostgresPostRepository) ListPostsByAuthor(ctx context.Context, authorID, before string, limit int) ([]models.Post, error) {
	db := r.db.WithContext(ctx)
	return listPosts(db, db.Where("author_id = ?", authorID), before, limit)
}

// listPosts runs q newest id first and attaches each post's like set.
func listPosts(db, q *gorm.DB, before string, limit int) ([]models.Post, error) {
	if before != "" {
		q = q.Where("id < ?", before)
	}
	posts := []models.Post{}
	if err := q.Order("id DESC").Limit(limit).Find(&posts).Error; err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	likes, err := loadLikes(db, models.KindPost, ids)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Likes = likes[posts[i].ID]
	}
	return posts, nil
}
