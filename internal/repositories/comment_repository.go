package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/interactions/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id string) (*models.Comment, error)
	GetCommentsByPostID(ctx context.Context, postID string, order models.CommentOrder) ([]models.Comment, error)
	GetReplies(ctx context.Context, parentID string, order models.CommentOrder) ([]models.Comment, error)
	// DeleteComment removes the comment unconditionally.
	DeleteComment(ctx context.Context, id string) error
	// DeleteLeafComment removes the comment only while its reply_count is 0.
	// It reports false when the comment exists but has replies.
	DeleteLeafComment(ctx context.Context, id string) (bool, error)
	// RedactComment blanks the content and marks the comment deleted,
	// keeping its place in the tree.
	RedactComment(ctx context.Context, id string) error
}

// MongoCommentRepository implements CommentRepository for MongoDB
type MongoCommentRepository struct {
	collection *mongo.Collection
}

// NewMongoCommentRepository creates a new MongoCommentRepository
func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{collection: db.Collection(commentsCollection)}
}

func (r *MongoCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	if comment.Likes == nil {
		comment.Likes = []string{}
	}
	if comment.Ancestors == nil {
		comment.Ancestors = []string{}
	}
	_, err := r.collection.InsertOne(ctx, comment)
	return err
}

func (r *MongoCommentRepository) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&comment); err != nil {
		return nil, mongoNotFound(err)
	}
	return &comment, nil
}

func (r *MongoCommentRepository) GetCommentsByPostID(ctx context.Context, postID string, order models.CommentOrder) ([]models.Comment, error) {
	return r.find(ctx, bson.M{"post_id": postID}, order)
}

func (r *MongoCommentRepository) GetReplies(ctx context.Context, parentID string, order models.CommentOrder) ([]models.Comment, error) {
	return r.find(ctx, bson.M{"parent_comment": parentID}, order)
}

func (r *MongoCommentRepository) find(ctx context.Context, filter bson.M, order models.CommentOrder) ([]models.Comment, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: sortDirection(order)}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err = cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *MongoCommentRepository) DeleteComment(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoCommentRepository) DeleteLeafComment(ctx context.Context, id string) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "reply_count": bson.M{"$lte": 0}})
	if err != nil {
		return false, err
	}
	if res.DeletedCount == 1 {
		return true, nil
	}
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, ErrNotFound
	}
	return false, nil
}

func (r *MongoCommentRepository) RedactComment(ctx context.Context, id string) error {
	update := bson.M{"$set": bson.M{
		"content":    "",
		"deleted":    true,
		"updated_at": time.Now().UTC(),
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

func (r *PostgresCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	if comment.Likes == nil {
		comment.Likes = []string{}
	}
	if comment.Ancestors == nil {
		comment.Ancestors = []string{}
	}
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *PostgresCommentRepository) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	db := r.db.WithContext(ctx)
	var comment models.Comment
	if err := db.First(&comment, "id = ?", id).Error; err != nil {
		return nil, gormNotFound(err)
	}
	likes, err := loadLikes(db, models.KindComment, []string{id})
	if err != nil {
		return nil, err
	}
	comment.Likes = likes[id]
	return &comment, nil
}

func (r *PostgresCommentRepository) GetCommentsByPostID(ctx context.Context, postID string, order models.CommentOrder) ([]models.Comment, error) {
	return r.find(ctx, "post_id = ?", postID, order)
}

func (r *PostgresCommentRepository) GetReplies(ctx context.Context, parentID string, order models.CommentOrder) ([]models.Comment, error) {
	return r.find(ctx, "parent_comment = ?", parentID, order)
}

func (r *PostgresCommentRepository) find(ctx context.Context, where string, arg string, order models.CommentOrder) ([]models.Comment, error) {
	db := r.db.WithContext(ctx)
	comments := []models.Comment{}
	if err := db.Where(where, arg).Order(sqlOrder(order)).Find(&comments).Error; err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return comments, nil
	}

	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	likes, err := loadLikes(db, models.KindComment, ids)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		comments[i].Likes = likes[comments[i].ID]
	}
	return comments, nil
}

func (r *PostgresCommentRepository) DeleteComment(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Comment{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("entity_kind = ? AND entity_id = ?", models.KindComment, id).Delete(&models.Like{}).Error
	})
}

func (r *PostgresCommentRepository) DeleteLeafComment(ctx context.Context, id string) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Comment{}, "id = ? AND reply_count <= 0", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&models.Comment{}).Where("id = ?", id).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return ErrNotFound
			}
			return nil
		}
		deleted = true
		return tx.Where("entity_kind = ? AND entity_id = ?", models.KindComment, id).Delete(&models.Like{}).Error
	})
	return deleted, err
}

func (r *PostgresCommentRepository) RedactComment(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Updates(map[string]interface{}{
		"content":    "",
		"deleted":    true,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
