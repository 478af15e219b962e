package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/interactions/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository stores chat metadata keyed by the canonical participant key.
type ChatRepository interface {
	// CreateChat inserts chat and returns ErrDuplicateKey if its key is taken.
	CreateChat(ctx context.Context, chat *models.ChatMetadata) error
	GetChatByKey(ctx context.Context, key string) (*models.ChatMetadata, error)
	DeleteChat(ctx context.Context, key string) error
}

// MongoChatRepository implements ChatRepository for MongoDB
type MongoChatRepository struct {
	collection *mongo.Collection
}

// NewMongoChatRepository creates a new MongoChatRepository
func NewMongoChatRepository(db *mongo.Database) *MongoChatRepository {
	return &MongoChatRepository{collection: db.Collection(chatsCollection)}
}

func (r *MongoChatRepository) CreateChat(ctx context.Context, chat *models.ChatMetadata) error {
	_, err := r.collection.InsertOne(ctx, chat)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	}
	return err
}

func (r *MongoChatRepository) GetChatByKey(ctx context.Context, key string) (*models.ChatMetadata, error) {
	var chat models.ChatMetadata
	if err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&chat); err != nil {
		return nil, mongoNotFound(err)
	}
	return &chat, nil
}

func (r *MongoChatRepository) DeleteChat(ctx context.Context, key string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresChatRepository implements ChatRepository for PostgreSQL
type PostgresChatRepository struct {
	db *gorm.DB
}

// NewPostgresChatRepository creates a new PostgresChatRepository
func NewPostgresChatRepository(db *gorm.DB) *PostgresChatRepository {
	return &PostgresChatRepository{db: db}
}

func (r *PostgresChatRepository) CreateChat(ctx context.Context, chat *models.ChatMetadata) error {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(chat)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicateKey
	}
	return nil
}

func (r *PostgresChatRepository) GetChatByKey(ctx context.Context, key string) (*models.ChatMetadata, error) {
	var chat models.ChatMetadata
	if err := r.db.WithContext(ctx).First(&chat, "chat_key = ?", key).Error; err != nil {
		return nil, gormNotFound(err)
	}
	return &chat, nil
}

func (r *PostgresChatRepository) DeleteChat(ctx context.Context, key string) error {
	res := r.db.WithContext(ctx).Delete(&models.ChatMetadata{}, "chat_key = ?", key)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
