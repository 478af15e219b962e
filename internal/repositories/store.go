package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/nano-midea/interactions/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when an insert hits a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key")
)

const (
	postsCollection    = "posts"
	commentsCollection = "comments"
	chatsCollection    = "chat_metadata"
)

// Store bundles the repositories of one backing store.
type Store struct {
	Posts    PostRepository
	Comments CommentRepository
	Counters CounterRepository
	Likes    LikeRepository
	Chats    ChatRepository
}

// NewMongoStore wires every repository against one Mongo database.
func NewMongoStore(db *mongo.Database) *Store {
	return &Store{
		Posts:    NewMongoPostRepository(db),
		Comments: NewMongoCommentRepository(db),
		Counters: NewMongoCounterRepository(db),
		Likes:    NewMongoLikeRepository(db),
		Chats:    NewMongoChatRepository(db),
	}
}

// NewPostgresStore wires every repository against one GORM connection.
func NewPostgresStore(db *gorm.DB) *Store {
	return &Store{
		Posts:    NewPostgresPostRepository(db),
		Comments: NewPostgresCommentRepository(db),
		Counters: NewPostgresCounterRepository(db),
		Likes:    NewPostgresLikeRepository(db),
		Chats:    NewPostgresChatRepository(db),
	}
}

// AutoMigrate creates or updates the SQL schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.ChatMetadata{},
	)
}

// EnsureMongoIndexes creates the indexes the feed and thread queries rely on.
// Chat keys are stored as _id, which is unique already.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		postsCollection: {
			{Keys: bson.D{{Key: "is_public", Value: 1}, {Key: "_id", Value: -1}}},
		},
		commentsCollection: {
			{Keys: bson.D{{Key: "post_id", Value: 1}, {Key: "_id", Value: -1}}},
			{Keys: bson.D{{Key: "parent_comment", Value: 1}, {Key: "_id", Value: -1}}},
		},
		chatsCollection: {
			{Keys: bson.D{{Key: "users", Value: 1}}, Options: options.Index().SetName("users_1")},
		},
	}
	for coll, specs := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

func mongoCollectionFor(kind models.EntityKind) (string, error) {
	switch kind {
	case models.KindPost:
		return postsCollection, nil
	case models.KindComment:
		return commentsCollection, nil
	}
	return "", fmt.Errorf("unknown entity kind %q", kind)
}

func sqlTableFor(kind models.EntityKind) (string, error) {
	switch kind {
	case models.KindPost:
		return models.Post{}.TableName(), nil
	case models.KindComment:
		return models.Comment{}.TableName(), nil
	}
	return "", fmt.Errorf("unknown entity kind %q", kind)
}

// intField reads a numeric field from a decoded document regardless of the
// BSON integer width the server chose.
func intField(doc bson.M, field string) int {
	switch v := doc[field].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func mongoNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func gormNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// sortDirection maps a comment order to a Mongo sort value.
func sortDirection(order models.CommentOrder) int {
	if order == models.OldestFirst {
		return 1
	}
	return -1
}

func sqlOrder(order models.CommentOrder) string {
	if order == models.OldestFirst {
		return "id ASC"
	}
	return "id DESC"
}
