package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/nano-midea/interactions/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository mutates the like set of a post or comment together with its
// likes_count, as one atomic store write per call.
type LikeRepository interface {
	// AddLike adds userID if absent and increments likes_count. It returns
	// nil state (and no error) when userID was already a member.
	AddLike(ctx context.Context, kind models.EntityKind, id, userID string) (*models.LikeState, error)
	// RemoveLike removes userID if present and decrements likes_count,
	// clamping at zero. It returns nil state when userID was not a member.
	RemoveLike(ctx context.Context, kind models.EntityKind, id, userID string) (*models.LikeState, error)
	Exists(ctx context.Context, kind models.EntityKind, id string) (bool, error)
}

type likeDoc struct {
	Likes      []string `bson:"likes"`
	LikesCount int      `bson:"likes_count"`
}

// MongoLikeRepository keeps likes as an array on the liked document.
type MongoLikeRepository struct {
	db *mongo.Database
}

func NewMongoLikeRepository(db *mongo.Database) *MongoLikeRepository {
	return &MongoLikeRepository{db: db}
}

func (r *MongoLikeRepository) collection(kind models.EntityKind) (*mongo.Collection, error) {
	name, err := mongoCollectionFor(kind)
	if err != nil {
		return nil, err
	}
	return r.db.Collection(name), nil
}

func likeProjection() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"likes": 1, "likes_count": 1})
}

func (r *MongoLikeRepository) AddLike(ctx context.Context, kind models.EntityKind, id, userID string) (*models.LikeState, error) {
	coll, err := r.collection(kind)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": id, "likes": bson.M{"$ne": userID}}
	update := bson.M{
		"$addToSet": bson.M{"likes": userID},
		"$inc":      bson.M{"likes_count": 1},
	}
	var doc likeDoc
	err = coll.FindOneAndUpdate(ctx, filter, update, likeProjection()).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &models.LikeState{Likes: doc.Likes, LikesCount: doc.LikesCount}, nil
}

func (r *MongoLikeRepository) RemoveLike(ctx context.Context, kind models.EntityKind, id, userID string) (*models.LikeState, error) {
	coll, err := r.collection(kind)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"_id": id, "likes": userID}
	update := bson.M{
		"$pull": bson.M{"likes": userID},
		"$inc":  bson.M{"likes_count": -1},
	}
	var doc likeDoc
	err = coll.FindOneAndUpdate(ctx, filter, update, likeProjection()).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	state := &models.LikeState{Likes: doc.Likes, LikesCount: doc.LikesCount}
	if doc.LikesCount >= 0 {
		return state, nil
	}

	// $max only ever raises the value, so it cannot undo a concurrent increment.
	err = coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$max": bson.M{"likes_count": 0}}, likeProjection()).Decode(&doc)
	if err != nil {
		return nil, mongoNotFound(err)
	}
	return &models.LikeState{Likes: doc.Likes, LikesCount: doc.LikesCount, Clamped: true}, nil
}

func (r *MongoLikeRepository) Exists(ctx context.Context, kind models.EntityKind, id string) (bool, error) {
	coll, err := r.collection(kind)
	if err != nil {
		return false, err
	}
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

// PostgresLikeRepository keeps likes as rows in a table with a unique
// (entity_kind, entity_id, user_id) index.
type PostgresLikeRepository struct {
	db *gorm.DB
}

func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

func (r *PostgresLikeRepository) AddLike(ctx context.Context, kind models.EntityKind, id, userID string) (*models.LikeState, error) {
	table, err := sqlTableFor(kind)
	if err != nil {
		return nil, err
	}

	var state *models.LikeState
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		like := &models.Like{EntityKind: kind, EntityID: id, UserID: userID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(like)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		res = tx.Table(table).Where("id = ?", id).
			Update("likes_count", gorm.Expr("likes_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		s, err := likeState(tx, table, kind, id)
		state = s
		return err
	})
	return state, err
}

func (r *PostgresLikeRepository) RemoveLike(ctx context.Context, kind models.EntityKind, id, userID string) (*models.LikeState, error) {
	table, err := sqlTableFor(kind)
	if err != nil {
		return nil, err
	}

	var state *models.LikeState
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("entity_kind = ? AND entity_id = ? AND user_id = ?", kind, id, userID).
			Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		counter, err := applySQLDelta(tx, table, id, string(models.FieldLikesCount), -1)
		if err != nil {
			return err
		}
		state, err = likeState(tx, table, kind, id)
		if err != nil {
			return err
		}
		state.Clamped = counter.Clamped
		return nil
	})
	return state, err
}

func (r *PostgresLikeRepository) Exists(ctx context.Context, kind models.EntityKind, id string) (bool, error) {
	table, err := sqlTableFor(kind)
	if err != nil {
		return false, err
	}
	var n int64
	err = r.db.WithContext(ctx).Table(table).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func likeState(tx *gorm.DB, table string, kind models.EntityKind, id string) (*models.LikeState, error) {
	var count int
	if err := tx.Table(table).Select("likes_count").Where("id = ?", id).Row().Scan(&count); err != nil {
		return nil, err
	}
	likes, err := loadLikes(tx, kind, []string{id})
	if err != nil {
		return nil, err
	}
	return &models.LikeState{Likes: likes[id], LikesCount: count}, nil
}

// loadLikes returns the like set of each id, in like order. Every requested
// id gets a non-nil slice.
func loadLikes(db *gorm.DB, kind models.EntityKind, ids []string) (map[string][]string, error) {
	var rows []models.Like
	err := db.Where("entity_kind = ? AND entity_id IN ?", kind, ids).Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(ids))
	for _, id := range ids {
		out[id] = []string{}
	}
	for _, row := range rows {
		out[row.EntityID] = append(out[row.EntityID], row.UserID)
	}
	return out, nil
}
