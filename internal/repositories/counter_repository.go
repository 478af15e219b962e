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

// maxClampAttempts bounds the decrement/clamp rounds when concurrent writers
// keep moving a counter across the decrement size.
const maxClampAttempts = 3

var errCounterContended = errors.New("counter kept changing during decrement")

// CounterRepository applies signed deltas to denormalized counters.
// Implementations never read-modify-write: the delta is evaluated by the
// store. A decrement larger than the current value sets the counter to zero
// and reports Clamped.
type CounterRepository interface {
	ApplyDelta(ctx context.Context, target models.CounterTarget, delta int) (models.CounterResult, error)
}

// MongoCounterRepository implements CounterRepository with $inc.
type MongoCounterRepository struct {
	db *mongo.Database
}

func NewMongoCounterRepository(db *mongo.Database) *MongoCounterRepository {
	return &MongoCounterRepository{db: db}
}

func (r *MongoCounterRepository) ApplyDelta(ctx context.Context, target models.CounterTarget, delta int) (models.CounterResult, error) {
	if !target.Valid() {
		return models.CounterResult{}, fmt.Errorf("invalid counter %s.%s", target.Kind, target.Field)
	}
	name, err := mongoCollectionFor(target.Kind)
	if err != nil {
		return models.CounterResult{}, err
	}
	coll := r.db.Collection(name)
	field := string(target.Field)
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{field: 1})

	filter := bson.M{"_id": target.ID}
	var doc bson.M
	if delta >= 0 {
		err = coll.FindOneAndUpdate(ctx, filter, bson.M{"$inc": bson.M{field: delta}}, opts).Decode(&doc)
		if err != nil {
			return models.CounterResult{}, mongoNotFound(err)
		}
		return models.CounterResult{Value: intField(doc, field)}, nil
	}

	for attempt := 0; attempt < maxClampAttempts; attempt++ {
		guarded := bson.M{"_id": target.ID, field: bson.M{"$gte": -delta}}
		err = coll.FindOneAndUpdate(ctx, guarded, bson.M{"$inc": bson.M{field: delta}}, opts).Decode(&doc)
		if err == nil {
			return models.CounterResult{Value: intField(doc, field)}, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return models.CounterResult{}, err
		}

		// The counter holds less than |delta|: pin it at zero, but only while
		// that is still true.
		short := bson.M{"_id": target.ID, field: bson.M{"$lt": -delta}}
		err = coll.FindOneAndUpdate(ctx, short, bson.M{"$set": bson.M{field: 0}}, opts).Decode(&doc)
		if err == nil {
			return models.CounterResult{Value: intField(doc, field), Clamped: true}, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return models.CounterResult{}, err
		}

		// Both filters missed: the record is gone, or a concurrent writer
		// moved the counter across |delta| in between.
		var n int64
		n, err = coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
		if err != nil {
			return models.CounterResult{}, err
		}
		if n == 0 {
			return models.CounterResult{}, ErrNotFound
		}
	}
	return models.CounterResult{}, errCounterContended
}

// PostgresCounterRepository implements CounterRepository with
// UPDATE ... SET col = col + delta.
type PostgresCounterRepository struct {
	db *gorm.DB
}

func NewPostgresCounterRepository(db *gorm.DB) *PostgresCounterRepository {
	return &PostgresCounterRepository{db: db}
}

func (r *PostgresCounterRepository) ApplyDelta(ctx context.Context, target models.CounterTarget, delta int) (models.CounterResult, error) {
	if !target.Valid() {
		return models.CounterResult{}, fmt.Errorf("invalid counter %s.%s", target.Kind, target.Field)
	}
	table, err := sqlTableFor(target.Kind)
	if err != nil {
		return models.CounterResult{}, err
	}

	var result models.CounterResult
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := applySQLDelta(tx, table, target.ID, string(target.Field), delta)
		result = res
		return err
	})
	return result, err
}

// applySQLDelta runs inside a transaction; column must come from a validated
// CounterField, never from user input.
func applySQLDelta(tx *gorm.DB, table, id, column string, delta int) (models.CounterResult, error) {
	if delta >= 0 {
		res := tx.Table(table).Where("id = ?", id).Update(column, gorm.Expr(column+" + ?", delta))
		if res.Error != nil {
			return models.CounterResult{}, res.Error
		}
		if res.RowsAffected == 0 {
			return models.CounterResult{}, ErrNotFound
		}
		return readSQLCounter(tx, table, id, column, false)
	}

	for attempt := 0; attempt < maxClampAttempts; attempt++ {
		res := tx.Table(table).Where("id = ? AND "+column+" >= ?", id, -delta).
			Update(column, gorm.Expr(column+" + ?", delta))
		if res.Error != nil {
			return models.CounterResult{}, res.Error
		}
		if res.RowsAffected > 0 {
			return readSQLCounter(tx, table, id, column, false)
		}

		res = tx.Table(table).Where("id = ? AND "+column+" < ?", id, -delta).Update(column, 0)
		if res.Error != nil {
			return models.CounterResult{}, res.Error
		}
		if res.RowsAffected > 0 {
			return readSQLCounter(tx, table, id, column, true)
		}

		var n int64
		if err := tx.Table(table).Where("id = ?", id).Count(&n).Error; err != nil {
			return models.CounterResult{}, err
		}
		if n == 0 {
			return models.CounterResult{}, ErrNotFound
		}
	}
	return models.CounterResult{}, errCounterContended
}

func readSQLCounter(tx *gorm.DB, table, id, column string, clamped bool) (models.CounterResult, error) {
	result := models.CounterResult{Clamped: clamped}
	if err := tx.Table(table).Select(column).Where("id = ?", id).Row().Scan(&result.Value); err != nil {
		return models.CounterResult{}, err
	}
	return result, nil
}
