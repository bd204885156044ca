package repository

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoTable[T any] struct {
	coll *mongo.Collection
}

// NewMongoTable 컬렉션 기반 테이블
func NewMongoTable[T any](db *mongo.Database, name string) Table[T] {
	return &mongoTable[T]{coll: db.Collection(name)}
}

func (t *mongoTable[T]) Name() string {
	return t.coll.Name()
}

func (t *mongoTable[T]) Select(ctx context.Context, q Query) ([]T, error) {
	opts := options.Find()
	if sort := sortDocument(q.Order); len(sort) > 0 {
		opts.SetSort(sort)
	}

	cursor, err := t.coll.Find(ctx, filterDocument(q.Where, q.AnyOf), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rows := []T{}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (t *mongoTable[T]) Single(ctx context.Context, q Query) (T, error) {
	var row T
	opts := options.FindOne()
	if sort := sortDocument(q.Order); len(sort) > 0 {
		opts.SetSort(sort)
	}

	err := t.coll.FindOne(ctx, filterDocument(q.Where, q.AnyOf), opts).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return row, ErrNoRows
	}
	return row, err
}

func (t *mongoTable[T]) Insert(ctx context.Context, row T) (primitive.ObjectID, error) {
	result, err := t.coll.InsertOne(ctx, row)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, _ := result.InsertedID.(primitive.ObjectID)
	return id, nil
}

func (t *mongoTable[T]) Update(ctx context.Context, where []Cond, set bson.M) (int64, error) {
	result, err := t.coll.UpdateMany(ctx, filterDocument(where, nil), bson.M{"$set": set})
	if err != nil {
		return 0, err
	}
	return result.MatchedCount, nil
}

func (t *mongoTable[T]) Delete(ctx context.Context, where []Cond) (int64, error) {
	result, err := t.coll.DeleteMany(ctx, filterDocument(where, nil))
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (t *mongoTable[T]) Count(ctx context.Context, where []Cond) (int64, error) {
	return t.coll.CountDocuments(ctx, filterDocument(where, nil))
}

// filterDocument 조건을 bson 필터로 변환. 같은 필드의 조건은 한 문서로 합친다
func filterDocument(where, anyOf []Cond) bson.M {
	filter := bson.M{}
	for _, c := range where {
		field, ok := filter[c.Field].(bson.M)
		if !ok {
			field = bson.M{}
			filter[c.Field] = field
		}
		for k, v := range condOperator(c) {
			field[k] = v
		}
	}

	if len(anyOf) > 0 {
		or := make(bson.A, 0, len(anyOf))
		for _, c := range anyOf {
			or = append(or, bson.M{c.Field: condOperator(c)})
		}
		filter["$or"] = or
	}
	return filter
}

func condOperator(c Cond) bson.M {
	if c.Op == OpILike {
		pattern, _ := c.Value.(string)
		return bson.M{"$regex": regexp.QuoteMeta(pattern), "$options": "i"}
	}
	return bson.M{string(c.Op): c.Value}
}

func sortDocument(orders []Order) bson.D {
	sort := bson.D{}
	for _, o := range orders {
		dir := -1
		if o.Ascending {
			dir = 1
		}
		sort = append(sort, bson.E{Key: o.Field, Value: dir})
	}
	return sort
}
