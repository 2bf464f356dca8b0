package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"veriface.io/infrastructure/logger"
)

const requestTimeout = 15 * time.Second

func (repo *MongoRepository[T]) preRequest() (context.Context, context.CancelFunc) {
	if repo.Model == nil {
		logger.Error("mongo repository used before its collection was initialised")
	}
	return context.WithTimeout(context.Background(), requestTimeout)
}

func (repo *MongoRepository[T]) CreateOne(ctx context.Context, payload T) (*T, error) {
	c, cancel := repo.preRequest()
	defer cancel()
	if ctx == nil {
		ctx = c
	}
	parsed := payload.ParseModel().(*T)
	_, err := repo.Model.InsertOne(ctx, parsed)
	if err != nil {
		logger.Error("mongo error occured while running CreateOne", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return nil, err
	}
	return parsed, nil
}

func (repo *MongoRepository[T]) FindByID(id string, opts ...*options.FindOneOptions) (*T, error) {
	return repo.FindOneByFilter(map[string]interface{}{"_id": id}, opts...)
}

func (repo *MongoRepository[T]) FindOneByFilter(filter map[string]interface{}, opts ...*options.FindOneOptions) (*T, error) {
	ctx, cancel := repo.preRequest()
	defer cancel()
	var result T
	err := repo.Model.FindOne(ctx, filter, opts...).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		logger.Error("mongo error occured while running FindOneByFilter", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return nil, err
	}
	return &result, nil
}

func (repo *MongoRepository[T]) FindMany(filter map[string]interface{}, opts ...*options.FindOptions) (*[]T, error) {
	ctx, cancel := repo.preRequest()
	defer cancel()
	cursor, err := repo.Model.Find(ctx, filter, opts...)
	if err != nil {
		logger.Error("mongo error occured while running FindMany", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return nil, err
	}
	results := []T{}
	if err := cursor.All(ctx, &results); err != nil {
		logger.Error("mongo error occured while decoding FindMany results", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return nil, err
	}
	return &results, nil
}

func (repo *MongoRepository[T]) CountDocs(filter map[string]interface{}) (int64, error) {
	ctx, cancel := repo.preRequest()
	defer cancel()
	count, err := repo.Model.CountDocuments(ctx, filter)
	if err != nil {
		logger.Error("mongo error occured while running CountDocs", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return 0, err
	}
	return count, nil
}

func (repo *MongoRepository[T]) UpdatePartialByID(id string, payload map[string]any) (int64, error) {
	return repo.UpdatePartialByFilter(map[string]interface{}{"_id": id}, payload)
}

func (repo *MongoRepository[T]) UpdatePartialByFilter(filter map[string]interface{}, payload map[string]any) (int64, error) {
	ctx, cancel := repo.preRequest()
	defer cancel()
	payload["updatedAt"] = time.Now()
	result, err := repo.Model.UpdateOne(ctx, filter, bson.M{"$set": payload})
	if err != nil {
		logger.Error("mongo error occured while running UpdatePartialByFilter", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return 0, err
	}
	return result.ModifiedCount, nil
}

// ReplaceOne upserts the full document for the filter
func (repo *MongoRepository[T]) ReplaceOne(filter map[string]interface{}, payload T) (int64, error) {
	ctx, cancel := repo.preRequest()
	defer cancel()
	parsed := payload.ParseModel().(*T)
	result, err := repo.Model.ReplaceOne(ctx, filter, parsed, options.Replace().SetUpsert(true))
	if err != nil {
		logger.Error("mongo error occured while running ReplaceOne", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return 0, err
	}
	return result.ModifiedCount + result.UpsertedCount, nil
}

func (repo *MongoRepository[T]) DeleteOne(filter map[string]interface{}) (int64, error) {
	ctx, cancel := repo.preRequest()
	defer cancel()
	result, err := repo.Model.DeleteOne(ctx, filter)
	if err != nil {
		logger.Error("mongo error occured while running DeleteOne", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return 0, err
	}
	return result.DeletedCount, nil
}
