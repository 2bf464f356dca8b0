package cache

import (
	"context"
	"os"
	"sync"

	"github.com/redis/go-redis/v9"

	"veriface.io/infrastructure/logger"
)

type RedisConnection struct {
	Client *redis.Client
}

var (
	instance *RedisConnection
	once     sync.Once
)

func ConnectToCache() {
	GetInstance()
}

func GetInstance() (*RedisConnection, error) {
	once.Do(func() {
		opt := &redis.Options{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
			PoolSize: 10,
		}
		client := redis.NewClient(opt)
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Warning("could not reach redis", logger.LoggerOptions{
				Key:  "error",
				Data: err,
			})
		} else {
			logger.Info("connected to redis successfully")
		}
		instance = &RedisConnection{Client: client}
	})
	return instance, nil
}
