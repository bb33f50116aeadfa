package redis

import (
	"github.com/redis/go-redis/v9"
)

type Option struct {
	Addr     string
	Password string
	DB       int
}

func NewClient(opt Option) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opt.Addr,
		Password: opt.Password,
		DB:       opt.DB,
	})
}
