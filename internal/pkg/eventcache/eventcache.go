package eventcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Cache is a derived, best-effort view of event data. Every method swallows
// backend failures after logging them; losing the cache never affects the
// reservation engine's invariant.
type Cache interface {
	GetEvent(ctx context.Context, eventID string, dest interface{}) bool
	SetEvent(ctx context.Context, eventID string, value interface{})
	GetEventList(ctx context.Context, listKey string, dest interface{}) bool
	SetEventList(ctx context.Context, listKey string, value interface{})
	GetAvailability(ctx context.Context, eventID string, dest interface{}) bool
	SetAvailability(ctx context.Context, eventID string, value interface{})
	InvalidateEvent(ctx context.Context, eventID string)
	InvalidateEventLists(ctx context.Context)
}

type Option struct {
	EventTTL        time.Duration
	EventListTTL    time.Duration
	AvailabilityTTL time.Duration
}

type redisCache struct {
	logger *logrus.Logger
	rc     *redis.Client
	opt    Option
}

func NewRedisCache(logger *logrus.Logger, rc *redis.Client, opt Option) Cache {
	return &redisCache{
		logger: logger,
		rc:     rc,
		opt:    opt,
	}
}

func eventKey(eventID string) string {
	return fmt.Sprintf("event:%s", eventID)
}

func eventListKey(listKey string) string {
	return fmt.Sprintf("events:list:%s", listKey)
}

func availabilityKey(eventID string) string {
	return fmt.Sprintf("event:availability:%s", eventID)
}

func (c *redisCache) get(ctx context.Context, key string, dest interface{}) bool {
	buff, err := c.rc.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn()
		}
		return false
	}

	if err := json.Unmarshal(buff, dest); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn()
		return false
	}

	return true
}

func (c *redisCache) set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	buff, err := json.Marshal(value)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn()
		return
	}

	if err := c.rc.Set(ctx, key, buff, ttl).Err(); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn()
	}
}

// GetEvent implements Cache.
func (c *redisCache) GetEvent(ctx context.Context, eventID string, dest interface{}) bool {
	return c.get(ctx, eventKey(eventID), dest)
}

// SetEvent implements Cache.
func (c *redisCache) SetEvent(ctx context.Context, eventID string, value interface{}) {
	c.set(ctx, eventKey(eventID), value, c.opt.EventTTL)
}

// GetEventList implements Cache.
func (c *redisCache) GetEventList(ctx context.Context, listKey string, dest interface{}) bool {
	return c.get(ctx, eventListKey(listKey), dest)
}

// SetEventList implements Cache.
func (c *redisCache) SetEventList(ctx context.Context, listKey string, value interface{}) {
	c.set(ctx, eventListKey(listKey), value, c.opt.EventListTTL)
}

// GetAvailability implements Cache.
func (c *redisCache) GetAvailability(ctx context.Context, eventID string, dest interface{}) bool {
	return c.get(ctx, availabilityKey(eventID), dest)
}

// SetAvailability implements Cache.
func (c *redisCache) SetAvailability(ctx context.Context, eventID string, value interface{}) {
	c.set(ctx, availabilityKey(eventID), value, c.opt.AvailabilityTTL)
}

// InvalidateEvent implements Cache.
func (c *redisCache) InvalidateEvent(ctx context.Context, eventID string) {
	if err := c.rc.Del(ctx, eventKey(eventID), availabilityKey(eventID)).Err(); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("eventId", eventID).Warn()
	}

	c.InvalidateEventLists(ctx)
}

// InvalidateEventLists implements Cache.
func (c *redisCache) InvalidateEventLists(ctx context.Context) {
	iter := c.rc.Scan(ctx, 0, eventListKey("*"), 0).Iterator()
	for iter.Next(ctx) {
		if err := c.rc.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.WithContext(ctx).WithError(err).WithField("key", iter.Val()).Warn()
		}
	}

	if err := iter.Err(); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn()
	}
}
