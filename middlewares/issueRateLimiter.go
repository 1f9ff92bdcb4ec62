package middlewares

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// QuotaCounter is the counter backend the rate limiter increments, one
// key per user per quota window.
type QuotaCounter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}

type redisQuotaCounter struct {
	client *redis.Client
}

// NewRedisQuotaCounter wraps a Redis client as a QuotaCounter.
func NewRedisQuotaCounter(client *redis.Client) QuotaCounter {
	return &redisQuotaCounter{client: client}
}

func (r *redisQuotaCounter) Incr(ctx context.Context, key string) (int64, error) {
	return r.client.Incr(ctx, key).Result()
}

func (r *redisQuotaCounter) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return r.client.Expire(ctx, key, ttl).Err()
}

func (r *redisQuotaCounter) TTL(ctx context.Context, key string) (time.Duration, error) {
	return r.client.TTL(ctx, key).Result()
}

// IssueRateLimiter caps how many issues a user may report per day, backed
// by a per-user counter with a 24h TTL.
func IssueRateLimiter(counter QuotaCounter, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDVal, _ := c.Get("user_id")
		userID, ok := userIDVal.(string)
		if !ok || userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		queuePrefix := os.Getenv("REDIS_QUEUE_FOR_ISSUE_LIMIT")
		if queuePrefix == "" {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Redis queue not configured"})
			c.Abort()
			return
		}

		userKey := queuePrefix + ":" + userID

		count, err := counter.Incr(ctx, userKey)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Something went wrong"})
			c.Abort()
			return
		}

		// TTL starts on the first report of the day
		if count == 1 {
			if err := counter.Expire(ctx, userKey, 24*time.Hour); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Something went wrong"})
				c.Abort()
				return
			}
		}

		if count > int64(limit) {
			retryAfter, _ := counter.TTL(ctx, userKey)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"message":     "Daily issue limit reached",
				"retry_after": retryAfter.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
