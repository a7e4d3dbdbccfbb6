package middleware

import (
	"fmt"
	"net/http"
	"time"

	"leavedesk/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const idempotencyLockTTL = 30 * time.Second

// Idempotency guards POST endpoints against duplicate submissions carrying
// the same Idempotency-Key. The SetNX lock expires on its own so a crashed
// request cannot wedge the key forever. A nil client disables the guard.
func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		idempKey := c.GetHeader("Idempotency-Key")
		if idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		userID := c.GetString("user_id")
		lockKey := fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), userID, idempKey)

		isNew, err := rdb.SetNX(c.Request.Context(), lockKey, "locked", idempotencyLockTTL).Result()
		if err != nil {
			// Redis being down should not block writes; skip the guard.
			c.Next()
			return
		}

		if !isNew {
			response.Error(c, http.StatusConflict, "A request with this idempotency key is already being processed")
			c.Abort()
			return
		}

		c.Next()
	}
}
