package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IdempotencyKeyHeader carries the caller-supplied replay token for money
// movements. Clients retrying a failed request MUST resend the same value.
const IdempotencyKeyHeader = "X-Idempotency-Key"

// ResolveIdempotencyKey picks the replay token for a money movement: header
// first, then the request-body field. A server-generated key is the last
// resort and gives the caller no retry protection, so clients are expected
// to send their own.
func ResolveIdempotencyKey(c *gin.Context, bodyKey string) string {
	if key := c.GetHeader(IdempotencyKeyHeader); key != "" {
		return key
	}
	if bodyKey != "" {
		return bodyKey
	}
	return uuid.New().String()
}
