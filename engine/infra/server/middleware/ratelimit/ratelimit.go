// Package ratelimit throttles the ingestion endpoints so a misbehaving
// reporting channel cannot flood the dispatch queue.
package ratelimit

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// New builds a per-client-IP rate limiting middleware from a formatted
// rate such as "30-M" (30 requests per minute). The counters live in an
// in-memory store; a multi-instance deployment needs a shared backend.
func New(formatted string) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", formatted, err)
	}
	return mgin.NewMiddleware(limiter.New(memory.NewStore(), rate)), nil
}
