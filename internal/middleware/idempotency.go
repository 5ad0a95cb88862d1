package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rifas/internal/cache"
	"rifas/internal/i18n"
	"rifas/internal/logger"
)

const IdempotencyHeader = "Idempotency-Key"

// IdempotencyStore keeps finished responses per key
type IdempotencyStore interface {
	BeginIdempotent(ctx context.Context, scope, key string) (*cache.StoredResponse, error)
	CompleteIdempotent(ctx context.Context, scope, key string, resp cache.StoredResponse) error
	AbortIdempotent(ctx context.Context, scope, key string) error
}

type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response of a repeated Idempotency-Key.
// Only 2xx responses are kept; anything else frees the key for a retry.
// Store errors degrade to normal processing.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" || store == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		scope := c.Request.Method + ":" + c.Request.URL.Path
		if actor, ok := CurrentActor(c); ok {
			scope = actor.TenantID + ":" + actor.ID + ":" + scope
		}

		stored, err := store.BeginIdempotent(ctx, scope, key)
		switch {
		case errors.Is(err, cache.ErrRequestInFlight):
			abort(c, http.StatusConflict, "REQUEST_IN_FLIGHT", i18n.MsgUnexpected)
			return
		case err != nil:
			logger.WithContext(ctx).Warn("Idempotency store unavailable", "error", err)
			c.Next()
			return
		case stored != nil:
			c.Header("Idempotent-Replayed", "true")
			c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
			c.Abort()
			return
		}

		writer := &captureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer

		c.Next()

		bg := context.WithoutCancel(ctx)
		status := writer.Status()
		if status < 200 || status >= 300 || !json.Valid(writer.body.Bytes()) {
			if err := store.AbortIdempotent(bg, scope, key); err != nil {
				logger.WithContext(ctx).Warn("Failed to release idempotency key", "error", err)
			}
			return
		}

		resp := cache.StoredResponse{Status: status, Body: json.RawMessage(writer.body.Bytes())}
		if err := store.CompleteIdempotent(bg, scope, key, resp); err != nil {
			logger.WithContext(ctx).Warn("Failed to store idempotent response", "error", err)
		}
	}
}
