package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mkarlberg/slotbase-backend/internal/logger"
)

// AuditEvent is the outbox record emitted when a deletion job reaches a
// terminal state.
type AuditEvent struct {
	TenantID   uuid.UUID              `json:"tenant_id"`
	UserID     uuid.UUID              `json:"user_id"`
	Action     string                 `json:"action"`
	Resource   string                 `json:"resource"`
	ResourceID string                 `json:"resource_id"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	EmittedAt  time.Time              `json:"emitted_at"`
}

// AuditEmitter is a best-effort outbox: LogAsync returns immediately, never
// blocks the caller, and a sink outage is logged rather than surfaced.
type AuditEmitter interface {
	LogAsync(event AuditEvent)
}

type redisAuditEmitter struct {
	log    *logger.Logger
	rdb    *redis.Client
	stream string
}

func NewRedisAuditEmitter(log *logger.Logger) (AuditEmitter, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	stream := strings.TrimSpace(os.Getenv("AUDIT_STREAM"))
	if stream == "" {
		stream = "audit_events"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisAuditEmitter{
		log:    log.With("service", "RedisAuditEmitter"),
		rdb:    rdb,
		stream: stream,
	}, nil
}

func (e *redisAuditEmitter) LogAsync(event AuditEvent) {
	if e == nil || e.rdb == nil {
		return
	}
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		raw, err := json.Marshal(event)
		if err != nil {
			e.log.Warn("Failed to marshal audit event", "resource_id", event.ResourceID, "error", err)
			return
		}
		if err := e.rdb.XAdd(ctx, &redis.XAddArgs{
			Stream: e.stream,
			Values: map[string]interface{}{"event": raw},
		}).Err(); err != nil {
			e.log.Warn("Failed to emit audit event", "resource_id", event.ResourceID, "error", err)
		}
	}()
}

type noopAuditEmitter struct {
	log *logger.Logger
}

// NewNoopAuditEmitter keeps the worker wiring intact when no Redis is
// configured; events are logged and dropped.
func NewNoopAuditEmitter(log *logger.Logger) AuditEmitter {
	return &noopAuditEmitter{log: log.With("service", "NoopAuditEmitter")}
}

func (e *noopAuditEmitter) LogAsync(event AuditEvent) {
	e.log.Debug("Audit event dropped (no sink configured)", "action", event.Action, "resource", event.Resource, "resource_id", event.ResourceID)
}
