package di

import (
	"time"

	"github.com/redis/go-redis/v9"

	"mri_diagnosis/internal/feature/diagnosis/adapters/memory"
	"mri_diagnosis/internal/feature/diagnosis/usecase"
	"mri_diagnosis/internal/platform/session"
)

// NewSessionRepository creates a SessionRepository implementation.
// If Redis is available, it returns a Redis-backed implementation.
// Otherwise, it falls back to an in-process store.
func NewSessionRepository(rdb *redis.Client, ttl time.Duration) usecase.SessionRepository {
	if rdb != nil {
		return session.NewSessionRedis(rdb, "diagnosis_session", ttl)
	}
	return memory.NewSessionMemory(ttl)
}
