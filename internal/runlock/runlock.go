// Package runlock provides an optional redis lock keyed by target date,
// so two triggers for the same date do not both send mail. The pipeline
// works without it; it exists for deployments that run more than one
// instance.
package runlock

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rawbank/siop-reporter/internal/model"
)

// ErrRunLocked means another run already holds the lock for this date.
var ErrRunLocked = errors.New("a run for this date is already in progress")

const keyPrefix = "siop:runlock:"

const defaultTTL = 10 * time.Minute

type Lock struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Lock{rdb: rdb, ttl: ttl}
}

func key(date model.ReportDate) string {
	return keyPrefix + date.FileToken()
}

// Acquire takes the date lock, or returns ErrRunLocked when held. The
// TTL bounds how long a crashed run can block later ones.
func (l *Lock) Acquire(ctx context.Context, date model.ReportDate) error {
	ok, err := l.rdb.SetNX(ctx, key(date), 1, l.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrRunLocked
	}
	return nil
}

// Release drops the lock. Best-effort: on failure the TTL cleans up.
func (l *Lock) Release(ctx context.Context, date model.ReportDate) {
	_ = l.rdb.Del(ctx, key(date)).Err()
}
