package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trialscope-ai/trialsync/pkg/common/models"
)

const (
	runLockKey = "trialsync:run-lock"
	lastRunKey = "trialsync:last-run"
)

var ErrNoLastRun = errors.New("no completed run recorded")

// StateStore serializes overlapping triggers with a redis lock and caches
// the last run summary for the status endpoint.
type StateStore struct {
	client  *redis.Client
	lockTTL time.Duration
}

func NewStateStore(client *redis.Client, lockTTL time.Duration) *StateStore {
	return &StateStore{client: client, lockTTL: lockTTL}
}

// AcquireLock claims the run lock for runID. Returns false when another run
// holds it. The TTL guards against a crashed run leaving the lock behind.
func (s *StateStore) AcquireLock(ctx context.Context, runID string) (bool, error) {
	return s.client.SetNX(ctx, runLockKey, runID, s.lockTTL).Result()
}

func (s *StateStore) ReleaseLock(ctx context.Context) error {
	return s.client.Del(ctx, runLockKey).Err()
}

func (s *StateStore) SaveLastRun(ctx context.Context, summary models.RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, lastRunKey, data, 0).Err()
}

func (s *StateStore) LastRun(ctx context.Context) (*models.RunSummary, error) {
	data, err := s.client.Get(ctx, lastRunKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoLastRun
	}
	if err != nil {
		return nil, err
	}

	var summary models.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
