package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/JOHNINFA/crm-fabrica-sub005/internal/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// ErrStorageFailure marks a failed draft write. The draft store is a
// best-effort mirror of the backend of record, so callers log it and keep
// going rather than failing the request.
var ErrStorageFailure = errors.New("draft storage failure")

// DraftStore keeps one JSON-encoded snapshot per DraftKey in Redis.
type DraftStore struct {
	rdb *redis.Client
}

// NewDraftStore creates a new instance of DraftStore.
func NewDraftStore(rdb *redis.Client) *DraftStore {
	return &DraftStore{rdb: rdb}
}

// Get returns the stored snapshot for key, or absent. Redis and decode
// errors are reported as absent: a broken cache entry must never block a
// load.
func (s *DraftStore) Get(ctx context.Context, key entity.DraftKey) (*entity.DraftSnapshot, bool) {
	data, err := s.rdb.Get(ctx, key.String()).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Error().Err(err).Msgf("Error reading draft %s from store", key)
		}
		return nil, false
	}

	var snapshot entity.DraftSnapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		logger.Error().Err(err).Msgf("Error unmarshalling draft %s", key)
		return nil, false
	}

	return &snapshot, true
}

// Put overwrites the whole snapshot for key. No merge happens at this layer;
// reconciliation is the service's job.
func (s *DraftStore) Put(ctx context.Context, key entity.DraftKey, snapshot *entity.DraftSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("%w: marshalling draft %s: %v", ErrStorageFailure, key, err)
	}

	if err := s.rdb.Set(ctx, key.String(), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: writing draft %s: %v", ErrStorageFailure, key, err)
	}

	return nil
}

// Purge deletes every snapshot under prefix and returns how many were
// removed. Maintenance surface only.
func (s *DraftStore) Purge(ctx context.Context, prefix string) (int, error) {
	removed := 0

	iter := s.rdb.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return removed, fmt.Errorf("%w: deleting %s: %v", ErrStorageFailure, iter.Val(), err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("%w: scanning %s: %v", ErrStorageFailure, prefix, err)
	}

	return removed, nil
}
