// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

// Redis implementation of the authoritative progress blob store.

package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/iqralabs/iqra/internal/platform/constants"
)

// redisBlobStore implements [BlobStore] on top of Redis.
//
// Blobs carry no TTL: reading progress is long-lived state, not a cache.
type redisBlobStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewBlobStore constructs a Redis backed progress blob store.
func NewBlobStore(client *redis.Client, logger *slog.Logger) BlobStore {
	return &redisBlobStore{client: client, logger: logger}
}

// Load returns the reader's progress blob, or an empty blob when the key is
// missing or holds something unparseable.
func (store *redisBlobStore) Load(ctx context.Context, subjectID string) (Blob, error) {
	raw, err := store.client.Get(ctx, blobKey(subjectID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Blob{}, nil
		}
		return nil, fmt.Errorf("redis_progress_store_load_failed: %w", err)
	}

	blob, err := DecodeBlob(raw)
	if err != nil {
		// A corrupt blob is treated as absent. The reader starts over
		// rather than being locked out of reading.
		store.logger.Warn("discarding corrupt progress blob",
			slog.String("subject_id", subjectID),
			slog.String("error", err.Error()),
		)
		return Blob{}, nil
	}

	return blob, nil
}

// Save overwrites the reader's progress blob.
func (store *redisBlobStore) Save(ctx context.Context, subjectID string, blob Blob) error {
	payload, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("redis_progress_store_encode_failed: %w", err)
	}

	if err := store.client.Set(ctx, blobKey(subjectID), payload, 0).Err(); err != nil {
		return fmt.Errorf("redis_progress_store_save_failed: %w", err)
	}

	return nil
}

// DecodeBlob parses a serialized progress blob.
func DecodeBlob(raw []byte) (Blob, error) {
	var blob Blob
	if err := json.Unmarshal(raw, &blob); err != nil {
		return nil, err
	}
	if blob == nil {
		blob = Blob{}
	}
	return blob, nil
}

// blobKey returns the Redis key holding a reader's progress blob.
func blobKey(subjectID string) string {
	return constants.RedisPrefixProgressBlob + subjectID
}
