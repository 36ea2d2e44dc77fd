// Package redis provides Redis-based adapters for guardlink.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/guardlink/internal/domain/model"
)

const (
	defaultPrefix     = "guardlink:{roster}:"
	defaultHashTag    = "{roster}:"
	defaultHistoryTTL = 7 * 24 * time.Hour
	historyKeyLayout  = "200601021504"
)

// SnapshotCacheOptions configures SnapshotCache.
type SnapshotCacheOptions struct {
	// Prefix namespaces every key. Defaults to "guardlink:{roster}:". A prefix
	// without a cluster hash tag gets "{roster}:" appended so all keys share a slot.
	Prefix string
	// HistoryTTL bounds how long per-cycle copies are retained. Zero uses the
	// default of seven days; a negative value disables history.
	HistoryTTL time.Duration
}

// SnapshotCache stores the latest roster snapshot in Redis.
//
// Layout:
//
//	<prefix>latest          JSON snapshot metadata and entries
//	<prefix>entries         hash of account id -> JSON entry, for point lookups
//	<prefix>history:<stamp> JSON snapshot copy with TTL
//
// The prefix carries a hash tag, so in cluster mode every key lives in one
// slot and SaveSnapshot stays a single MULTI/EXEC.
type SnapshotCache struct {
	client     redis.UniversalClient
	prefix     string
	historyTTL time.Duration
}

// NewSnapshotCache creates a Redis-backed snapshot cache.
func NewSnapshotCache(client redis.UniversalClient, opts SnapshotCacheOptions) *SnapshotCache {
	switch {
	case opts.Prefix == "":
		opts.Prefix = defaultPrefix
	case hashTag(opts.Prefix) == "":
		opts.Prefix += defaultHashTag
	}
	if opts.HistoryTTL == 0 {
		opts.HistoryTTL = defaultHistoryTTL
	}
	return &SnapshotCache{client: client, prefix: opts.Prefix, historyTTL: opts.HistoryTTL}
}

// hashTag returns the Redis Cluster hash tag of key, or "" when it has none.
func hashTag(key string) string {
	start := strings.IndexByte(key, '{')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(key[start+1:], '}')
	if end <= 0 {
		return ""
	}
	return key[start+1 : start+1+end]
}

func (c *SnapshotCache) latestKey() string  { return c.prefix + "latest" }
func (c *SnapshotCache) entriesKey() string { return c.prefix + "entries" }

func (c *SnapshotCache) historyKey(at time.Time) string {
	return c.prefix + "history:" + at.UTC().Format(historyKeyLayout)
}

// SaveSnapshot replaces the latest snapshot and its entry index in one transaction.
func (c *SnapshotCache) SaveSnapshot(ctx context.Context, snap *model.RosterSnapshot) error {
	if snap == nil {
		return errors.New("snapshot cannot be nil")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	fields := make(map[string]any, len(snap.Entries))
	for _, e := range snap.Entries {
		b, marshalErr := json.Marshal(e)
		if marshalErr != nil {
			return fmt.Errorf("marshal entry %d: %w", e.AccountID, marshalErr)
		}
		fields[strconv.FormatInt(e.AccountID, 10)] = b
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.latestKey(), data, 0)
		pipe.Del(ctx, c.entriesKey())
		if len(fields) > 0 {
			pipe.HSet(ctx, c.entriesKey(), fields)
		}
		if c.historyTTL > 0 {
			pipe.Set(ctx, c.historyKey(snap.FetchedAt), data, c.historyTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recently saved snapshot, or nil when none exists.
func (c *SnapshotCache) LatestSnapshot(ctx context.Context) (*model.RosterSnapshot, error) {
	data, err := c.client.Get(ctx, c.latestKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var snap model.RosterSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// LookupEntry finds accountID in the latest snapshot.
func (c *SnapshotCache) LookupEntry(ctx context.Context, accountID int64) (model.RosterEntry, bool, error) {
	data, err := c.client.HGet(ctx, c.entriesKey(), strconv.FormatInt(accountID, 10)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.RosterEntry{}, false, nil
		}
		return model.RosterEntry{}, false, fmt.Errorf("redis hget: %w", err)
	}
	var e model.RosterEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return model.RosterEntry{}, false, fmt.Errorf("unmarshal entry: %w", err)
	}
	return e, true, nil
}
