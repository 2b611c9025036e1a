package astrostore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/lightcast/internal/domain/astrocache"
)

// ValkeyStore shares cache entries between replicas. Values are JSON; a
// sorted set scored by computedAt (unix ms) indexes them for invalidation.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "lightcast:astro"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) Get(ctx context.Context, key string) (astrocache.Entry, bool, error) {
	payload, err := s.client.Do(ctx, s.client.B().Get().Key(s.entryKey(key)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return astrocache.Entry{}, false, nil
		}
		return astrocache.Entry{}, false, err
	}
	var entry astrocache.Entry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		return astrocache.Entry{}, false, fmt.Errorf("decode astro entry %s: %w", key, err)
	}
	return entry, true, nil
}

func (s *ValkeyStore) Put(ctx context.Context, key string, entry astrocache.Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	score := float64(entry.ComputedAt.UnixMilli())
	for _, resp := range s.client.DoMulti(ctx,
		s.client.B().Set().Key(s.entryKey(key)).Value(string(payload)).Build(),
		s.client.B().Zadd().Key(s.indexKey()).ScoreMember().ScoreMember(score, key).Build(),
	) {
		if err := resp.Error(); err != nil {
			return err
		}
	}
	return nil
}

func (s *ValkeyStore) InvalidateOlderThan(ctx context.Context, t time.Time) (int, error) {
	bound := olderThanBound(t)
	keys, err := s.client.Do(ctx, s.client.B().Zrangebyscore().Key(s.indexKey()).Min("-inf").Max(bound).Build()).AsStrSlice()
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := s.deleteEntries(ctx, keys); err != nil {
		return 0, err
	}
	if err := s.client.Do(ctx, s.client.B().Zremrangebyscore().Key(s.indexKey()).Min("-inf").Max(bound).Build()).Error(); err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Cleanup keeps the keep highest-scored (newest) entries.
func (s *ValkeyStore) Cleanup(ctx context.Context, keep int) (int, error) {
	total, err := s.Len(ctx)
	if err != nil {
		return 0, err
	}
	stop, ok := oldestRankStop(total, keep)
	if !ok {
		return 0, nil
	}
	keys, err := s.client.Do(ctx, s.client.B().Zrange().Key(s.indexKey()).Min("0").Max(strconv.FormatInt(stop, 10)).Build()).AsStrSlice()
	if err != nil {
		return 0, err
	}
	if err := s.deleteEntries(ctx, keys); err != nil {
		return 0, err
	}
	if err := s.client.Do(ctx, s.client.B().Zremrangebyrank().Key(s.indexKey()).Start(0).Stop(stop).Build()).Error(); err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (s *ValkeyStore) Len(ctx context.Context) (int, error) {
	n, err := s.client.Do(ctx, s.client.B().Zcard().Key(s.indexKey()).Build()).AsInt64()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *ValkeyStore) deleteEntries(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.entryKey(k)
	}
	return s.client.Do(ctx, s.client.B().Del().Key(full...).Build()).Error()
}

// olderThanBound is the exclusive ZRANGEBYSCORE max for entries computed
// strictly before t.
func olderThanBound(t time.Time) string {
	return "(" + strconv.FormatInt(t.UnixMilli(), 10)
}

// oldestRankStop is the inclusive rank of the last entry to drop so that
// keep entries remain. Ranks ascend by score, oldest first.
func oldestRankStop(total, keep int) (int64, bool) {
	if keep < 0 {
		keep = 0
	}
	excess := total - keep
	if excess <= 0 {
		return 0, false
	}
	return int64(excess - 1), true
}

func (s *ValkeyStore) entryKey(key string) string {
	return fmt.Sprintf("%s:e:%s", s.prefix, key)
}

func (s *ValkeyStore) indexKey() string {
	return fmt.Sprintf("%s:index", s.prefix)
}

var _ astrocache.Store = (*ValkeyStore)(nil)
