package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"vidtube/services/user/internal/entity"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "channel:"

// ChannelCache is a read-through cache of channel profiles. Entries are keyed
// by username and viewer since isSubscribed depends on who is asking.
type ChannelCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewChannelCache(client *redis.Client, ttl time.Duration) *ChannelCache {
	return &ChannelCache{client: client, ttl: ttl}
}

func (c *ChannelCache) Get(ctx context.Context, username, viewerID string) (*entity.Channel, bool, error) {
	raw, err := c.client.Get(ctx, channelKey(username, viewerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached channel: %w", err)
	}

	var channel entity.Channel
	if err := json.Unmarshal(raw, &channel); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached channel: %w", err)
	}
	return &channel, true, nil
}

func (c *ChannelCache) Set(ctx context.Context, username, viewerID string, channel *entity.Channel) error {
	raw, err := json.Marshal(channel)
	if err != nil {
		return fmt.Errorf("failed to encode channel: %w", err)
	}
	if err := c.client.Set(ctx, channelKey(username, viewerID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache channel: %w", err)
	}
	return nil
}

// Invalidate drops every cached view of username.
func (c *ChannelCache) Invalidate(ctx context.Context, username string) error {
	var cursor uint64
	prefix := keyPrefix + username + ":"
	pattern := escapeGlob(prefix) + "*"
	for {
		found, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan channel keys: %w", err)
		}
		// Viewer ids never contain ':', so "al" must not drop "al:ice" entries.
		keys := found[:0]
		for _, key := range found {
			if !strings.Contains(strings.TrimPrefix(key, prefix), ":") {
				keys = append(keys, key)
			}
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to invalidate channel: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// escapeGlob quotes the characters redis treats as glob syntax in MATCH.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func channelKey(username, viewerID string) string {
	if viewerID == "" {
		viewerID = "anonymous"
	}
	return keyPrefix + username + ":" + viewerID
}
