package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Hungichi/melodies-BE/db"
	"github.com/Hungichi/melodies-BE/model"

	"github.com/go-redis/redis/v8"
)

const (
	trendingKey      = "trending:songs"
	trendingTTL      = 5 * time.Minute
	playCountZSetKey = "songs:plays"
)

// GetTrendingSongs returns the cached trending snapshot, or ok=false on a
// cache miss.
func GetTrendingSongs(ctx context.Context) ([]*model.PublicSong, bool, error) {
	if db.RedisClient == nil {
		return nil, false, fmt.Errorf("Redis client not initialized")
	}

	data, err := db.RedisClient.Get(ctx, trendingKey).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get trending cache: %w", err)
	}

	var songs []*model.PublicSong
	if err := json.Unmarshal([]byte(data), &songs); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal trending cache: %w", err)
	}
	return songs, true, nil
}

// SetTrendingSongs stores the trending snapshot with a short TTL. The
// database stays the source of truth; this only absorbs read load.
func SetTrendingSongs(ctx context.Context, songs []*model.PublicSong) error {
	if db.RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := json.Marshal(songs)
	if err != nil {
		return fmt.Errorf("failed to marshal trending songs: %w", err)
	}

	if err := db.RedisClient.Set(ctx, trendingKey, data, trendingTTL).Err(); err != nil {
		return fmt.Errorf("failed to set trending cache: %w", err)
	}
	return nil
}

// InvalidateTrending drops the trending snapshot, used after song deletion.
func InvalidateTrending(ctx context.Context) error {
	if db.RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	if err := db.RedisClient.Del(ctx, trendingKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate trending cache: %w", err)
	}
	return nil
}

// BumpPlayCount records a play in the sorted set mirror of the play
// counters. Advisory only; the songs table keeps the authoritative count.
func BumpPlayCount(ctx context.Context, songID int64) error {
	if db.RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	if err := db.RedisClient.ZIncrBy(ctx, playCountZSetKey, 1, fmt.Sprintf("%d", songID)).Err(); err != nil {
		return fmt.Errorf("failed to bump play count for song %d: %w", songID, err)
	}
	return nil
}

// TopPlayedSongIDs returns up to limit song IDs from the play-count mirror,
// most played first. An empty result means the mirror has no entries yet and
// the caller should rank from the database instead.
func TopPlayedSongIDs(ctx context.Context, limit int) ([]int64, error) {
	if db.RedisClient == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}
	members, err := db.RedisClient.ZRevRange(ctx, playCountZSetKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read play count mirror: %w", err)
	}

	ids := make([]int64, 0, len(members))
	for _, member := range members {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// RemovePlayCount drops a deleted song from the play-count mirror.
func RemovePlayCount(ctx context.Context, songID int64) error {
	if db.RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	if err := db.RedisClient.ZRem(ctx, playCountZSetKey, fmt.Sprintf("%d", songID)).Err(); err != nil {
		return fmt.Errorf("failed to remove play count for song %d: %w", songID, err)
	}
	return nil
}
