package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"uizzy-live-service/internal/domain"
)

// LeaderboardCache mirrors session standings into a Redis ZSET so other
// processes (dashboards, history jobs) can read rankings without talking
// to the game process.
type LeaderboardCache struct {
	client *redis.Client
}

func NewLeaderboardCache(client *redis.Client) *LeaderboardCache {
	return &LeaderboardCache{client: client}
}

func (c *LeaderboardCache) key(sessionID string) string {
	return "uizzy:session:" + sessionID + ":lb"
}

// Replace rewrites the whole ZSET from a leaderboard snapshot.
func (c *LeaderboardCache) Replace(ctx context.Context, lb domain.Leaderboard) error {
	key := c.key(lb.SessionID)
	pipe := c.client.Pipeline()
	for _, entry := range lb.Entries {
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(entry.TotalScore),
			Member: entry.ParticipantID,
		})
	}
	_, err := pipe.Exec(ctx)
	return err
}

// GetTop returns up to limit entries ordered by score descending.
func (c *LeaderboardCache) GetTop(ctx context.Context, sessionID string, limit int) ([]domain.LeaderboardEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(sessionID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LeaderboardEntry, len(results))
	for i, z := range results {
		entries[i] = domain.LeaderboardEntry{
			ParticipantID: z.Member.(string),
			TotalScore:    int(z.Score),
			Rank:          i + 1,
		}
	}
	return entries, nil
}

// GetRank returns a participant's 1-indexed rank, or -1 when absent.
func (c *LeaderboardCache) GetRank(ctx context.Context, sessionID, participantID string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, c.key(sessionID), participantID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	return rank + 1, err
}

// Drop removes the mirrored standings for a session.
func (c *LeaderboardCache) Drop(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.key(sessionID)).Err()
}
