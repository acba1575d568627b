package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"overworld/pkg/navgraph"
	"overworld/pkg/tilemap"
)

const (
	areaMapKeyPrefix = "areamap:"
	connectionsKey   = "connections"
)

// RedisStorage implements the Storage interface using Redis.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(addr string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	return &RedisStorage{
		client: rdb,
		logger: logger,
	}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Area map operations

func (r *RedisStorage) SaveAreaMap(ctx context.Context, m *tilemap.AreaMap) error {
	data, err := json.Marshal(m)
	if err != nil {
		r.logger.Error("Failed to marshal area map", "area", m.ID, "error", err)
		return fmt.Errorf("failed to marshal area map: %w", err)
	}

	key := areaMapKeyPrefix + string(m.ID)
	if err := r.client.Set(ctx, key, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save area map", "area", m.ID, "error", err)
		return fmt.Errorf("failed to save area map: %w", err)
	}

	return nil
}

func (r *RedisStorage) LoadAreaMap(ctx context.Context, id tilemap.AreaID) (*tilemap.AreaMap, error) {
	key := areaMapKeyPrefix + string(id)
	cmd := r.client.Get(ctx, key)
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			return nil, nil // Never visited
		}
		r.logger.Error("Failed to load area map", "area", id, "error", err)
		return nil, fmt.Errorf("failed to load area map: %w", err)
	}

	var m tilemap.AreaMap
	if err := json.Unmarshal([]byte(cmd.Val()), &m); err != nil {
		r.logger.Error("Failed to unmarshal area map", "area", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal area map: %w", err)
	}

	return &m, nil
}

func (r *RedisStorage) ListAreaMaps(ctx context.Context) ([]tilemap.AreaID, error) {
	var ids []tilemap.AreaID
	iter := r.client.Scan(ctx, 0, areaMapKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, tilemap.AreaID(iter.Val()[len(areaMapKeyPrefix):]))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan area maps: %w", err)
	}
	return ids, nil
}

// Connectivity graph operations

func (r *RedisStorage) SaveGraph(ctx context.Context, g *navgraph.Graph) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	if err := r.client.Set(ctx, connectionsKey, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save graph", "error", err)
		return fmt.Errorf("failed to save graph: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadGraph(ctx context.Context) (*navgraph.Graph, error) {
	cmd := r.client.Get(ctx, connectionsKey)
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			return navgraph.New(), nil
		}
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}

	g := navgraph.New()
	if err := json.Unmarshal([]byte(cmd.Val()), g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}
	return g, nil
}

// Decision record operations

func decisionKey(sessionID string) string {
	return "session:" + sessionID + ":decisions"
}

func (r *RedisStorage) AppendDecision(ctx context.Context, d *Decision) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	key := decisionKey(d.Session)
	pipe := r.client.Pipeline()
	pipe.LPush(ctx, key, string(data))
	pipe.LTrim(ctx, key, 0, DecisionHistoryCap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to append decision", "session", d.Session, "error", err)
		return fmt.Errorf("failed to append decision: %w", err)
	}
	return nil
}

func (r *RedisStorage) RecentDecisions(ctx context.Context, sessionID string, n int) ([]Decision, error) {
	vals, err := r.client.LRange(ctx, decisionKey(sessionID), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load decisions: %w", err)
	}

	out := make([]Decision, 0, len(vals))
	for _, v := range vals {
		var d Decision
		if err := json.Unmarshal([]byte(v), &d); err != nil {
			r.logger.Warn("Skipping malformed decision record", "session", sessionID, "error", err)
			continue
		}
		out = append(out, d)
	}
	return out, nil
}
