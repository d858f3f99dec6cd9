// internal/store/redis.go
package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis appends every result to a stream and keeps per-run counters in a
// hash named "<stream>:<run id>".
type Redis struct {
	rdb    *redis.Client
	stream string
}

// OpenRedis connects to addr.
func OpenRedis(ctx context.Context, addr, stream string) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping %s: %w", addr, err)
	}
	return &Redis{rdb: rdb, stream: stream}, nil
}

// redisValues returns the stream entry fields for rec.
func redisValues(rec Record) map[string]any {
	return map[string]any{
		"run":        rec.RunID.String(),
		"worker":     rec.Worker,
		"seed":       rec.Seed,
		"finished":   rec.Finished.UnixMilli(),
		"result":     rec.Result(),
		"life":       rec.Life,
		"phaseScore": rec.PhaseScore,
		"steps":      rec.Steps,
		"nodes":      rec.Nodes,
		"elapsedMs":  rec.Elapsed.Milliseconds(),
	}
}

func (r *Redis) countersKey(rec Record) string {
	return r.stream + ":" + rec.RunID.String()
}

// Write implements Sink. The stream entry and the counters are sent in one
// transaction.
func (r *Redis) Write(ctx context.Context, rec Record) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.XAdd(ctx, &redis.XAddArgs{Stream: r.stream, Values: redisValues(rec)})
		key := r.countersKey(rec)
		pipe.HIncrBy(ctx, key, "games", 1)
		if rec.Won {
			pipe.HIncrBy(ctx, key, "wins", 1)
		} else {
			pipe.HIncrBy(ctx, key, "losses", 1)
		}
		pipe.HIncrBy(ctx, key, "nodes", int64(rec.Nodes))
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish result: %w", err)
	}
	return nil
}

// Close implements Sink.
func (r *Redis) Close() error { return r.rdb.Close() }
