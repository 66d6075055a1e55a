package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"git.solver4all.com/azaryc2s/flp"
)

const (
	keySolution   = "flp:solution"
	keySweep      = "flp:sweep:"
	keySweepSum   = "flp:sweep_sum:"
	keySweepIndex = "flp:sweeps"
)

// Redis persists results in a redis instance so that they survive
// server restarts and can be shared between replicas.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration // sweep expiry, 0 keeps sweeps forever
}

func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Redis{rdb: redis.NewClient(opt), ttl: ttl}, nil
}

// Ping checks the connection. The server calls this at startup and in
// the readiness probe.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) PutSolution(ctx context.Context, sol *flp.FLPSolution) error {
	data, err := json.Marshal(sol)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, keySolution, data, 0).Err()
}

func (r *Redis) Solution(ctx context.Context) (*flp.FLPSolution, error) {
	data, err := r.rdb.Get(ctx, keySolution).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	var sol flp.FLPSolution
	if err := json.Unmarshal(data, &sol); err != nil {
		return nil, err
	}
	return &sol, nil
}

func (r *Redis) PutSweep(ctx context.Context, res *flp.ScenarioResult) error {
	if res.RunID == "" {
		res.RunID = uuid.New().String()
	}
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	sum, err := json.Marshal(summarize(res, time.Now()))
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, keySweep+res.RunID, data, r.ttl).Err(); err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, keySweepSum+res.RunID, sum, r.ttl).Err(); err != nil {
		return err
	}
	return r.rdb.RPush(ctx, keySweepIndex, res.RunID).Err()
}

func (r *Redis) Sweep(ctx context.Context, id string) (*flp.ScenarioResult, error) {
	data, err := r.rdb.Get(ctx, keySweep+id).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	var res flp.ScenarioResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *Redis) Sweeps(ctx context.Context) ([]SweepSummary, error) {
	ids, err := r.rdb.LRange(ctx, keySweepIndex, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]SweepSummary, 0, len(ids))
	for _, id := range ids {
		data, err := r.rdb.Get(ctx, keySweepSum+id).Bytes()
		if err == redis.Nil {
			continue // sweep expired, index entry is stale
		} else if err != nil {
			return nil, err
		}
		var sum SweepSummary
		if err := json.Unmarshal(data, &sum); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}
