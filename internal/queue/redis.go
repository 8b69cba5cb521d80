package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"sponsorhub/internal/platform/config"
	"sponsorhub/internal/platform/redis"
)

// RedisBackend persists jobs in Redis so the queue survives restarts.
//
// Layout per queue:
//
//	queue:{q}:id:{job}   SETNX guard for idempotent enqueue, expires after GuardTTL
//	queue:{q}:job:{job}  JSON body of a scheduled job
//	queue:{q}:scheduled  ZSET of job IDs scored by run-at millis
//	queue:{q}:completed  LIST of terminal job JSON, newest first, capped
//	queue:{q}:failed     LIST of terminal job JSON, newest first, capped
type RedisBackend struct {
	client *redis.Client
	cfg    config.QueueConfig
}

func NewRedis(client *redis.Client, cfg config.QueueConfig) *RedisBackend {
	return &RedisBackend{client: client, cfg: cfg}
}

func guardKey(queue, jobID string) string { return "queue:" + queue + ":id:" + jobID }
func bodyKey(queue, jobID string) string  { return "queue:" + queue + ":job:" + jobID }
func scheduledKey(queue string) string    { return "queue:" + queue + ":scheduled" }
func completedKey(queue string) string    { return "queue:" + queue + ":completed" }
func failedKey(queue string) string       { return "queue:" + queue + ":failed" }

func (b *RedisBackend) Enqueue(ctx context.Context, job Job) (bool, error) {
	// The guard expires so the key space stays bounded; within the TTL
	// duplicate enqueues of the same job ID collapse.
	accepted, err := b.client.SetNX(ctx, guardKey(job.Queue, job.ID), 1, b.cfg.GuardTTL).Result()
	if err != nil {
		return false, fmt.Errorf("set enqueue guard: %w", err)
	}
	if !accepted {
		return false, nil
	}
	if err := b.schedule(ctx, job); err != nil {
		return false, err
	}
	return true, nil
}

func (b *RedisBackend) schedule(ctx context.Context, job Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	pipe := b.client.TxPipeline()
	pipe.Set(ctx, bodyKey(job.Queue, job.ID), body, 0)
	pipe.ZAdd(ctx, scheduledKey(job.Queue), goredis.Z{
		Score:  float64(job.RunAt.UnixMilli()),
		Member: job.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("schedule job %s: %w", job.ID, err)
	}
	return nil
}

func (b *RedisBackend) Dequeue(ctx context.Context, queue string, now time.Time, limit int) ([]Job, error) {
	ids, err := b.client.ZRangeByScore(ctx, scheduledKey(queue), &goredis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%d", now.UnixMilli()),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("range due jobs: %w", err)
	}

	var jobs []Job
	for _, jobID := range ids {
		// ZRem is the claim: in a multi-worker deployment only the remover
		// gets to process the job.
		removed, err := b.client.ZRem(ctx, scheduledKey(queue), jobID).Result()
		if err != nil {
			return jobs, fmt.Errorf("claim job %s: %w", jobID, err)
		}
		if removed == 0 {
			continue
		}
		body, err := b.client.GetDel(ctx, bodyKey(queue, jobID)).Bytes()
		if err != nil {
			if errors.Is(err, goredis.Nil) {
				continue
			}
			return jobs, fmt.Errorf("load job %s: %w", jobID, err)
		}
		var job Job
		if err := json.Unmarshal(body, &job); err != nil {
			return jobs, fmt.Errorf("decode job %s: %w", jobID, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (b *RedisBackend) Retry(ctx context.Context, job Job) error {
	return b.schedule(ctx, job)
}

func (b *RedisBackend) Complete(ctx context.Context, job Job) error {
	return b.record(ctx, completedKey(job.Queue), job, b.cfg.CompletedRetention)
}

func (b *RedisBackend) Fail(ctx context.Context, job Job) error {
	return b.record(ctx, failedKey(job.Queue), job, b.cfg.FailedRetention)
}

func (b *RedisBackend) record(ctx context.Context, key string, job Job, retention int) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	pipe := b.client.TxPipeline()
	pipe.LPush(ctx, key, body)
	if retention > 0 {
		pipe.LTrim(ctx, key, 0, int64(retention)-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record job %s: %w", job.ID, err)
	}
	return nil
}

func (b *RedisBackend) Completed(ctx context.Context, queue string) ([]Job, error) {
	return b.history(ctx, completedKey(queue))
}

func (b *RedisBackend) Failed(ctx context.Context, queue string) ([]Job, error) {
	return b.history(ctx, failedKey(queue))
}

func (b *RedisBackend) history(ctx context.Context, key string) ([]Job, error) {
	raw, err := b.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load history %s: %w", key, err)
	}
	jobs := make([]Job, 0, len(raw))
	for _, body := range raw {
		var job Job
		if err := json.Unmarshal([]byte(body), &job); err != nil {
			return nil, fmt.Errorf("decode history entry: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
