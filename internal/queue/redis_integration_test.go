//go:build integration

package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sponsorhub/internal/platform/config"
	platformredis "sponsorhub/internal/platform/redis"
	"sponsorhub/internal/queue"
	"sponsorhub/pkg/testutil/containers"
)

type RedisQueueSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	backend *queue.RedisBackend
}

func TestRedisQueueSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisQueueSuite))
}

func (s *RedisQueueSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	cfg := config.QueueConfig{
		MaxAttempts:        3,
		BackoffBase:        time.Second,
		GuardTTL:           time.Hour,
		CompletedRetention: 3,
		FailedRetention:    3,
	}
	s.backend = queue.NewRedis(&platformredis.Client{Client: s.redis.Client}, cfg)
}

func (s *RedisQueueSuite) TearDownSuite() {
	_ = s.redis.Client.Close()
	_ = s.redis.Container.Terminate(context.Background())
}

func (s *RedisQueueSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func newJob(id string, runAt time.Time) queue.Job {
	return queue.Job{
		ID:          id,
		Queue:       queue.QueueEmail,
		Name:        "company.verified",
		Payload:     []byte(`{"entity_type":"company"}`),
		MaxAttempts: 3,
		EnqueuedAt:  runAt,
		RunAt:       runAt,
	}
}

func (s *RedisQueueSuite) TestEnqueueDeduplicatesByJobID() {
	ctx := context.Background()
	now := time.Now()

	accepted, err := s.backend.Enqueue(ctx, newJob("company.verified:abc", now))
	s.Require().NoError(err)
	s.True(accepted)

	accepted, err = s.backend.Enqueue(ctx, newJob("company.verified:abc", now))
	s.Require().NoError(err)
	s.False(accepted, "same job ID must be rejected")

	jobs, err := s.backend.Dequeue(ctx, queue.QueueEmail, now.Add(time.Second), 10)
	s.Require().NoError(err)
	s.Len(jobs, 1)

	s.Run("guard key expires", func() {
		ttl, err := s.redis.Client.TTL(ctx, "queue:email:id:company.verified:abc").Result()
		s.Require().NoError(err)
		s.Greater(ttl, time.Duration(0), "guard must carry a TTL so the key space stays bounded")
	})
}

func (s *RedisQueueSuite) TestDequeueHonorsRunAt() {
	ctx := context.Background()
	now := time.Now()

	_, err := s.backend.Enqueue(ctx, newJob("due:1", now.Add(-time.Second)))
	s.Require().NoError(err)
	_, err = s.backend.Enqueue(ctx, newJob("future:1", now.Add(time.Hour)))
	s.Require().NoError(err)

	jobs, err := s.backend.Dequeue(ctx, queue.QueueEmail, now, 10)
	s.Require().NoError(err)
	s.Require().Len(jobs, 1)
	s.Equal("due:1", jobs[0].ID)

	s.Run("claimed jobs are not delivered twice", func() {
		again, err := s.backend.Dequeue(ctx, queue.QueueEmail, now, 10)
		s.Require().NoError(err)
		s.Empty(again)
	})
}

func (s *RedisQueueSuite) TestRetryReschedules() {
	ctx := context.Background()
	now := time.Now()

	_, err := s.backend.Enqueue(ctx, newJob("retry:1", now))
	s.Require().NoError(err)
	jobs, err := s.backend.Dequeue(ctx, queue.QueueEmail, now, 10)
	s.Require().NoError(err)
	s.Require().Len(jobs, 1)

	job := jobs[0]
	job.Attempts = 1
	job.RunAt = now.Add(time.Second)
	job.LastError = "smtp unreachable"
	s.Require().NoError(s.backend.Retry(ctx, job))

	early, err := s.backend.Dequeue(ctx, queue.QueueEmail, now.Add(500*time.Millisecond), 10)
	s.Require().NoError(err)
	s.Empty(early, "retried job is not due yet")

	due, err := s.backend.Dequeue(ctx, queue.QueueEmail, now.Add(2*time.Second), 10)
	s.Require().NoError(err)
	s.Require().Len(due, 1)
	s.Equal(1, due[0].Attempts)
	s.Equal("smtp unreachable", due[0].LastError)
}

func (s *RedisQueueSuite) TestHistoryRetentionCaps() {
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 5; i++ {
		job := newJob("done:"+string(rune('0'+i)), now)
		job.Attempts = 1
		s.Require().NoError(s.backend.Complete(ctx, job))
	}

	completed, err := s.backend.Completed(ctx, queue.QueueEmail)
	s.Require().NoError(err)
	s.Require().Len(completed, 3, "history is capped at retention")
	s.Equal("done:4", completed[0].ID, "newest first")

	job := newJob("broken:1", now)
	job.Attempts = 3
	job.LastError = "smtp unreachable"
	s.Require().NoError(s.backend.Fail(ctx, job))

	failed, err := s.backend.Failed(ctx, queue.QueueEmail)
	s.Require().NoError(err)
	s.Require().Len(failed, 1)
	s.Equal("smtp unreachable", failed[0].LastError)
}
