package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"sponsorhub/internal/platform/config"
)

// MemoryBackend is an in-process Backend for tests and single-node dev runs.
type MemoryBackend struct {
	mu        sync.Mutex
	cfg       config.QueueConfig
	seen      map[string]struct{}
	scheduled map[string][]Job
	completed map[string][]Job
	failed    map[string][]Job
}

func NewMemory(cfg config.QueueConfig) *MemoryBackend {
	return &MemoryBackend{
		cfg:       cfg,
		seen:      make(map[string]struct{}),
		scheduled: make(map[string][]Job),
		completed: make(map[string][]Job),
		failed:    make(map[string][]Job),
	}
}

func (b *MemoryBackend) Enqueue(_ context.Context, job Job) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := job.Queue + "/" + job.ID
	if _, dup := b.seen[key]; dup {
		return false, nil
	}
	b.seen[key] = struct{}{}
	b.scheduled[job.Queue] = append(b.scheduled[job.Queue], job)
	return true, nil
}

func (b *MemoryBackend) Dequeue(_ context.Context, queue string, now time.Time, limit int) ([]Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pending := b.scheduled[queue]
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].RunAt.Before(pending[j].RunAt) })

	var due, rest []Job
	for _, job := range pending {
		if len(due) < limit && !job.RunAt.After(now) {
			due = append(due, job)
			continue
		}
		rest = append(rest, job)
	}
	b.scheduled[queue] = rest
	return due, nil
}

func (b *MemoryBackend) Retry(_ context.Context, job Job) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scheduled[job.Queue] = append(b.scheduled[job.Queue], job)
	return nil
}

func (b *MemoryBackend) Complete(_ context.Context, job Job) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	// Terminal state releases the enqueue guard so the seen set stays
	// bounded, mirroring the redis guard TTL.
	delete(b.seen, job.Queue+"/"+job.ID)
	b.completed[job.Queue] = prependCapped(b.completed[job.Queue], job, b.cfg.CompletedRetention)
	return nil
}

func (b *MemoryBackend) Fail(_ context.Context, job Job) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.seen, job.Queue+"/"+job.ID)
	b.failed[job.Queue] = prependCapped(b.failed[job.Queue], job, b.cfg.FailedRetention)
	return nil
}

func (b *MemoryBackend) Completed(_ context.Context, queue string) ([]Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Job(nil), b.completed[queue]...), nil
}

func (b *MemoryBackend) Failed(_ context.Context, queue string) ([]Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Job(nil), b.failed[queue]...), nil
}

// prependCapped keeps newest-first order and drops history beyond the cap.
func prependCapped(history []Job, job Job, limit int) []Job {
	history = append([]Job{job}, history...)
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history
}
