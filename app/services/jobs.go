package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	JobCommentEmail = "comment_email"

	RedisJobQueueKey = "jobs:default"
)

var (
	ErrQueueFull    = errors.New("job queue is full")
	ErrUnknownJob   = errors.New("no handler registered for job")
	ErrQueueStopped = errors.New("job queue is stopped")
)

// JobQueue accepts fire-and-forget background work. Failed jobs are
// logged and dropped.
type JobQueue interface {
	Enqueue(ctx context.Context, name string, payload any) error
}

type JobHandler func(ctx context.Context, payload json.RawMessage) error

type jobEnvelope struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

func newEnvelope(name string, payload any) (jobEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return jobEnvelope{}, fmt.Errorf("encode %s payload: %w", name, err)
	}
	return jobEnvelope{Name: name, Payload: data}, nil
}

type JobRegistry struct {
	mu       sync.RWMutex
	handlers map[string]JobHandler
}

func NewJobRegistry() *JobRegistry {
	return &JobRegistry{handlers: make(map[string]JobHandler)}
}

func (r *JobRegistry) Register(name string, handler JobHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = handler
}

func (r *JobRegistry) Dispatch(ctx context.Context, job jobEnvelope) error {
	r.mu.RLock()
	handler, ok := r.handlers[job.Name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, job.Name)
	}
	return handler(ctx, job.Payload)
}

func (r *JobRegistry) run(ctx context.Context, job jobEnvelope) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("job", job.Name).Msg("job panicked")
		}
	}()
	start := time.Now()
	if err := r.Dispatch(ctx, job); err != nil {
		log.Error().Err(err).Str("job", job.Name).Msg("job failed")
		return
	}
	log.Debug().Str("job", job.Name).Dur("took", time.Since(start)).Msg("job done")
}

// MemoryQueue runs jobs on in-process workers.
type MemoryQueue struct {
	registry *JobRegistry
	jobs     chan jobEnvelope
	wg       sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

func NewMemoryQueue(registry *JobRegistry, buffer int) *MemoryQueue {
	if buffer < 1 {
		buffer = 64
	}
	return &MemoryQueue{registry: registry, jobs: make(chan jobEnvelope, buffer)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, name string, payload any) error {
	job, err := newEnvelope(name, payload)
	if err != nil {
		return err
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		return ErrQueueStopped
	}
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Start launches workers that run until Stop.
func (q *MemoryQueue) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for job := range q.jobs {
				q.registry.run(context.Background(), job)
			}
		}()
	}
}

// Stop drains queued jobs and waits for the workers.
func (q *MemoryQueue) Stop() {
	q.mu.Lock()
	if !q.stopped {
		q.stopped = true
		close(q.jobs)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

// RedisQueue pushes jobs onto a redis list so any process running
// workers against the same broker can pick them up.
type RedisQueue struct {
	client   *redis.Client
	registry *JobRegistry
	key      string
	wg       sync.WaitGroup
}

func NewRedisQueue(client *redis.Client, registry *JobRegistry) *RedisQueue {
	return &RedisQueue{client: client, registry: registry, key: RedisJobQueueKey}
}

func (q *RedisQueue) Enqueue(ctx context.Context, name string, payload any) error {
	job, err := newEnvelope(name, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, data).Err()
}

// Start runs workers until ctx is cancelled.
func (q *RedisQueue) Start(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.work(ctx)
		}()
	}
}

func (q *RedisQueue) work(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			log.Error().Err(err).Msg("failed to pop job from redis")
			time.Sleep(time.Second)
			continue
		}
		if len(res) != 2 {
			continue
		}
		var job jobEnvelope
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			log.Error().Err(err).Msg("dropping undecodable job")
			continue
		}
		q.registry.run(ctx, job)
	}
}

func (q *RedisQueue) Wait() {
	q.wg.Wait()
}
