package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TaskWarmHeadlines = "news:warm_headlines"
	TaskClearCache    = "news:clear_cache"
	TaskPurgeCache    = "news:purge_cache"

	// QueueNews is the queue every news task is enqueued on.
	QueueNews = "news"

	taskTimeout = time.Minute
	maxRetry    = 3
)

type WarmHeadlinesPayload struct {
	Country  string `json:"country,omitempty"`
	Category string `json:"category,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

// NewWarmHeadlinesTask builds an on-demand warm task with a fresh task id.
func NewWarmHeadlinesTask(p WarmHeadlinesPayload) (*asynq.Task, string, error) {
	id := uuid.NewString()
	t, err := warmTask(p, asynq.TaskID(id))
	if err != nil {
		return nil, "", err
	}
	return t, id, nil
}

// ScheduledWarmHeadlinesTask builds the warm task registered with the
// scheduler. It carries no task id, so every tick enqueues a new task.
func ScheduledWarmHeadlinesTask(p WarmHeadlinesPayload) (*asynq.Task, error) {
	return warmTask(p)
}

func warmTask(p WarmHeadlinesPayload, extra ...asynq.Option) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal warm payload: %w", err)
	}
	opts := append([]asynq.Option{
		asynq.Queue(QueueNews),
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(taskTimeout),
	}, extra...)
	return asynq.NewTask(TaskWarmHeadlines, payload, opts...), nil
}

// NewClearCacheTask asks a worker to drop every cached response it can reach.
func NewClearCacheTask() *asynq.Task {
	return asynq.NewTask(TaskClearCache, nil,
		asynq.Queue(QueueNews),
		asynq.TaskID(uuid.NewString()),
		asynq.Timeout(taskTimeout),
	)
}

// NewPurgeCacheTask builds the scheduled task that drops expired entries
// from stores that do not expire them on their own.
func NewPurgeCacheTask() *asynq.Task {
	return asynq.NewTask(TaskPurgeCache, nil,
		asynq.Queue(QueueNews),
		asynq.MaxRetry(1),
		asynq.Timeout(taskTimeout),
	)
}
