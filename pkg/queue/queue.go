package queue

import (
	"github.com/fieldflow/fieldflow/pkg/config"
	"github.com/hibiken/asynq"
)

const defaultConcurrency = 10

// NewClient returns the asynq client used to enqueue notification tasks.
func NewClient(cfg *config.RedisConfig) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
	})
}

// NewServer returns the worker-side asynq server. Notifications and reminder
// ticks run on the "low" queue so they never starve anything urgent.
func NewServer(cfg *config.RedisConfig, concurrency int) *asynq.Server {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Addr(),
			Password: cfg.Password,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)
}
