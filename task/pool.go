package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Runner converts a single source file. Implementations must return an
// Outcome for every call; the pool still guards against panics.
type Runner interface {
	Convert(ctx context.Context, source string) Outcome
}

// Pool runs one Runner call per source with bounded concurrency.
type Pool struct {
	limit  int
	runner Runner
	log    *slog.Logger
}

func NewPool(limit int, runner Runner, log *slog.Logger) (*Pool, error) {
	if limit < 1 {
		return nil, fmt.Errorf("concurrency limit must be positive, got %d", limit)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pool{limit: limit, runner: runner, log: log}, nil
}

// Limit returns the maximum number of tasks that run at once.
func (p *Pool) Limit() int { return p.limit }

// Run queues one task per source and returns a channel that yields exactly
// one Outcome per source, in completion order. The channel is closed after
// the last outcome. Queued tasks start in submission order once a slot is
// free. If ctx is done before a task starts, that task yields a failure
// carrying the context error instead of running.
func (p *Pool) Run(ctx context.Context, sources []string) <-chan Outcome {
	queue := make(chan string, len(sources))
	for _, s := range sources {
		queue <- s
	}
	close(queue)

	results := make(chan Outcome, p.limit)
	sem := make(chan struct{}, p.limit)

	go func() {
		var wg sync.WaitGroup
		defer func() {
			wg.Wait()
			close(results)
		}()
		for src := range queue {
			// Wait for a free processing slot
			sem <- struct{}{}
			wg.Add(1)
			go func(src string) {
				defer wg.Done()
				defer func() { <-sem }()
				results <- p.process(ctx, src)
			}(src)
		}
	}()
	return results
}

// process handles one task inside its own fault boundary.
func (p *Pool) process(ctx context.Context, src string) (out Outcome) {
	if err := ctx.Err(); err != nil {
		return Failed(src, fmt.Errorf("task not started: %w", err))
	}
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("conversion task panicked", "source", src, "panic", r)
			out = Failed(src, &PanicError{Value: r})
		}
	}()

	p.log.Debug("processing", "source", src)
	out = p.runner.Convert(ctx, src)
	if out.Source == "" {
		out.Source = src
	}
	return out
}
