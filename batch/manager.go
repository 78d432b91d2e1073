package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"heic2jpg/report"
)

// Manager queues batches submitted over the API and runs at most
// maxRunning of them at a time.
type Manager struct {
	engine         *Engine
	log            *slog.Logger
	batches        sync.Map
	batchQueue     chan *Batch
	concurrencySem chan struct{}
}

func NewManager(engine *Engine, maxRunning int, log *slog.Logger) (*Manager, error) {
	if maxRunning < 0 {
		return nil, fmt.Errorf("max running batches must not be negative, got %d", maxRunning)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		engine:         engine,
		log:            log,
		batchQueue:     make(chan *Batch, 100),
		concurrencySem: make(chan struct{}, maxRunning),
	}, nil
}

func (m *Manager) Start(ctx context.Context) {
	m.log.Info("batch manager started", "max_running", cap(m.concurrencySem))
	go m.workerLoop(ctx)
}

// workerLoop pulls batches from the queue and runs them
func (m *Manager) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.log.Info("batch worker loop shutting down")
			return
		case b := <-m.batchQueue:
			select {
			case m.concurrencySem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			go func(b *Batch) {
				defer func() { <-m.concurrencySem }()
				m.processBatch(ctx, b)
			}(b)
		}
	}
}

func (m *Manager) processBatch(parentCtx context.Context, b *Batch) {
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	b.mu.Lock()
	if b.snap.Status == StatusCanceled {
		b.mu.Unlock()
		m.log.Info("batch canceled before processing", "batch", b.snap.ID)
		return
	}
	b.cancelFunc = cancel
	b.snap.Status = StatusRunning
	b.snap.StartedAt = time.Now()
	opts := b.opts
	b.mu.Unlock()

	opts.OnDiscovered = func(n int) {
		b.update(func(s *Snapshot) { s.Found = n })
	}
	agg := report.NewAggregator(io.Discard)
	agg.OnOutcome = b.record

	summary, err := m.engine.Run(ctx, opts, agg)

	b.update(func(s *Snapshot) {
		s.CompletedAt = time.Now()
		s.Summary = &summary
		switch {
		case ctx.Err() != nil && parentCtx.Err() == nil:
			s.Status = StatusCanceled
			s.Error = "Batch was canceled"
		case err != nil:
			s.Status = StatusFailed
			s.Error = err.Error()
		default:
			s.Status = StatusCompleted
		}
	})
	m.log.Info("batch finished", "batch", b.ID(), "status", b.Snapshot().Status)
}

// Submit queues a batch for opts. The roots in opts must already be resolved.
func (m *Manager) Submit(opts Options) (*Batch, error) {
	b := &Batch{
		opts: opts,
		snap: Snapshot{
			ID:        fmt.Sprintf("%s_%d", shortuuid.New(), time.Now().Unix()),
			Status:    StatusQueued,
			Input:     opts.InputRoot,
			Output:    opts.OutputRoot,
			Quality:   opts.Quality,
			Jobs:      opts.Jobs,
			CreatedAt: time.Now(),
		},
	}

	id := b.snap.ID
	m.batches.Store(id, b)
	select {
	case m.batchQueue <- b:
	default:
		m.batches.Delete(id)
		return nil, fmt.Errorf("batch queue is full")
	}
	m.log.Info("batch submitted", "batch", id, "input", opts.InputRoot)
	return b, nil
}

func (m *Manager) Get(id string) (*Batch, bool) {
	if val, ok := m.batches.Load(id); ok {
		return val.(*Batch), true
	}
	return nil, false
}

func (m *Manager) List() []Snapshot {
	var list []Snapshot
	m.batches.Range(func(key, value any) bool {
		list = append(list, value.(*Batch).Snapshot())
		return true
	})
	return list
}

// Cancel marks a queued batch as canceled or stops a running one. Tasks of a
// running batch that have not started yet report a cancellation failure.
func (m *Manager) Cancel(id string) error {
	b, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("batch %s not found", id)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.snap.Status {
	case StatusCompleted, StatusFailed, StatusCanceled:
		return fmt.Errorf("cannot cancel batch in state: %s", b.snap.Status)
	case StatusQueued:
		b.snap.Status = StatusCanceled
		b.snap.Error = "Canceled by user while in queue"
		m.log.Info("batch marked as canceled in queue", "batch", id)
	case StatusRunning:
		if b.cancelFunc == nil {
			return fmt.Errorf("batch %s is running but has no cancellation handle", id)
		}
		b.cancelFunc()
		m.log.Info("cancellation signal sent to running batch", "batch", id)
	}
	return nil
}
