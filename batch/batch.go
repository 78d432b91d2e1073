package batch

import (
	"context"
	"sync"
	"time"

	"heic2jpg/report"
	"heic2jpg/task"
)

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Batch is a run submitted through the manager. Its fields are written by
// the goroutine running it and read by API handlers, so all access goes
// through the mutex.
type Batch struct {
	mu         sync.Mutex
	snap       Snapshot
	opts       Options
	cancelFunc context.CancelFunc
}

// Snapshot is a point-in-time copy of a Batch.
type Snapshot struct {
	ID          string          `json:"id"`
	Status      Status          `json:"status"`
	Input       string          `json:"input"`
	Output      string          `json:"output"`
	Quality     int             `json:"quality"`
	Jobs        int             `json:"jobs"`
	Found       int             `json:"found"`
	Succeeded   int             `json:"succeeded"`
	Failed      int             `json:"failed"`
	Outcomes    []task.Outcome  `json:"outcomes,omitempty"`
	Summary     *report.Summary `json:"summary,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	StartedAt   time.Time       `json:"startedAt,omitempty"`
	CompletedAt time.Time       `json:"completedAt,omitempty"`
}

func (b *Batch) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.snap
	s.Outcomes = append([]task.Outcome(nil), b.snap.Outcomes...)
	return s
}

func (b *Batch) ID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snap.ID
}

func (b *Batch) update(fn func(s *Snapshot)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.snap)
}

func (b *Batch) record(o task.Outcome) {
	b.update(func(s *Snapshot) {
		s.Outcomes = append(s.Outcomes, o)
		if o.Status == task.StatusSuccess {
			s.Succeeded++
		} else {
			s.Failed++
		}
	})
}
