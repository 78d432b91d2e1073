package task

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRunner is a mock implementation of the Runner interface for testing.
type mockRunner struct {
	convertFunc func(ctx context.Context, source string) Outcome

	active    atomic.Int32
	maxActive atomic.Int32
}

func (m *mockRunner) Convert(ctx context.Context, source string) Outcome {
	n := m.active.Add(1)
	defer m.active.Add(-1)
	for {
		cur := m.maxActive.Load()
		if n <= cur || m.maxActive.CompareAndSwap(cur, n) {
			break
		}
	}
	if m.convertFunc != nil {
		return m.convertFunc(ctx, source)
	}
	time.Sleep(5 * time.Millisecond) // Simulate work
	if strings.Contains(source, "bad") {
		return Failed(source, errors.New("cannot decode"))
	}
	return Succeeded(source, strings.TrimSuffix(source, ".heic")+".jpg")
}

func sources(n int) []string {
	out := make([]string, n)
	for i := range out {
		name := fmt.Sprintf("/in/%02d.heic", i)
		if i%3 == 0 {
			name = fmt.Sprintf("/in/%02d-bad.heic", i)
		}
		out[i] = name
	}
	return out
}

func collect(ch <-chan Outcome) []Outcome {
	var out []Outcome
	for o := range ch {
		out = append(out, o)
	}
	return out
}

func outcomeSet(outcomes []Outcome) []string {
	set := make([]string, len(outcomes))
	for i, o := range outcomes {
		set[i] = string(o.Status) + " " + o.Source
	}
	sort.Strings(set)
	return set
}

func TestNewPool_RejectsNonPositiveLimit(t *testing.T) {
	_, err := NewPool(0, &mockRunner{}, nil)
	assert.Error(t, err)
	_, err = NewPool(-2, &mockRunner{}, nil)
	assert.Error(t, err)
}

func TestPool_EveryTaskYieldsExactlyOneOutcome(t *testing.T) {
	srcs := sources(25)
	pool, err := NewPool(4, &mockRunner{}, nil)
	require.NoError(t, err)

	outcomes := collect(pool.Run(context.Background(), srcs))
	require.Len(t, outcomes, len(srcs))

	seen := make(map[string]int)
	for _, o := range outcomes {
		seen[o.Source]++
	}
	for _, s := range srcs {
		assert.Equal(t, 1, seen[s], "source %s", s)
	}
}

func TestPool_RespectsConcurrencyLimit(t *testing.T) {
	runner := &mockRunner{}
	pool, err := NewPool(3, runner, nil)
	require.NoError(t, err)

	collect(pool.Run(context.Background(), sources(20)))
	assert.LessOrEqual(t, runner.maxActive.Load(), int32(3))
	assert.Greater(t, runner.maxActive.Load(), int32(1))
}

func TestPool_SameResultsRegardlessOfLimit(t *testing.T) {
	srcs := sources(12)

	serial, err := NewPool(1, &mockRunner{}, nil)
	require.NoError(t, err)
	parallel, err := NewPool(len(srcs), &mockRunner{}, nil)
	require.NoError(t, err)

	a := collect(serial.Run(context.Background(), srcs))
	b := collect(parallel.Run(context.Background(), srcs))
	assert.Equal(t, outcomeSet(a), outcomeSet(b))
}

func TestPool_LimitOneStartsInSubmissionOrder(t *testing.T) {
	var mu sync.Mutex
	var started []string
	runner := &mockRunner{
		convertFunc: func(ctx context.Context, source string) Outcome {
			mu.Lock()
			started = append(started, source)
			mu.Unlock()
			return Succeeded(source, source+".jpg")
		},
	}
	srcs := sources(10)
	pool, err := NewPool(1, runner, nil)
	require.NoError(t, err)

	collect(pool.Run(context.Background(), srcs))
	assert.Equal(t, srcs, started)
}

func TestPool_PanicIsIsolated(t *testing.T) {
	runner := &mockRunner{
		convertFunc: func(ctx context.Context, source string) Outcome {
			if source == "/in/boom.heic" {
				panic("decoder crashed")
			}
			return Succeeded(source, source+".jpg")
		},
	}
	pool, err := NewPool(2, runner, nil)
	require.NoError(t, err)

	outcomes := collect(pool.Run(context.Background(), []string{"/in/a.heic", "/in/boom.heic", "/in/c.heic"}))
	require.Len(t, outcomes, 3)

	var failed []Outcome
	for _, o := range outcomes {
		if o.Status == StatusFailure {
			failed = append(failed, o)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, "/in/boom.heic", failed[0].Source)
	var panicErr *PanicError
	assert.True(t, errors.As(failed[0].Err, &panicErr))
	assert.Contains(t, failed[0].Message, "decoder crashed")
}

func TestPool_CanceledContextStillYieldsOutcomes(t *testing.T) {
	release := make(chan struct{})
	runner := &mockRunner{
		convertFunc: func(ctx context.Context, source string) Outcome {
			<-release
			return Succeeded(source, source+".jpg")
		},
	}
	pool, err := NewPool(1, runner, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srcs := sources(5)
	ch := pool.Run(ctx, srcs)

	// The first task is blocked inside the runner; cancel before the rest start.
	require.Eventually(t, func() bool { return runner.active.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	close(release)

	outcomes := collect(ch)
	require.Len(t, outcomes, len(srcs))

	var canceled int
	for _, o := range outcomes {
		if o.Status == StatusFailure {
			assert.True(t, errors.Is(o.Err, context.Canceled))
			assert.True(t, strings.HasPrefix(o.Message, "canceled: "))
			canceled++
		}
	}
	assert.Equal(t, len(srcs)-1, canceled)
}

func TestPool_EmptyInputClosesChannel(t *testing.T) {
	pool, err := NewPool(2, &mockRunner{}, nil)
	require.NoError(t, err)
	assert.Empty(t, collect(pool.Run(context.Background(), nil)))
}

func TestOutcome_Description(t *testing.T) {
	assert.Equal(t, "", Succeeded("/a", "/b").Description())
	assert.Equal(t, "error: boom", Failed("/a", errors.New("boom")).Message)
	assert.Equal(t, "canceled: task not started: context deadline exceeded",
		Failed("/a", fmt.Errorf("task not started: %w", context.DeadlineExceeded)).Message)
}
