package relay

import (
	"context"
	"sync"
	"testing"
	"time"

	"gobridgerelay/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTask struct {
	run func(ctx context.Context) (*Outcome, error)
}

func (s *stubTask) Run(ctx context.Context) (*Outcome, error) {
	return s.run(ctx)
}

// stubFactory scripts per-event task behaviour and records creation order.
type stubFactory struct {
	mu      sync.Mutex
	created []common.Hash
	tasks   func(ev types.ChainEvent) (Task, error)
}

func (f *stubFactory) NewTask(ev types.ChainEvent) (Task, error) {
	f.mu.Lock()
	f.created = append(f.created, ev.TxHash)
	f.mu.Unlock()
	return f.tasks(ev)
}

func (f *stubFactory) creations() []common.Hash {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]common.Hash(nil), f.created...)
}

type recordingReporter struct {
	mu        sync.Mutex
	succeeded map[common.Hash]*Outcome
	failed    map[common.Hash]error
}

func newRecordingReporter() *recordingReporter {
	return &recordingReporter{
		succeeded: map[common.Hash]*Outcome{},
		failed:    map[common.Hash]error{},
	}
}

func (r *recordingReporter) RelaySucceeded(ev types.ChainEvent, out *Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.succeeded[ev.TxHash] = out
}

func (r *recordingReporter) RelayFailed(ev types.ChainEvent, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[ev.TxHash] = err
}

func eventWithHash(b byte) types.ChainEvent {
	return types.ChainEvent{TxHash: common.Hash{b}}
}

func feed(events ...types.ChainEvent) <-chan types.ChainEvent {
	ch := make(chan types.ChainEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

func TestDriverFailingTaskDoesNotBlockSiblings(t *testing.T) {
	broken := common.Hash{1}
	healthy := common.Hash{2}

	factory := &stubFactory{tasks: func(ev types.ChainEvent) (Task, error) {
		if ev.TxHash == broken {
			return &stubTask{run: func(ctx context.Context) (*Outcome, error) {
				return nil, transportError(ev.TxHash, context.DeadlineExceeded)
			}}, nil
		}
		return &stubTask{run: func(ctx context.Context) (*Outcome, error) {
			return &Outcome{SideTxHash: common.Hash{0xbb}}, nil
		}}, nil
	}}
	reporter := newRecordingReporter()

	driver := NewDriver(factory, reporter, 3, time.Millisecond)
	driver.Run(context.Background(), feed(eventWithHash(1), eventWithHash(2)))

	require.Contains(t, reporter.succeeded, healthy)
	assert.Equal(t, common.Hash{0xbb}, reporter.succeeded[healthy].SideTxHash)

	require.Contains(t, reporter.failed, broken)
	kind, ok := ErrKind(reporter.failed[broken])
	require.True(t, ok)
	assert.Equal(t, RetryBudgetExhausted, kind)
}

func TestDriverRestartsFreshTaskPerAttempt(t *testing.T) {
	var attempts int
	var mu sync.Mutex

	factory := &stubFactory{tasks: func(ev types.ChainEvent) (Task, error) {
		return &stubTask{run: func(ctx context.Context) (*Outcome, error) {
			mu.Lock()
			attempts++
			n := attempts
			mu.Unlock()
			if n < 3 {
				return nil, transportError(ev.TxHash, context.DeadlineExceeded)
			}
			return &Outcome{AlreadyRelayed: true}, nil
		}}, nil
	}}
	reporter := newRecordingReporter()

	driver := NewDriver(factory, reporter, 5, time.Millisecond)
	driver.Run(context.Background(), feed(eventWithHash(7)))

	require.Contains(t, reporter.succeeded, common.Hash{7})
	assert.True(t, reporter.succeeded[common.Hash{7}].AlreadyRelayed)
	// first task made up front, one fresh task per restart
	assert.Len(t, factory.creations(), 3)
}

func TestDriverRejectsMalformedWithoutRetry(t *testing.T) {
	factory := &stubFactory{tasks: func(ev types.ChainEvent) (Task, error) {
		return nil, malformedError(ev.TxHash, assert.AnError)
	}}
	reporter := newRecordingReporter()

	driver := NewDriver(factory, reporter, 5, time.Millisecond)
	driver.Run(context.Background(), feed(eventWithHash(9)))

	require.Contains(t, reporter.failed, common.Hash{9})
	kind, ok := ErrKind(reporter.failed[common.Hash{9}])
	require.True(t, ok)
	assert.Equal(t, MalformedEvent, kind)
	assert.Len(t, factory.creations(), 1)
	assert.Empty(t, reporter.succeeded)
}

func TestDriverCreatesTasksInEventOrder(t *testing.T) {
	release := make(chan struct{})

	factory := &stubFactory{tasks: func(ev types.ChainEvent) (Task, error) {
		return &stubTask{run: func(ctx context.Context) (*Outcome, error) {
			// completion order is deliberately inverted
			<-release
			return &Outcome{}, nil
		}}, nil
	}}
	reporter := newRecordingReporter()

	events := []types.ChainEvent{eventWithHash(1), eventWithHash(2), eventWithHash(3)}

	done := make(chan struct{})
	driver := NewDriver(factory, reporter, 1, time.Millisecond)
	go func() {
		driver.Run(context.Background(), feed(events...))
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(factory.creations()) == 3
	}, time.Second, time.Millisecond)

	created := factory.creations()
	assert.Equal(t, []common.Hash{{1}, {2}, {3}}, created)

	close(release)
	<-done
	assert.Len(t, reporter.succeeded, 3)
}

func TestDriverStopsAdmittingOnCancel(t *testing.T) {
	factory := &stubFactory{tasks: func(ev types.ChainEvent) (Task, error) {
		return &stubTask{run: func(ctx context.Context) (*Outcome, error) {
			return &Outcome{}, nil
		}}, nil
	}}
	reporter := newRecordingReporter()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := make(chan types.ChainEvent)
	driver := NewDriver(factory, reporter, 1, time.Millisecond)

	finished := make(chan struct{})
	go func() {
		driver.Run(ctx, ch)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("driver did not stop on context cancellation")
	}
	assert.Empty(t, factory.creations())
}
