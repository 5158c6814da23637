package relay

import (
	"context"
	"log"
	"sync"
	"time"

	"gobridgerelay/metrics"
	"gobridgerelay/types"

	retry "github.com/avast/retry-go"
)

// Task is one independently progressing relay unit of work.
type Task interface {
	Run(ctx context.Context) (*Outcome, error)
}

// TaskFactory turns an observed event into a fresh task positioned at the
// start of the relay protocol. The driver is generic over this, so any
// event-to-task mapping can reuse it.
type TaskFactory interface {
	NewTask(ev types.ChainEvent) (Task, error)
}

// DepositRelays makes relay state machines for main-chain deposit logs,
// all bound to the same side contract.
type DepositRelays struct {
	Side *SideContract
}

func (f *DepositRelays) NewTask(ev types.ChainEvent) (Task, error) {
	return NewMachine(ev, f.Side)
}

// Reporter receives terminal relay outcomes. Failures passed here are
// final: malformed events and exhausted retry budgets, never transient
// transport errors.
type Reporter interface {
	RelaySucceeded(ev types.ChainEvent, out *Outcome)
	RelayFailed(ev types.ChainEvent, err error)
}

// Driver turns a stream of chain events into concurrently progressing relay
// tasks. Tasks are created in event order and finish in whatever order the
// side chain dictates; a stuck or failing relay never blocks the others.
type Driver struct {
	factory  TaskFactory
	reporter Reporter
	attempts uint
	delay    time.Duration
}

func NewDriver(factory TaskFactory, reporter Reporter, attempts uint, delay time.Duration) *Driver {
	return &Driver{
		factory:  factory,
		reporter: reporter,
		attempts: attempts,
		delay:    delay,
	}
}

// Run consumes events until the channel closes or ctx is cancelled, then
// waits for in-flight relays to wind down. Individual relay failures never
// terminate the driver.
func (d *Driver) Run(ctx context.Context, events <-chan types.ChainEvent) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			metrics.RelaysStarted.Inc()

			// tasks are created here, in event order; completion order is
			// up to the side chain
			task, err := d.factory.NewTask(ev)
			if err != nil {
				d.reporter.RelayFailed(ev, err)
				continue
			}

			wg.Add(1)
			go func(ev types.ChainEvent, task Task) {
				defer wg.Done()
				d.relayOne(ctx, ev, task)
			}(ev, task)
		}
	}
}

// relayOne retries the whole state machine from its initial state on every
// transient failure. Restart is the sole retry mechanism: the idempotency
// check at the start of each attempt is what prevents double submission,
// not submission-level deduplication.
func (d *Driver) relayOne(ctx context.Context, ev types.ChainEvent, task Task) {
	var out *Outcome
	err := retry.Do(
		func() error {
			if task == nil {
				fresh, err := d.factory.NewTask(ev)
				if err != nil {
					return retry.Unrecoverable(err)
				}
				task = fresh
			}
			res, err := task.Run(ctx)
			task = nil
			if err != nil {
				if !IsRetryable(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			out = res
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(d.attempts),
		retry.Delay(d.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			metrics.RelayRetries.Inc()
			log.Printf("%s - relay attempt %d/%d failed, restarting from scratch: %s",
				ev.TxHash.Hex(), n+1, d.attempts, err)
		}),
	)

	if ctx.Err() != nil && err != nil {
		// shutdown: the task is dropped, nothing to clean up
		log.Printf("%s - relay abandoned on shutdown", ev.TxHash.Hex())
		return
	}

	if err != nil {
		if IsRetryable(err) {
			err = budgetError(ev.TxHash, err)
		}
		d.reporter.RelayFailed(ev, err)
		return
	}
	d.reporter.RelaySucceeded(ev, out)
}
