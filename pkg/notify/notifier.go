// Package notify implements the named-event bus connecting the sync
// engine to its observers. Subscribers are isolated from each other: a
// failing or panicking handler is reported to a side error sink and
// never interrupts delivery to the rest. Nested publishing is bounded
// by a delivery stack threaded through the context, so a handler that
// republishes its own event cannot recurse without limit.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/easelab/easel/pkg/domain"
)

// Nesting thresholds for one event name inside a delivery stack.
const (
	warnDepth   = 3
	refuseDepth = 5
)

// Recovery window bounds for the designated critical event.
const (
	recoveryWindow = 5 * time.Second
	recoveryBudget = 2
)

// Handler consumes one event. A non-nil error is forwarded to the
// error sink; it never propagates to the publisher.
type Handler func(ctx context.Context, evt domain.Event) error

// RecoveryFunc is invoked when a subscriber of the designated critical
// event fails. It runs synchronously inside the publish that observed
// the failure.
type RecoveryFunc func(ctx context.Context, cause error)

type subscription struct {
	event   string
	handler Handler
}

type recoveryState struct {
	event    string
	action   RecoveryFunc
	inFlight bool
	attempts []time.Time
}

// Notifier is a named-event bus. The zero value is not usable; build
// one with New.
type Notifier struct {
	mu   sync.RWMutex
	subs map[string][]*subscription

	log  *slog.Logger
	sink func(error)
	hook func(event string, delivered bool)

	recMu    sync.Mutex
	recovery *recoveryState

	now func() time.Time
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithLogger sets the logger used for loop warnings and subscriber
// failures. The default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(n *Notifier) {
		if log != nil {
			n.log = log
		}
	}
}

// WithErrorSink routes subscriber errors and panics to sink. Without
// one they are only logged.
func WithErrorSink(sink func(error)) Option {
	return func(n *Notifier) { n.sink = sink }
}

// WithRecovery designates one critical event: when a subscriber of
// that event fails, action runs, at most twice inside a rolling five
// second window and never while a previous run is still in flight.
func WithRecovery(event string, action RecoveryFunc) Option {
	return func(n *Notifier) {
		n.recovery = &recoveryState{event: event, action: action}
	}
}

// WithPublishHook registers an observer called once per publish
// attempt: with delivered=true after all subscribers ran, with
// delivered=false when the publish was refused at the nesting bound.
func WithPublishHook(hook func(event string, delivered bool)) Option {
	return func(n *Notifier) { n.hook = hook }
}

// New builds a Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		subs: make(map[string][]*subscription),
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Subscribe registers handler for the named event and returns the
// function that removes it again.
func (n *Notifier) Subscribe(event string, handler Handler) (unsubscribe func()) {
	sub := &subscription{event: event, handler: handler}

	n.mu.Lock()
	n.subs[event] = append(n.subs[event], sub)
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			list := n.subs[event]
			for i, s := range list {
				if s == sub {
					n.subs[event] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
			if len(n.subs[event]) == 0 {
				delete(n.subs, event)
			}
		})
	}
}

// SubscriberCount returns how many handlers are registered for event.
func (n *Notifier) SubscriberCount(event string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs[event])
}

// Publish delivers evt to every subscriber of its name, sequentially
// and in subscription order. It returns false only when the delivery
// stack already carries this event name at the refusal threshold, in
// which case nothing is delivered.
//
// The delivery stack travels in ctx, so nesting is scoped to one
// publish chain rather than shared notifier state.
func (n *Notifier) Publish(ctx context.Context, evt domain.Event) bool {
	name := evt.EventName()
	stack := deliveryStack(ctx)

	depth := 0
	for _, entry := range stack {
		if entry == name {
			depth++
		}
	}
	if depth >= refuseDepth {
		n.log.ErrorContext(ctx, "refusing nested publish, feedback loop bound reached",
			"event", name, "depth", depth)
		if n.hook != nil {
			n.hook(name, false)
		}
		return false
	}
	if depth >= warnDepth {
		n.log.WarnContext(ctx, "possible event feedback loop",
			"event", name, "depth", depth)
	}

	ctx = pushDelivery(ctx, name)

	n.mu.RLock()
	subs := make([]*subscription, len(n.subs[name]))
	copy(subs, n.subs[name])
	n.mu.RUnlock()

	for _, sub := range subs {
		n.deliver(ctx, sub, evt)
	}

	if n.hook != nil {
		n.hook(name, true)
	}
	return true
}

// deliver runs one handler, converting panics and returned errors into
// sink reports so the remaining subscribers still run.
func (n *Notifier) deliver(ctx context.Context, sub *subscription, evt domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			n.reportFailure(ctx, evt, fmt.Errorf("subscriber panic on %q: %v", evt.EventName(), r))
		}
	}()

	if err := sub.handler(ctx, evt); err != nil {
		n.reportFailure(ctx, evt, fmt.Errorf("subscriber error on %q: %w", evt.EventName(), err))
	}
}

func (n *Notifier) reportFailure(ctx context.Context, evt domain.Event, err error) {
	n.log.ErrorContext(ctx, "event subscriber failed", "event", evt.EventName(), "err", err)
	if n.sink != nil {
		n.sink(err)
	}
	if n.recovery != nil && n.recovery.event == evt.EventName() {
		n.maybeRecover(ctx, err)
	}
}

// maybeRecover runs the recovery action unless one is already in
// flight or the rolling window budget is spent.
func (n *Notifier) maybeRecover(ctx context.Context, cause error) {
	rec := n.recovery

	n.recMu.Lock()
	if rec.inFlight {
		n.recMu.Unlock()
		n.log.DebugContext(ctx, "recovery already in flight, skipping", "event", rec.event)
		return
	}
	now := n.now()
	fresh := rec.attempts[:0]
	for _, at := range rec.attempts {
		if now.Sub(at) < recoveryWindow {
			fresh = append(fresh, at)
		}
	}
	rec.attempts = fresh
	if len(rec.attempts) >= recoveryBudget {
		n.recMu.Unlock()
		n.log.WarnContext(ctx, "recovery budget exhausted", "event", rec.event, "window", recoveryWindow)
		return
	}
	rec.attempts = append(rec.attempts, now)
	rec.inFlight = true
	n.recMu.Unlock()

	defer func() {
		n.recMu.Lock()
		rec.inFlight = false
		n.recMu.Unlock()
	}()
	rec.action(ctx, cause)
}
