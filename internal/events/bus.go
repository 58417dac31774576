package events

import (
	"context"
	"sync"
	"time"
)

// terminalKind reports whether an event of this kind ends the stream.
func terminalKind(k Kind) bool {
	return k == Final || k == ErrorEvent
}

// Bus is the per-session, ordered, bounded event stream described in
// spec.md §4.11. Any component holding a reference may Publish; exactly one
// consumer — the transport layer — Subscribes. Publish never blocks the
// producer beyond a small bounded backlog: when the backlog is full, the
// oldest coalescible (StepProgress) entries are dropped in favor of the
// newest. ModelUsage, AnalysisResult, Error, and Final are never dropped.
type Bus struct {
	mu           sync.Mutex
	cond         *sync.Cond
	sessionID    string
	seq          uint64
	out          chan Event
	overflow     []Event
	started      *Event
	closed       bool
	terminalSent bool
}

// NewBus creates a bus with the given bounded backlog size. A single
// background goroutine owns draining the overflow queue into out, so every
// blocking send to out happens from one place and FIFO order is preserved
// even when a precious (non-coalescible) head has to be requeued.
func NewBus(sessionID string, backlog int) *Bus {
	if backlog <= 0 {
		backlog = 64
	}
	b := &Bus{
		sessionID: sessionID,
		out:       make(chan Event, backlog),
	}
	b.cond = sync.NewCond(&b.mu)
	go b.drainOverflow()
	return b
}

// drainOverflow blocks-sends queued overflow events to out, one at a time,
// in the order they were queued. It is the only goroutine ever allowed to
// block on a send to out, so concurrent Publish calls can never interleave
// their sends and break the strictly-monotone delivery order.
func (b *Bus) drainOverflow() {
	for {
		b.mu.Lock()
		for len(b.overflow) == 0 && !b.closed {
			b.cond.Wait()
		}
		if len(b.overflow) == 0 {
			b.mu.Unlock()
			return
		}
		// Peek rather than pop: the event stays queued until it has been
		// sent, so enqueueLocked keeps queueing behind it meanwhile.
		ev := b.overflow[0]
		closed := b.closed
		b.mu.Unlock()

		if closed {
			return
		}
		b.out <- ev

		b.mu.Lock()
		b.overflow = b.overflow[1:]
		b.mu.Unlock()
	}
}

// Publish appends a new event, non-blocking under normal backlog pressure.
// It stamps the sequence number and timestamp and returns the stored event.
func (b *Bus) Publish(kind Kind, step string, iteration int, data interface{}) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return Event{}
	}

	b.seq++
	ev := Event{
		Seq:       b.seq,
		Timestamp: time.Now(),
		SessionID: b.sessionID,
		Step:      step,
		Iteration: iteration,
		Kind:      kind,
		Data:      data,
	}
	if kind == SessionStarted && b.started == nil {
		started := ev
		b.started = &started
	}

	b.enqueueLocked(ev)

	if terminalKind(kind) {
		b.terminalSent = true
	}
	return ev
}

// enqueueLocked delivers ev to the out channel, coalescing the oldest
// StepProgress entries out of the way when the backlog is full. Must be
// called with b.mu held.
func (b *Bus) enqueueLocked(ev Event) {
	// If anything is already queued for drainOverflow, a direct send here
	// would race ahead of it and break delivery order — queue behind it.
	if len(b.overflow) > 0 {
		b.overflow = append(b.overflow, ev)
		b.cond.Signal()
		return
	}

	for {
		select {
		case b.out <- ev:
			return
		default:
		}

		// Backlog full: try to make room by evicting the oldest entry if it
		// is coalescible. Non-coalescible events are never evicted.
		select {
		case head := <-b.out:
			if head.Kind != StepProgress {
				// Head is precious; hand it and ev to the overflow queue for
				// drainOverflow to redeliver in order, so Publish itself
				// never blocks.
				b.overflow = append(b.overflow, head, ev)
				b.cond.Signal()
				return
			}
			// head dropped (coalesced away); loop to retry the send.
		default:
			// Channel drained concurrently; retry the direct send.
		}
	}
}

// Subscribe returns a channel yielding every event still held in the
// bus's backlog followed by newer ones, preceded by a synthetic
// SessionStarted replay so a late-attaching consumer can render current
// state (spec.md §4.11). The
// returned channel closes once a terminal event (Final or Error) has been
// delivered, or ctx is cancelled.
func (b *Bus) Subscribe(ctx context.Context) <-chan Event {
	b.mu.Lock()
	replay := b.started
	b.mu.Unlock()

	sub := make(chan Event, cap(b.out))
	go func() {
		defer close(sub)
		if replay != nil {
			select {
			case sub <- *replay:
			case <-ctx.Done():
				return
			}
		}
		for {
			select {
			case ev, ok := <-b.out:
				if !ok {
					return
				}
				select {
				case sub <- ev:
				case <-ctx.Done():
					return
				}
				if terminalKind(ev.Kind) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return sub
}

// Close shuts the bus down. Safe to call multiple times.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.cond.Broadcast()
	close(b.out)
}

// TerminalSent reports whether a Final or Error event has already been
// published, used to guarantee exactly one terminal event per session
// (testable property 7).
func (b *Bus) TerminalSent() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.terminalSent
}
