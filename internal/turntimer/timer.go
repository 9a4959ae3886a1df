package turntimer

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultSeconds matches the server's configured turn length.
const DefaultSeconds = 12

// Tick is delivered once per second while a countdown is armed. Gen identifies
// the schedule that produced it; ticks from a cancelled schedule are ignored.
type Tick struct {
	Gen uint64
}

type deps struct {
	endsAt  time.Time
	started bool
	ended   bool
}

// Timer derives seconds remaining from an absolute turn deadline. It owns at most
// one ticker at a time. Sync, Handle and Stop must be called from one goroutine;
// post is called from the ticker goroutine.
type Timer struct {
	clock    clockwork.Clock
	post     func(Tick)
	fallback int

	synced bool
	deps   deps
	left   int

	gen    uint64
	ticker clockwork.Ticker
	cancel context.CancelFunc
}

func New(clock clockwork.Clock, fallback int, post func(Tick)) *Timer {
	if fallback <= 0 {
		fallback = DefaultSeconds
	}
	return &Timer{
		clock:    clock,
		post:     post,
		fallback: fallback,
		left:     fallback,
	}
}

// Sync re-arms the countdown when (endsAt, started, ended) differs from the last
// call. The old schedule is cancelled before a new one is armed. It reports
// whether anything changed.
func (t *Timer) Sync(endsAt time.Time, started, ended bool) bool {
	next := deps{endsAt: endsAt, started: started, ended: ended}
	if t.synced && next.endsAt.Equal(t.deps.endsAt) && next.started == t.deps.started && next.ended == t.deps.ended {
		return false
	}
	t.synced = true
	t.deps = next
	t.disarm()

	if !started || ended || endsAt.IsZero() {
		t.left = t.fallback
		return true
	}
	t.left = t.remaining()
	if t.left > 0 {
		t.arm()
	}
	return true
}

// Handle applies a tick. Stale ticks are dropped. The schedule stops once the
// countdown reaches zero. It reports whether the value was recomputed.
func (t *Timer) Handle(tick Tick) bool {
	if t.ticker == nil || tick.Gen != t.gen {
		return false
	}
	t.left = t.remaining()
	if t.left == 0 {
		t.disarm()
	}
	return true
}

// Remaining is the last computed value in seconds.
func (t *Timer) Remaining() int { return t.left }

// Running reports whether a schedule is armed.
func (t *Timer) Running() bool { return t.ticker != nil }

// Stop cancels the schedule. No tick is posted afterwards.
func (t *Timer) Stop() {
	t.disarm()
}

func (t *Timer) remaining() int {
	d := t.deps.endsAt.Sub(t.clock.Now())
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

func (t *Timer) arm() {
	t.gen++
	gen := t.gen
	ticker := t.clock.NewTicker(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	t.ticker = ticker
	t.cancel = cancel

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if ctx.Err() != nil {
					return
				}
				t.post(Tick{Gen: gen})
			}
		}
	}()
}

func (t *Timer) disarm() {
	if t.ticker == nil {
		return
	}
	t.ticker.Stop()
	t.cancel()
	t.ticker = nil
	t.cancel = nil
	// Bump so anything already in flight from the old schedule is stale.
	t.gen++
}
