package notify

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

const (
	DefaultDuration = 5 * time.Second
	MaxVisible      = 4
)

type Notification struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	Severity  Severity      `json:"severity"`
	CreatedAt time.Time     `json:"createdAt"`
	Duration  time.Duration `json:"duration"`
}

// Queue keeps the newest notifications first and expires each one after its
// duration. It is not safe for concurrent use: the owner calls it from one
// goroutine and re-enters that goroutine from the expire callback.
type Queue struct {
	clock  clockwork.Clock
	expire func(id string)
	items  []Notification
	timers map[string]clockwork.Timer
	closed bool
}

// NewQueue builds a queue. expire runs on a timer goroutine when a
// notification's duration has elapsed; it should hand the id back to the owner,
// which then calls Remove.
func NewQueue(clock clockwork.Clock, expire func(id string)) *Queue {
	return &Queue{
		clock:  clock,
		expire: expire,
		timers: make(map[string]clockwork.Timer),
	}
}

// Add prepends a notification, drops anything past MaxVisible and schedules
// its removal. A zero duration means DefaultDuration; an empty severity means info.
func (q *Queue) Add(text string, severity Severity, duration time.Duration) Notification {
	if severity == "" {
		severity = SeverityInfo
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	now := q.clock.Now()
	n := Notification{
		ID:        q.newID(now),
		Text:      text,
		Severity:  severity,
		CreatedAt: now,
		Duration:  duration,
	}
	q.items = append([]Notification{n}, q.items...)
	for len(q.items) > MaxVisible {
		dropped := q.items[len(q.items)-1]
		q.items = q.items[:len(q.items)-1]
		q.stopTimer(dropped.ID)
	}
	if !q.closed && q.expire != nil {
		id := n.ID
		q.timers[id] = q.clock.AfterFunc(duration, func() { q.expire(id) })
	}
	return n
}

// Remove drops the notification with id. It reports whether it was present.
func (q *Queue) Remove(id string) bool {
	idx := slices.IndexFunc(q.items, func(n Notification) bool { return n.ID == id })
	q.stopTimer(id)
	if idx < 0 {
		return false
	}
	q.items = slices.Delete(q.items, idx, idx+1)
	return true
}

// ClearAll empties the queue immediately.
func (q *Queue) ClearAll() {
	for id := range q.timers {
		q.stopTimer(id)
	}
	q.items = nil
}

// Items returns a copy, newest first.
func (q *Queue) Items() []Notification {
	return slices.Clone(q.items)
}

func (q *Queue) Len() int { return len(q.items) }

// Close stops every pending expiry. Add still works but schedules nothing.
func (q *Queue) Close() {
	q.ClearAll()
	q.closed = true
}

func (q *Queue) stopTimer(id string) {
	if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}
}

func (q *Queue) newID(now time.Time) string {
	for {
		id := fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8])
		if !slices.ContainsFunc(q.items, func(n Notification) bool { return n.ID == id }) {
			return id
		}
	}
}
