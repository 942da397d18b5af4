package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fakeClock collects scheduled expiries and fires them on demand.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

// fire runs the i-th scheduled expiry unless it was stopped.
func (c *fakeClock) fire(i int) {
	c.mu.Lock()
	t := c.timers[i]
	c.mu.Unlock()
	if t.stopped || t.fired {
		return
	}
	t.fired = true
	t.f()
}

func newTestQueue() (*Queue, *fakeClock) {
	clock := &fakeClock{}
	return NewQueue(zap.NewNop(), clock, 5*time.Second), clock
}

func TestQueue_PushExpires(t *testing.T) {
	q, clock := newTestQueue()

	q.Push("📄 Report Downloaded!")
	assert.Equal(t, []string{"📄 Report Downloaded!"}, q.Messages())

	clock.fire(0)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_DuplicateContentIndependentTimers(t *testing.T) {
	q, clock := newTestQueue()

	first := q.Push("same text")
	second := q.Push("same text")
	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, q.Len())

	// Expiring the first push removes exactly one instance.
	clock.fire(0)
	assert.Equal(t, 1, q.Len())

	// The second push's timer is untouched and still reaps its own message.
	clock.fire(1)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_RemoveCancelsOwnTimerOnly(t *testing.T) {
	q, clock := newTestQueue()

	q.Push("alert")
	q.Push("alert")

	// Remove one instance by value, then re-push the same text. The stale
	// timer from the removed push must not reap the newcomer.
	q.Remove("alert")
	assert.Equal(t, 1, q.Len())

	q.Push("alert")
	assert.Equal(t, 2, q.Len())

	clock.fire(0) // stopped timer, must be a no-op
	assert.Equal(t, 2, q.Len())

	clock.fire(1)
	clock.fire(2)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_RemoveByID(t *testing.T) {
	q, _ := newTestQueue()

	id := q.Push("a")
	q.Push("b")

	q.RemoveByID(id)
	assert.Equal(t, []string{"b"}, q.Messages())

	// Unknown handle is a no-op.
	q.RemoveByID("nope")
	assert.Equal(t, 1, q.Len())
}

func TestQueue_Clear(t *testing.T) {
	q, clock := newTestQueue()

	q.Push("a")
	q.Push("b")
	q.Clear()
	assert.Equal(t, 0, q.Len())

	// Cleared timers were stopped; firing them must not panic or mutate.
	clock.fire(0)
	clock.fire(1)
	assert.Equal(t, 0, q.Len())
}
