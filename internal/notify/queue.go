package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Timer is the cancellable handle behind a scheduled expiry.
type Timer interface {
	Stop() bool
}

// Clock abstracts timer creation so tests can fire expiries by hand instead
// of sleeping.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock returns a Clock backed by time.AfterFunc.
func RealClock() Clock { return realClock{} }

// Notification is one user-visible message with its expiry handle.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`

	timer Timer
}

// Queue holds ephemeral user-visible messages. Every push schedules its own
// expiry; two pushes of identical text live and die independently, so removal
// cancels exactly one timer, keyed by the push handle and never by content.
type Queue struct {
	mu     sync.Mutex
	logger *zap.Logger
	clock  Clock
	ttl    time.Duration
	items  []*Notification
}

// NewQueue creates a Queue whose messages expire after ttl.
func NewQueue(logger *zap.Logger, clock Clock, ttl time.Duration) *Queue {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Queue{
		logger: logger.Named("notify"),
		clock:  clock,
		ttl:    ttl,
	}
}

// Push appends a message and schedules its removal. Returns the push handle.
func (q *Queue) Push(message string) string {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := &Notification{
		ID:        uuid.NewString(),
		Message:   message,
		CreatedAt: time.Now(),
	}
	id := n.ID
	n.timer = q.clock.AfterFunc(q.ttl, func() { q.RemoveByID(id) })
	q.items = append(q.items, n)

	q.logger.Debug("notification pushed", zap.String("id", n.ID), zap.String("message", message))
	return n.ID
}

// RemoveByID drops the notification with the given handle and cancels its timer.
func (q *Queue) RemoveByID(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.removeLocked(func(n *Notification) bool { return n.ID == id })
}

// Remove drops the first notification whose text matches message. Its own
// timer is cancelled so a later re-push of the same text cannot be reaped by
// a stale expiry.
func (q *Queue) Remove(message string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.removeLocked(func(n *Notification) bool { return n.Message == message })
}

func (q *Queue) removeLocked(match func(*Notification) bool) {
	for i, n := range q.items {
		if match(n) {
			n.timer.Stop()
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// Messages returns the visible message texts, oldest first.
func (q *Queue) Messages() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]string, len(q.items))
	for i, n := range q.items {
		out[i] = n.Message
	}
	return out
}

// Snapshot returns copies of the visible notifications, oldest first.
func (q *Queue) Snapshot() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Notification, len(q.items))
	for i, n := range q.items {
		out[i] = Notification{ID: n.ID, Message: n.Message, CreatedAt: n.CreatedAt}
	}
	return out
}

// Clear drops everything and cancels all outstanding timers.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, n := range q.items {
		n.timer.Stop()
	}
	q.items = nil
}

// Len returns the number of visible notifications.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
