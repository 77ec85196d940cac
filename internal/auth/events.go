package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuthEvent names a transition of a user's authentication state.
type AuthEvent string

const (
	EventSignedIn         AuthEvent = "SIGNED_IN"
	EventSignedOut        AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed   AuthEvent = "TOKEN_REFRESHED"
	EventPasswordRecovery AuthEvent = "PASSWORD_RECOVERY"
	EventUserUpdated      AuthEvent = "USER_UPDATED"
)

// StateChange is delivered to every subscriber of the auth-state stream.
type StateChange struct {
	Event  AuthEvent
	UserID uuid.UUID
	At     time.Time
}

// Listener reacts to a state change. Listeners run synchronously in publish order.
type Listener func(ctx context.Context, change StateChange)

// Broadcaster fans auth-state changes out to subscribers.
type Broadcaster struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listeners: make(map[int]Listener)}
}

// Subscribe registers l and returns a function that removes it.
func (b *Broadcaster) Subscribe(l Listener) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = l
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers change to every current subscriber and returns once all have run.
func (b *Broadcaster) Publish(ctx context.Context, change StateChange) {
	if change.At.IsZero() {
		change.At = time.Now()
	}

	b.mu.RLock()
	ids := make([]int, 0, len(b.listeners))
	for id := range b.listeners {
		ids = append(ids, id)
	}
	listeners := make([]Listener, 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		listeners = append(listeners, b.listeners[id])
	}
	b.mu.RUnlock()

	for _, l := range listeners {
		l(ctx, change)
	}
}
