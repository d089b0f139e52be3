package session

import (
	"context"
	"errors"
	"log"
)

const (
	connKeyPrefix = "conn:"
	userKeyPrefix = "user:"
	onlineSetKey  = "active_users"
)

// Registry maps live transport connections to durable user identities and
// maintains the shared online-user set.
//
// Multiplicity policy: one active connection per user, last-write-wins. When a
// user reconnects before the old connection is cleaned up, Bind overwrites the
// user-side key; the stale connection-side key is removed by the eventual
// Unbind of the old connection, which by then no longer owns the user-side
// mapping and leaves it untouched.
type Registry struct {
	store Store
}

func NewRegistry(store Store) *Registry {
	return &Registry{store: store}
}

// Bind records both directions of the connection-user association and marks
// the user online. Idempotent.
func (r *Registry) Bind(ctx context.Context, connID, userID string) error {
	if err := r.store.Set(ctx, connKeyPrefix+connID, userID); err != nil {
		return err
	}
	if err := r.store.Set(ctx, userKeyPrefix+userID, connID); err != nil {
		return err
	}
	return r.store.SetAdd(ctx, onlineSetKey, userID)
}

// ResolveUser returns the user bound to a connection, or ErrNotFound.
func (r *Registry) ResolveUser(ctx context.Context, connID string) (string, error) {
	return r.store.Get(ctx, connKeyPrefix+connID)
}

// ResolveConn returns the connection currently bound to a user, or ErrNotFound.
func (r *Registry) ResolveConn(ctx context.Context, userID string) (string, error) {
	return r.store.Get(ctx, userKeyPrefix+userID)
}

// Unbind removes the association and the online marker. Safe to call more
// than once; an already removed binding is a no-op. If the user has rebound to
// a newer connection in the meantime, the newer binding is preserved.
func (r *Registry) Unbind(ctx context.Context, connID string) error {
	userID, err := r.store.Get(ctx, connKeyPrefix+connID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := r.store.Del(ctx, connKeyPrefix+connID); err != nil {
		return err
	}

	current, err := r.store.Get(ctx, userKeyPrefix+userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if current != connID {
		// The user reconnected elsewhere before this cleanup ran.
		log.Printf("INFO: user %s rebound to another connection, keeping it online", userID)
		return nil
	}
	if err := r.store.Del(ctx, userKeyPrefix+userID); err != nil {
		return err
	}
	return r.store.SetRemove(ctx, onlineSetKey, userID)
}

// IsOnline reports whether the user currently has a live connection.
func (r *Registry) IsOnline(ctx context.Context, userID string) (bool, error) {
	return r.store.SetIsMember(ctx, onlineSetKey, userID)
}

// OnlineUsers returns the ids of every currently online user.
func (r *Registry) OnlineUsers(ctx context.Context) ([]string, error) {
	return r.store.SetMembers(ctx, onlineSetKey)
}
