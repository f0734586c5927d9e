package session

import (
	"context"
	"io"
	"log"
	"sync"

	"thriftshop/internal/domain"
)

// AuthProvider is the external identity source for one principal.
type AuthProvider interface {
	// CurrentIdentity returns nil when signed out.
	CurrentIdentity(ctx context.Context) (*domain.Identity, error)
	// Subscribe registers for sign-in/sign-out notifications and returns the
	// release function.
	Subscribe(fn func(*domain.Identity)) (unsubscribe func())
	SignOut(ctx context.Context) error
}

// RoleStore answers admin-privilege lookups. Implementations never return an
// error: internal failures degrade to false.
type RoleStore interface {
	IsAdmin(ctx context.Context, identityID string) bool
}

// Resolve is the one-shot resolution used on the request path: identity first,
// then the role lookup. A nil identity resolves signed-out.
func Resolve(ctx context.Context, ident *domain.Identity, roles RoleStore) domain.Session {
	if ident == nil {
		return domain.Session{}
	}
	return domain.Session{
		Identity: ident,
		IsAdmin:  roles.IsAdmin(ctx, ident.ID),
		Loading:  false,
	}
}

// Resolver keeps a published Session current across auth-state changes.
// Identity is always published (with Loading set) before the admin lookup is
// issued, so no subscriber can observe IsAdmin true for an identity that was
// not itself published signed-in first.
type Resolver struct {
	auth   AuthProvider
	roles  RoleStore
	logger *log.Logger

	mu          sync.Mutex
	current     domain.Session
	subs        map[int]func(domain.Session)
	nextSub     int
	unsubscribe func()
}

func NewResolver(auth AuthProvider, roles RoleStore, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Resolver{
		auth:    auth,
		roles:   roles,
		logger:  logger,
		current: domain.Session{Loading: true},
		subs:    make(map[int]func(domain.Session)),
	}
}

// Start resolves the current identity and registers for change notifications.
func (r *Resolver) Start(ctx context.Context) {
	ident, err := r.auth.CurrentIdentity(ctx)
	if err != nil {
		r.logger.Printf("session: current identity: %v", err)
		ident = nil
	}
	r.resolve(ctx, ident)

	unsub := r.auth.Subscribe(func(ident *domain.Identity) {
		r.resolve(context.Background(), ident)
	})
	r.mu.Lock()
	r.unsubscribe = unsub
	r.mu.Unlock()
}

// Close releases the auth subscription. Safe to call more than once.
func (r *Resolver) Close() {
	r.mu.Lock()
	unsub := r.unsubscribe
	r.unsubscribe = nil
	r.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Current returns the last published session.
func (r *Resolver) Current() domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Subscribe registers fn for every published session and returns its release
// function.
func (r *Resolver) Subscribe(fn func(domain.Session)) func() {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

func (r *Resolver) resolve(ctx context.Context, ident *domain.Identity) {
	if ident == nil {
		r.publish(domain.Session{})
		return
	}
	// signed-in first, admin status pending
	r.publish(domain.Session{Identity: ident, Loading: true})
	isAdmin := r.roles.IsAdmin(ctx, ident.ID)
	r.publish(domain.Session{Identity: ident, IsAdmin: isAdmin, Loading: false})
}

func (r *Resolver) publish(s domain.Session) {
	r.mu.Lock()
	r.current = s
	fns := make([]func(domain.Session), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}
