package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"

	"thriftshop/internal/domain"
)

// FirebaseProvider verifies Firebase ID tokens and fans sign-out
// notifications out to bound subscribers.
type FirebaseProvider struct {
	client *auth.Client

	mu      sync.Mutex
	subs    map[int]func(*domain.Identity)
	nextSub int
}

func NewFirebaseProvider(ctx context.Context, projectID string) (*FirebaseProvider, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return &FirebaseProvider{
		client: client,
		subs:   make(map[int]func(*domain.Identity)),
	}, nil
}

// VerifyToken validates a bearer ID token and maps it to an Identity.
func (p *FirebaseProvider) VerifyToken(ctx context.Context, idToken string) (*domain.Identity, error) {
	tok, err := p.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}
	uid := strings.TrimSpace(tok.UID)
	if uid == "" {
		return nil, errors.New("empty uid in token")
	}
	email := ""
	if raw, ok := tok.Claims["email"]; ok {
		if s, ok2 := raw.(string); ok2 {
			// orders are keyed by email; one canonical casing throughout
			email = strings.ToLower(strings.TrimSpace(s))
		}
	}
	return &domain.Identity{
		ID:          uid,
		Email:       email,
		DisplayName: domain.DisplayNameFromEmail(email),
	}, nil
}

// SignOutUser revokes the user's refresh tokens and notifies subscribers of
// the signed-out state.
func (p *FirebaseProvider) SignOutUser(ctx context.Context, uid string) error {
	if err := p.client.RevokeRefreshTokens(ctx, uid); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	p.notify(nil)
	return nil
}

func (p *FirebaseProvider) subscribe(fn func(*domain.Identity)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

func (p *FirebaseProvider) notify(ident *domain.Identity) {
	p.mu.Lock()
	fns := make([]func(*domain.Identity), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(ident)
	}
}

// Bind scopes the provider to one bearer token so it satisfies AuthProvider.
func (p *FirebaseProvider) Bind(idToken string) AuthProvider {
	return &boundProvider{provider: p, token: idToken}
}

type boundProvider struct {
	provider *FirebaseProvider
	token    string
}

func (b *boundProvider) CurrentIdentity(ctx context.Context) (*domain.Identity, error) {
	if strings.TrimSpace(b.token) == "" {
		return nil, nil
	}
	return b.provider.VerifyToken(ctx, b.token)
}

func (b *boundProvider) Subscribe(fn func(*domain.Identity)) func() {
	return b.provider.subscribe(fn)
}

func (b *boundProvider) SignOut(ctx context.Context) error {
	ident, err := b.CurrentIdentity(ctx)
	if err != nil || ident == nil {
		return err
	}
	return b.provider.SignOutUser(ctx, ident.ID)
}
