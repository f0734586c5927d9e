package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"thriftshop/internal/cart"
	"thriftshop/internal/domain"
	"thriftshop/internal/events"
	"thriftshop/internal/payment"
)

// State of one checkout attempt. An attempt starts awaiting payment and ends
// in exactly one of the four terminal states.
type State string

const (
	StateAwaitingPayment   State = "awaiting_payment"
	StatePaymentFailed     State = "payment_failed"
	StatePaymentCancelled  State = "payment_cancelled"
	StateOrderCommitted    State = "order_committed"
	StateOrderCommitFailed State = "order_commit_failed"
)

func (s State) Terminal() bool {
	return s != StateAwaitingPayment
}

var (
	// ErrEmptyCart refuses checkout on an empty cart; the caller should send
	// the user back to the cart view.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInFlight rejects a second checkout while one is awaiting payment.
	ErrInFlight = errors.New("checkout already in progress")
)

// OrderCreator commits an order draft to the order store.
type OrderCreator interface {
	Create(ctx context.Context, draft domain.OrderDraft) (*domain.Order, error)
}

// Status is a point-in-time view of an attempt, safe to hand to callers.
type Status struct {
	AttemptID        string        `json:"attemptId"`
	State            State         `json:"state"`
	FailureReason    string        `json:"failureReason,omitempty"`
	PaymentReference string        `json:"paymentReference,omitempty"`
	Order            *domain.Order `json:"order,omitempty"`
}

// Attempt is one run of the checkout state machine over a fixed cart
// snapshot.
type Attempt struct {
	ID       string
	Owner    string
	Email    string
	snapshot cart.Snapshot

	mu         sync.Mutex
	state      State
	failure    string
	payRef     payment.Reference
	order      *domain.Order
	finishedAt time.Time
	done       chan struct{}
}

func (a *Attempt) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := Status{
		AttemptID:     a.ID,
		State:         a.state,
		FailureReason: a.failure,
		Order:         a.order,
	}
	// the reference is only surfaced once payment succeeded but the order
	// could not be recorded, so the user can quote it to support
	if a.state == StateOrderCommitFailed {
		st.PaymentReference = a.payRef.PaymentID
	}
	return st
}

// Wait blocks until the attempt reaches a terminal state or ctx ends.
func (a *Attempt) Wait(ctx context.Context) (Status, error) {
	select {
	case <-a.done:
		return a.Status(), nil
	case <-ctx.Done():
		return a.Status(), ctx.Err()
	}
}

func (a *Attempt) finish(state State, failure string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.Terminal() {
		return
	}
	a.state = state
	a.failure = failure
	a.finishedAt = time.Now()
	close(a.done)
}

func (a *Attempt) finished() (time.Time, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.finishedAt, a.state.Terminal()
}

// Orchestrator drives checkout attempts: it guards entry, hands the payment
// off to the gateway, and on success commits the order with the one-shot
// schema fallback.
type Orchestrator struct {
	gateway payment.Gateway
	orders  OrderCreator
	events  events.Publisher
	logger  *log.Logger

	currency string

	mu       sync.Mutex
	attempts map[string]*Attempt
	inflight map[string]*Attempt
}

func New(gateway payment.Gateway, orders OrderCreator, publisher events.Publisher, currency string, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Orchestrator{
		gateway:  gateway,
		orders:   orders,
		events:   publisher,
		logger:   logger,
		currency: currency,
		attempts: make(map[string]*Attempt),
		inflight: make(map[string]*Attempt),
	}
}

// attemptRetention is how long a terminal attempt stays queryable before the
// next Start sweeps it away.
const attemptRetention = time.Hour

// Start snapshots the owner's cart and opens the payment step. At most one
// attempt may be awaiting payment per owner.
func (o *Orchestrator) Start(ctx context.Context, owner, email string, store *cart.Store) (*Attempt, error) {
	o.evictStale()

	snap := store.Snapshot()
	if snap.Empty() {
		return nil, ErrEmptyCart
	}

	attempt := &Attempt{
		ID:       uuid.NewString(),
		Owner:    owner,
		Email:    strings.ToLower(strings.TrimSpace(email)),
		snapshot: snap,
		state:    StateAwaitingPayment,
		done:     make(chan struct{}),
	}

	o.mu.Lock()
	if cur, ok := o.inflight[owner]; ok && !cur.Status().State.Terminal() {
		o.mu.Unlock()
		return nil, ErrInFlight
	}
	o.inflight[owner] = attempt
	o.attempts[attempt.ID] = attempt
	o.mu.Unlock()

	err := o.gateway.Open(ctx, payment.Request{
		AttemptID:   attempt.ID,
		AmountCents: snap.TotalCents,
		Currency:    o.currency,
		Email:       attempt.Email,
		Manifest:    snap.Lines,
	}, func(ref payment.Reference) {
		o.handlePaymentSuccess(attempt, store, ref)
	}, func(err error) {
		o.handlePaymentFailure(attempt, err)
	})
	if err != nil {
		o.release(attempt)
		o.mu.Lock()
		delete(o.attempts, attempt.ID)
		o.mu.Unlock()
		return nil, fmt.Errorf("open payment: %w", err)
	}

	return attempt, nil
}

// Get looks up a previously started attempt.
func (o *Orchestrator) Get(attemptID string) (*Attempt, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	a, ok := o.attempts[attemptID]
	return a, ok
}

func (o *Orchestrator) release(a *Attempt) {
	o.mu.Lock()
	if o.inflight[a.Owner] == a {
		delete(o.inflight, a.Owner)
	}
	o.mu.Unlock()
}

// evictStale drops terminal attempts past the retention window so the attempt
// map does not grow without bound.
func (o *Orchestrator) evictStale() {
	cutoff := time.Now().Add(-attemptRetention)
	o.mu.Lock()
	defer o.mu.Unlock()
	for id, a := range o.attempts {
		if at, terminal := a.finished(); terminal && at.Before(cutoff) {
			delete(o.attempts, id)
		}
	}
}

func (o *Orchestrator) handlePaymentFailure(a *Attempt, err error) {
	if errors.Is(err, payment.ErrCancelled) {
		o.logger.Printf("checkout: attempt=%s cancelled by user", a.ID)
		a.finish(StatePaymentCancelled, err.Error())
	} else {
		o.logger.Printf("checkout: attempt=%s payment failed: %v", a.ID, err)
		a.finish(StatePaymentFailed, err.Error())
	}
	// cart untouched, checkout may be retried
	o.release(a)
}

func (o *Orchestrator) handlePaymentSuccess(a *Attempt, store *cart.Store, ref payment.Reference) {
	a.mu.Lock()
	a.payRef = ref
	a.mu.Unlock()

	// the originating request is long gone by the time the gateway calls back
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	draft := domain.OrderDraft{
		Items:          a.snapshot.Lines,
		TotalCents:     a.snapshot.TotalCents,
		CustomerEmail:  a.Email,
		PaymentID:      ref.PaymentID,
		GatewayOrderID: ref.OrderID,
	}

	order, err := o.orders.Create(ctx, draft)
	if err != nil && errors.Is(err, domain.ErrUnsupportedField) {
		// the store's schema predates the payment reference columns; retry
		// exactly once without them
		o.logger.Printf("checkout: attempt=%s order store rejected payment fields, retrying without", a.ID)
		bare := draft
		bare.PaymentID = ""
		bare.GatewayOrderID = ""
		order, err = o.orders.Create(ctx, bare)
	}
	if err != nil {
		// payment went through but the order is not recorded: keep the cart
		// and surface the payment reference for support
		o.logger.Printf("checkout: attempt=%s order commit failed payment=%s: %v", a.ID, ref.PaymentID, err)
		a.finish(StateOrderCommitFailed, "payment succeeded but order recording failed")
		o.release(a)
		return
	}

	if err := store.Clear(ctx); err != nil {
		o.logger.Printf("checkout: attempt=%s cart clear failed: %v", a.ID, err)
	}

	a.mu.Lock()
	a.order = order
	a.mu.Unlock()
	a.finish(StateOrderCommitted, "")
	o.release(a)

	if o.events != nil {
		// the produce is async and must outlive this handler's deadline
		o.events.OrderCreated(context.WithoutCancel(ctx), order)
	}
	o.logger.Printf("checkout: attempt=%s committed order=%s total=%d", a.ID, order.ID, order.TotalCents)
}
