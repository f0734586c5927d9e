package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"thriftshop/internal/domain"
)

// ErrCancelled marks a payment the buyer abandoned in the gateway UI, as
// opposed to one the gateway declined.
var ErrCancelled = errors.New("payment cancelled by user")

// Reference identifies a completed payment at the gateway.
type Reference struct {
	PaymentID string `json:"paymentId"`
	OrderID   string `json:"orderId,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// Request carries everything the gateway needs to collect a payment.
type Request struct {
	AttemptID   string
	AmountCents int64
	Currency    string
	Email       string
	Name        string
	Manifest    []domain.CartLine
}

// FailureError is a gateway-reported decline.
type FailureError struct {
	Code        string
	Description string
}

func (e *FailureError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("payment failed: %s (%s)", e.Description, e.Code)
	}
	return "payment failed: " + e.Code
}

// Gateway opens a payment attempt. Exactly one of the two callbacks fires
// later, exactly once; cancellation arrives at onFailure as ErrCancelled.
// Open itself returns an error only when the attempt could not be handed to
// the gateway at all.
type Gateway interface {
	Open(ctx context.Context, req Request, onSuccess func(Reference), onFailure func(error)) error
}

// CheckoutParams is what the browser-side widget needs to open.
type CheckoutParams struct {
	KeyID          string `json:"keyId,omitempty"`
	GatewayOrderID string `json:"gatewayOrderId,omitempty"`
	AmountCents    int64  `json:"amountCents"`
	Currency       string `json:"currency"`
	BusinessName   string `json:"businessName"`
	Email          string `json:"email,omitempty"`
}

// Completion is the widget's terminal result posted back to us.
type Completion struct {
	Status      string `json:"status" binding:"required"`
	PaymentID   string `json:"razorpay_payment_id"`
	OrderID     string `json:"razorpay_order_id"`
	Signature   string `json:"razorpay_signature"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

const (
	CompletionSuccess   = "success"
	CompletionFailed    = "failed"
	CompletionCancelled = "cancelled"
)

type pendingAttempt struct {
	params    CheckoutParams
	onSuccess func(Reference)
	onFailure func(error)
}

// WidgetGateway bridges the asynchronous browser widget: Open registers the
// attempt (creating the gateway-side order when a client is configured) and
// Complete routes the widget's one terminal result to the registered
// callbacks. With a nil client it runs unsigned, for local development.
type WidgetGateway struct {
	mu      sync.Mutex
	client  *Client
	name    string
	pending map[string]*pendingAttempt
	logger  *log.Logger
}

func NewWidgetGateway(client *Client, businessName string, logger *log.Logger) *WidgetGateway {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &WidgetGateway{
		client:  client,
		name:    businessName,
		pending: make(map[string]*pendingAttempt),
		logger:  logger,
	}
}

func (g *WidgetGateway) Open(ctx context.Context, req Request, onSuccess func(Reference), onFailure func(error)) error {
	params := CheckoutParams{
		AmountCents:  req.AmountCents,
		Currency:     req.Currency,
		BusinessName: g.name,
		Email:        req.Email,
	}
	if g.client != nil {
		manifest, _ := json.Marshal(req.Manifest)
		gatewayOrderID, err := g.client.CreateOrder(ctx, req.AmountCents, req.Currency, req.AttemptID, map[string]string{
			"order_items": string(manifest),
		})
		if err != nil {
			return fmt.Errorf("create gateway order: %w", err)
		}
		params.KeyID = g.client.KeyID()
		params.GatewayOrderID = gatewayOrderID
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.pending[req.AttemptID]; ok {
		return fmt.Errorf("attempt %s already open", req.AttemptID)
	}
	g.pending[req.AttemptID] = &pendingAttempt{
		params:    params,
		onSuccess: onSuccess,
		onFailure: onFailure,
	}
	return nil
}

// Params returns the widget parameters for an open attempt.
func (g *WidgetGateway) Params(attemptID string) (CheckoutParams, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.pending[attemptID]
	if !ok {
		return CheckoutParams{}, false
	}
	return p.params, true
}

// Complete delivers the widget's terminal result. The attempt is removed
// before any callback runs, so a second delivery finds nothing.
func (g *WidgetGateway) Complete(attemptID string, res Completion) error {
	g.mu.Lock()
	p, ok := g.pending[attemptID]
	if ok {
		delete(g.pending, attemptID)
	}
	g.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}

	switch res.Status {
	case CompletionSuccess:
		if g.client != nil && !g.client.VerifySignature(res.OrderID, res.PaymentID, res.Signature) {
			g.logger.Printf("payment: signature mismatch attempt=%s payment=%s", attemptID, res.PaymentID)
			p.onFailure(&FailureError{Code: "SIGNATURE_MISMATCH", Description: "payment signature verification failed"})
			return nil
		}
		p.onSuccess(Reference{PaymentID: res.PaymentID, OrderID: res.OrderID, Signature: res.Signature})
	case CompletionCancelled:
		p.onFailure(ErrCancelled)
	default:
		p.onFailure(&FailureError{Code: res.Code, Description: res.Description})
	}
	return nil
}
