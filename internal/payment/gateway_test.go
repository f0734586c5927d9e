package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"thriftshop/internal/domain"
)

func TestCompleteSuccessInvokesSuccessCallback(t *testing.T) {
	g := NewWidgetGateway(nil, "Thrift Shop", nil)
	var gotRef *Reference
	var gotErr error
	if err := g.Open(context.Background(), Request{AttemptID: "a1", AmountCents: 100, Currency: "INR"},
		func(ref Reference) { gotRef = &ref },
		func(err error) { gotErr = err },
	); err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := g.Complete("a1", Completion{Status: CompletionSuccess, PaymentID: "pay_1"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if gotRef == nil || gotRef.PaymentID != "pay_1" {
		t.Fatalf("success callback not invoked: %+v", gotRef)
	}
	if gotErr != nil {
		t.Fatalf("failure callback must not fire: %v", gotErr)
	}
}

func TestCompleteCancelledMapsToErrCancelled(t *testing.T) {
	g := NewWidgetGateway(nil, "Thrift Shop", nil)
	var gotErr error
	if err := g.Open(context.Background(), Request{AttemptID: "a1", AmountCents: 100, Currency: "INR"},
		func(Reference) { t.Fatalf("unexpected success") },
		func(err error) { gotErr = err },
	); err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := g.Complete("a1", Completion{Status: CompletionCancelled}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !errors.Is(gotErr, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", gotErr)
	}
}

func TestCompleteFailedCarriesReason(t *testing.T) {
	g := NewWidgetGateway(nil, "Thrift Shop", nil)
	var gotErr error
	if err := g.Open(context.Background(), Request{AttemptID: "a1", AmountCents: 100, Currency: "INR"},
		func(Reference) { t.Fatalf("unexpected success") },
		func(err error) { gotErr = err },
	); err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := g.Complete("a1", Completion{Status: CompletionFailed, Code: "BAD_CARD", Description: "card declined"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	var fe *FailureError
	if !errors.As(gotErr, &fe) || fe.Code != "BAD_CARD" {
		t.Fatalf("expected FailureError BAD_CARD, got %v", gotErr)
	}
}

func TestCompleteFiresExactlyOnce(t *testing.T) {
	g := NewWidgetGateway(nil, "Thrift Shop", nil)
	calls := 0
	if err := g.Open(context.Background(), Request{AttemptID: "a1", AmountCents: 100, Currency: "INR"},
		func(Reference) { calls++ },
		func(error) { calls++ },
	); err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := g.Complete("a1", Completion{Status: CompletionSuccess, PaymentID: "pay_1"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := g.Complete("a1", Completion{Status: CompletionSuccess, PaymentID: "pay_2"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second completion, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one callback, got %d", calls)
	}
}

func TestCompleteUnknownAttempt(t *testing.T) {
	g := NewWidgetGateway(nil, "Thrift Shop", nil)
	if err := g.Complete("nope", Completion{Status: CompletionSuccess}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestVerifySignature(t *testing.T) {
	c := NewClient("key", "secret")

	mac := hmac.New(sha256.New, []byte("secret"))
	fmt.Fprintf(mac, "%s|%s", "order_1", "pay_1")
	good := hex.EncodeToString(mac.Sum(nil))

	if !c.VerifySignature("order_1", "pay_1", good) {
		t.Fatalf("valid signature rejected")
	}
	if c.VerifySignature("order_1", "pay_1", "deadbeef") {
		t.Fatalf("invalid signature accepted")
	}
}
