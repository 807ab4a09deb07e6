package payment

import (
	"context"
	"testing"
	"time"

	"ecommerce-backend/internal/domain"
)

func validRequest() ChargeRequest {
	return ChargeRequest{
		OrderID:     "order-1",
		AmountCents: 10000,
		Currency:    "USD",
		Card: domain.PaymentCard{
			HolderName: "Jane Buyer",
			Number:     "4242424242424242",
			ExpMonth:   12,
			ExpYear:    time.Now().Year() + 1,
			CVC:        "123",
		},
	}
}

func TestSandboxChargeAccepted(t *testing.T) {
	gw := NewSandbox(nil)
	res, err := gw.Charge(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if !res.Accepted || res.Reference == "" {
		t.Fatalf("expected accepted charge with reference, got %+v", res)
	}
}

func TestSandboxChargeDeclineCard(t *testing.T) {
	gw := NewSandbox(nil)
	req := validRequest()
	req.Card.Number = DeclineCardNumber
	res, err := gw.Charge(context.Background(), req)
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if res.Accepted || res.DeclineReason == "" {
		t.Fatalf("expected decline, got %+v", res)
	}
}

func TestSandboxChargeValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ChargeRequest)
	}{
		{"zero amount", func(r *ChargeRequest) { r.AmountCents = 0 }},
		{"bad luhn", func(r *ChargeRequest) { r.Card.Number = "4242424242424241" }},
		{"short number", func(r *ChargeRequest) { r.Card.Number = "42424242" }},
		{"no holder", func(r *ChargeRequest) { r.Card.HolderName = "  " }},
		{"bad month", func(r *ChargeRequest) { r.Card.ExpMonth = 13 }},
		{"expired", func(r *ChargeRequest) { r.Card.ExpYear = time.Now().Year() - 1 }},
		{"bad cvc", func(r *ChargeRequest) { r.Card.CVC = "12" }},
	}
	gw := NewSandbox(nil)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := validRequest()
			c.mutate(&req)
			res, err := gw.Charge(context.Background(), req)
			if err != nil {
				t.Fatalf("charge: %v", err)
			}
			if res.Accepted || res.DeclineReason == "" {
				t.Fatalf("expected validation decline, got %+v", res)
			}
		})
	}
}

func TestSandboxRefund(t *testing.T) {
	gw := NewSandbox(nil)
	res, err := gw.Charge(context.Background(), validRequest())
	if err != nil || !res.Accepted {
		t.Fatalf("charge: %v %+v", err, res)
	}

	if err := gw.Refund(context.Background(), res.Reference, 10000); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if got := gw.Refunded(res.Reference); got != 10000 {
		t.Fatalf("expected 10000 refunded, got %d", got)
	}

	if err := gw.Refund(context.Background(), res.Reference, 1); err == nil {
		t.Fatalf("expected over-refund to fail")
	}
	if err := gw.Refund(context.Background(), "ch_missing", 1); err == nil {
		t.Fatalf("expected unknown reference to fail")
	}
}
