package payment

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DeclineCardNumber always declines in the sandbox, for exercising the
// rollback path end to end.
const DeclineCardNumber = "4000000000000002"

// Sandbox is a deterministic in-process Gateway for development and tests.
// It validates card fields the way a real provider would reject malformed
// input, declines the well-known decline card, and accepts everything else.
type Sandbox struct {
	logger *log.Logger

	mu      sync.Mutex
	charges map[string]int64 // reference -> captured amount
	refunds map[string]int64 // reference -> refunded amount
}

func NewSandbox(logger *log.Logger) *Sandbox {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Sandbox{
		logger:  logger,
		charges: make(map[string]int64),
		refunds: make(map[string]int64),
	}
}

func (s *Sandbox) Charge(_ context.Context, req ChargeRequest) (ChargeResult, error) {
	if reason := validateCard(req); reason != "" {
		return ChargeResult{DeclineReason: reason}, nil
	}
	if strings.ReplaceAll(req.Card.Number, " ", "") == DeclineCardNumber {
		return ChargeResult{DeclineReason: "card declined by issuer"}, nil
	}

	ref := "ch_" + uuid.NewString()
	s.mu.Lock()
	s.charges[ref] = req.AmountCents
	s.mu.Unlock()
	s.logger.Printf("payment: captured order=%s amount=%d ref=%s", req.OrderID, req.AmountCents, ref)
	return ChargeResult{Accepted: true, Reference: ref}, nil
}

func (s *Sandbox) Refund(_ context.Context, reference string, amountCents int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	captured, ok := s.charges[reference]
	if !ok {
		return fmt.Errorf("payment: refund unknown charge %s", reference)
	}
	if amountCents > captured-s.refunds[reference] {
		return fmt.Errorf("payment: refund %d exceeds remaining capture on %s", amountCents, reference)
	}
	s.refunds[reference] += amountCents
	s.logger.Printf("payment: refunded ref=%s amount=%d", reference, amountCents)
	return nil
}

// Refunded reports the total refunded against a charge reference.
func (s *Sandbox) Refunded(reference string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refunds[reference]
}

func validateCard(req ChargeRequest) string {
	if req.AmountCents <= 0 {
		return "amount must be positive"
	}
	number := strings.ReplaceAll(req.Card.Number, " ", "")
	if len(number) < 12 || len(number) > 19 || !luhnValid(number) {
		return "invalid card number"
	}
	if strings.TrimSpace(req.Card.HolderName) == "" {
		return "card holder name required"
	}
	if req.Card.ExpMonth < 1 || req.Card.ExpMonth > 12 {
		return "invalid expiry month"
	}
	now := time.Now()
	if req.Card.ExpYear < now.Year() ||
		(req.Card.ExpYear == now.Year() && time.Month(req.Card.ExpMonth) < now.Month()) {
		return "card expired"
	}
	if len(req.Card.CVC) < 3 || len(req.Card.CVC) > 4 {
		return "invalid cvc"
	}
	return ""
}

func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
