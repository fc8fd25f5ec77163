// Package gateway provides a simulated payment processor for local runs and
// tests. Behavior is driven by explicit per-instance configuration, never by
// process-global state.
package gateway

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/commercekit/commerce-core/internal/domains/orders/ports"
)

var _ ports.PaymentGateway = (*Simulated)(nil)

// Config selects which transaction kinds the simulated processor declines.
type Config struct {
	DeclineAuthorizations bool
	DeclineCaptures       bool
	DeclineReversals      bool
	DeclineCredits        bool
	// DeclineOver declines any transaction above this amount when set.
	DeclineOver *decimal.Decimal
}

// Simulated approves or declines transactions per its configuration and
// tracks outstanding authorizations by reference id.
type Simulated struct {
	cfg  Config
	seq  atomic.Int64
	mu   sync.Mutex
	open map[string]decimal.Decimal
}

func NewSimulated(cfg Config) *Simulated {
	return &Simulated{cfg: cfg, open: map[string]decimal.Decimal{}}
}

func (g *Simulated) Authorize(_ context.Context, _ string, amount decimal.Decimal) (ports.GatewayResult, error) {
	reference := g.nextReference("auth")
	if g.cfg.DeclineAuthorizations || g.overLimit(amount) {
		return ports.GatewayResult{ReferenceID: reference, DeclineReason: "authorization declined"}, nil
	}
	g.mu.Lock()
	g.open[reference] = amount
	g.mu.Unlock()
	return ports.GatewayResult{ReferenceID: reference, Approved: true}, nil
}

func (g *Simulated) Capture(_ context.Context, referenceID string, amount decimal.Decimal) (ports.GatewayResult, error) {
	if g.cfg.DeclineCaptures || g.overLimit(amount) {
		return ports.GatewayResult{ReferenceID: g.nextReference("cap"), DeclineReason: "capture declined"}, nil
	}
	g.mu.Lock()
	_, known := g.open[referenceID]
	delete(g.open, referenceID)
	g.mu.Unlock()
	if !known {
		return ports.GatewayResult{ReferenceID: g.nextReference("cap"), DeclineReason: "unknown authorization"}, nil
	}
	return ports.GatewayResult{ReferenceID: g.nextReference("cap"), Approved: true}, nil
}

func (g *Simulated) ReverseAuthorization(_ context.Context, referenceID string) (ports.GatewayResult, error) {
	if g.cfg.DeclineReversals {
		return ports.GatewayResult{ReferenceID: referenceID, DeclineReason: "reversal declined"}, nil
	}
	g.mu.Lock()
	delete(g.open, referenceID)
	g.mu.Unlock()
	return ports.GatewayResult{ReferenceID: referenceID, Approved: true}, nil
}

func (g *Simulated) Credit(_ context.Context, _ string, amount decimal.Decimal) (ports.GatewayResult, error) {
	if g.cfg.DeclineCredits || g.overLimit(amount) {
		return ports.GatewayResult{ReferenceID: g.nextReference("cred"), DeclineReason: "credit declined"}, nil
	}
	return ports.GatewayResult{ReferenceID: g.nextReference("cred"), Approved: true}, nil
}

// Outstanding returns the amount still held for a reference id.
func (g *Simulated) Outstanding(referenceID string) (decimal.Decimal, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	amount, ok := g.open[referenceID]
	return amount, ok
}

func (g *Simulated) overLimit(amount decimal.Decimal) bool {
	return g.cfg.DeclineOver != nil && amount.GreaterThan(*g.cfg.DeclineOver)
}

func (g *Simulated) nextReference(prefix string) string {
	return fmt.Sprintf("%s-%06d", prefix, g.seq.Add(1))
}
