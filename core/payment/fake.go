package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// FakeGateway is a deterministic in-memory gateway used in development and
// tests. It never draws randomness: intents succeed unless an outcome was
// set explicitly via SetOutcome.
type FakeGateway struct {
	mu       sync.Mutex
	outcomes map[string]Outcome
	created  []string
}

// NewFakeGateway creates an empty fake gateway.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{outcomes: make(map[string]Outcome)}
}

// CreateIntent issues a mock payment intent reference and client secret.
func (g *FakeGateway) CreateIntent(ctx context.Context, amount float64) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ref := "pi_mock_" + uuid.NewString()
	g.created = append(g.created, ref)
	return &Intent{
		Ref:          ref,
		ClientSecret: fmt.Sprintf("%s_secret_mock", ref),
	}, nil
}

// GetOutcome returns the configured outcome for ref, defaulting to succeeded.
func (g *FakeGateway) GetOutcome(ctx context.Context, ref string) (Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if outcome, ok := g.outcomes[ref]; ok {
		return outcome, nil
	}
	return OutcomeSucceeded, nil
}

// SetOutcome fixes the outcome reported for a reference.
func (g *FakeGateway) SetOutcome(ref string, outcome Outcome) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outcomes[ref] = outcome
}

// LastRef returns the most recently created intent reference, for tests.
func (g *FakeGateway) LastRef() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.created) == 0 {
		return ""
	}
	return g.created[len(g.created)-1]
}
