// Package payment abstracts the external payment provider behind a small
// capability set: create an intent, query its outcome.
package payment

import "context"

// Outcome is the terminal result of a payment intent.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomePending   Outcome = "pending"
	OutcomeFailed    Outcome = "failed"
)

// Intent references a provider-side payment record.
type Intent struct {
	Ref          string // opaque gateway reference
	ClientSecret string // handed to the client to complete payment
}

// Gateway is the provider interface. Amounts are in the platform currency,
// two-decimal fixed point.
type Gateway interface {
	CreateIntent(ctx context.Context, amount float64) (*Intent, error)
	GetOutcome(ctx context.Context, ref string) (Outcome, error)
}
