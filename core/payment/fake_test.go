package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeGatewayCreateIntent(t *testing.T) {
	g := NewFakeGateway()

	intent, err := g.CreateIntent(context.Background(), 49.99)
	require.NoError(t, err)
	assert.Contains(t, intent.Ref, "pi_mock_")
	assert.Equal(t, intent.Ref+"_secret_mock", intent.ClientSecret)
	assert.Equal(t, intent.Ref, g.LastRef())
}

func TestFakeGatewayDefaultsToSucceeded(t *testing.T) {
	g := NewFakeGateway()

	intent, err := g.CreateIntent(context.Background(), 20)
	require.NoError(t, err)

	outcome, err := g.GetOutcome(context.Background(), intent.Ref)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, outcome)
}

func TestFakeGatewaySetOutcome(t *testing.T) {
	g := NewFakeGateway()

	intent, err := g.CreateIntent(context.Background(), 20)
	require.NoError(t, err)

	g.SetOutcome(intent.Ref, OutcomeFailed)
	outcome, err := g.GetOutcome(context.Background(), intent.Ref)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)

	g.SetOutcome(intent.Ref, OutcomePending)
	outcome, _ = g.GetOutcome(context.Background(), intent.Ref)
	assert.Equal(t, OutcomePending, outcome)
}
