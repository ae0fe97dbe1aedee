package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const stripeAPIBase = "https://api.stripe.com/v1"

// StripeGateway talks to the Stripe REST API. The surface needed here is two
// calls, so a full SDK is not pulled in.
type StripeGateway struct {
	apiKey string
	client *http.Client
}

// NewStripeGateway creates a gateway using the given secret API key.
func NewStripeGateway(apiKey string) *StripeGateway {
	return &StripeGateway{
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type stripeIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

type stripeError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateIntent creates a Stripe PaymentIntent. Stripe amounts are in cents.
func (g *StripeGateway) CreateIntent(ctx context.Context, amount float64) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(int64(amount*100+0.5), 10))
	form.Set("currency", "usd")

	intent, err := g.do(ctx, http.MethodPost, "/payment_intents", form)
	if err != nil {
		return nil, err
	}
	return &Intent{Ref: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

// GetOutcome fetches the intent and maps its status.
func (g *StripeGateway) GetOutcome(ctx context.Context, ref string) (Outcome, error) {
	intent, err := g.do(ctx, http.MethodGet, "/payment_intents/"+url.PathEscape(ref), nil)
	if err != nil {
		return OutcomeFailed, err
	}

	switch intent.Status {
	case "succeeded":
		return OutcomeSucceeded, nil
	case "canceled", "requires_payment_method":
		return OutcomeFailed, nil
	default:
		return OutcomePending, nil
	}
}

func (g *StripeGateway) do(ctx context.Context, method, path string, form url.Values) (*stripeIntent, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, stripeAPIBase+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stripe request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read stripe response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var se stripeError
		if json.Unmarshal(data, &se) == nil && se.Error.Message != "" {
			return nil, fmt.Errorf("stripe error (%d): %s", resp.StatusCode, se.Error.Message)
		}
		return nil, fmt.Errorf("stripe error: status %d", resp.StatusCode)
	}

	var intent stripeIntent
	if err := json.Unmarshal(data, &intent); err != nil {
		return nil, fmt.Errorf("failed to decode stripe response: %w", err)
	}
	return &intent, nil
}
