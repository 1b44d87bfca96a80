package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// StripeGateway implements Gateway against the Stripe API.
//
// The client is constructed explicitly and injected at startup; we never use
// the package-level stripe key or the global paymentintent helpers.
type StripeGateway struct {
	client *client.API
}

func NewStripeGateway(apiKey string) *StripeGateway {
	sc := &client.API{}
	sc.Init(apiKey, nil)
	return &StripeGateway{client: sc}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req CreateIntentRequest) (*PaymentIntent, error) {
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", ErrValidation)
	}
	if req.Currency == "" {
		return nil, fmt.Errorf("currency is required: %w", ErrValidation)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if len(req.Metadata) > 0 {
		params.Metadata = make(map[string]string, len(req.Metadata))
		for k, v := range req.Metadata {
			params.Metadata[k] = v
		}
	}
	// Cancels the outbound HTTP call if the request context expires.
	params.Context = ctx

	pi, err := g.client.PaymentIntents.New(params)
	if err != nil {
		return nil, g.mapStripeError(err)
	}
	return intentFromStripe(pi), nil
}

func (g *StripeGateway) RetrieveIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	if id == "" {
		return nil, fmt.Errorf("payment intent id is required: %w", ErrValidation)
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.client.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, g.mapStripeError(err)
	}
	return intentFromStripe(pi), nil
}

// mapStripeError converts stripe-go errors into domain errors so the library
// does not leak into the service or HTTP layers.
func (g *StripeGateway) mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.Code == stripe.ErrorCodeResourceMissing:
			return fmt.Errorf("%w: %s", ErrNotFound, stripeErr.Msg)
		case stripeErr.Code == stripe.ErrorCodeParameterInvalidInteger,
			stripeErr.Code == stripe.ErrorCodeAmountTooSmall,
			stripeErr.Code == stripe.ErrorCodeAmountTooLarge:
			return fmt.Errorf("%w: %s", ErrValidation, stripeErr.Msg)
		case stripeErr.HTTPStatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("%w: provider unavailable", ErrProcessing)
		}
	}
	return fmt.Errorf("%w: %v", ErrProcessing, err)
}

func intentFromStripe(pi *stripe.PaymentIntent) *PaymentIntent {
	out := &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
	}
	if pi.LastPaymentError != nil {
		code := string(pi.LastPaymentError.Code)
		msg := pi.LastPaymentError.Msg
		out.ErrorCode = &code
		out.ErrorMessage = &msg
	}
	return out
}
