package payment

import "errors"

// Standard payment errors. Handlers and the HTTP layer branch on these with
// errors.Is; everything else wraps them with fmt.Errorf("...: %w", err).
var (
	// ErrValidation is the caller's fault (bad amount, missing field). 400,
	// never retried, no remote call made.
	ErrValidation = errors.New("invalid payment input")

	// ErrSignature means the webhook could not be authenticated. 400 so the
	// provider's own retry mechanism re-delivers; never acknowledged.
	ErrSignature = errors.New("webhook signature verification failed")

	// ErrNotFound means the provider does not know the intent id.
	ErrNotFound = errors.New("payment intent not found")

	// ErrMetadataParse is non-fatal: the payment succeeded regardless of our
	// bookkeeping, so the webhook is still acknowledged. Logged, 200.
	ErrMetadataParse = errors.New("malformed intent metadata")

	// ErrProcessing is an internal or provider-side failure. 500 so the
	// provider redelivers the webhook later.
	ErrProcessing = errors.New("payment processing failed")
)
