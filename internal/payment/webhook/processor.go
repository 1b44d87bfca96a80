package webhook

import "github.com/chris-diam/diamantakis-server/internal/payment"

// Processor turns raw webhook bytes into a verified event. The payload must
// be the exact transport bytes: provider signatures are computed over bytes,
// not over a reparsed structure.
type Processor interface {
	Provider() string
	VerifyAndParse(payload []byte, sigHeader string) (*payment.WebhookEvent, error)
}
