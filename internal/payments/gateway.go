package payments

import "context"

// RefundResult reports the gateway's answer to a refund request.
type RefundResult struct {
	Succeeded bool
	Reference string
}

// Gateway abstracts the payment provider. Refund is called before any booking
// state changes: a gateway failure must leave the booking untouched.
type Gateway interface {
	Refund(ctx context.Context, paymentReference string, amount float64) (*RefundResult, error)
}
