package payments

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"

	"marea/pkg/client"
	"marea/pkg/config"
	apperrors "marea/pkg/errors"
	"marea/pkg/logger"
)

type stripeGateway struct {
	http   *client.HttpClient
	apiKey string
	log    *logger.Logger
}

// NewStripeGateway talks to the Stripe refunds API directly over its form
// encoding. Only card payments carry a Stripe payment intent reference;
// cash/transfer refunds never reach the gateway.
func NewStripeGateway(cfg *config.Config) Gateway {
	return &stripeGateway{
		http:   client.NewHttpClient(cfg.StripeAPIBase),
		apiKey: cfg.StripeAPIKey,
		log:    cfg.Log,
	}
}

type stripeRefundResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *stripeGateway) Refund(ctx context.Context, paymentReference string, amount float64) (*RefundResult, error) {
	if g.apiKey == "" {
		return nil, apperrors.Internal("Stripe API key not configured", nil)
	}

	form := url.Values{}
	form.Set("payment_intent", paymentReference)
	// Stripe amounts are integer cents.
	form.Set("amount", fmt.Sprintf("%d", int64(math.Round(amount*100))))

	resp, err := g.http.POSTForm(ctx, "/v1/refunds", form, map[string]string{
		"Authorization": "Bearer " + g.apiKey,
	})
	if err != nil {
		return nil, apperrors.Gateway("Refund request failed", err)
	}

	var body stripeRefundResponse
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, apperrors.Gateway("Unreadable refund response", err)
	}

	if resp.StatusCode != http.StatusOK || body.Error != nil {
		message := "refund rejected"
		if body.Error != nil {
			message = body.Error.Message
		}
		g.log.Error("Stripe refund rejected",
			"payment_reference", paymentReference,
			"status", resp.StatusCode,
			"message", message,
		)
		return &RefundResult{Succeeded: false}, nil
	}

	return &RefundResult{
		Succeeded: body.Status == "succeeded" || body.Status == "pending",
		Reference: body.ID,
	}, nil
}
