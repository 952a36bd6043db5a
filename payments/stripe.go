package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"

	"findyourprogram-api/models"
)

// IntentHandle is what opening a charge intent gives back to the ledger.
type IntentHandle struct {
	ID           string
	ClientSecret string
	Status       models.PaymentStatus
}

// Outcome is the processor's final word on an intent, used to enrich the
// payment record after the client finishes (or fails) the charge.
type Outcome struct {
	Status         models.PaymentStatus
	ChargeID       string
	CardBrand      string
	CardLast4      string
	FailureCode    string
	FailureMessage string
}

// Broker is the payment-processor boundary. OpenIntent creates billable state
// and must be called at most once per intent record; RetrieveOutcome is
// read-only and safe to poll.
type Broker interface {
	OpenIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*IntentHandle, error)
	RetrieveOutcome(ctx context.Context, processorIntentID string) (*Outcome, error)
}

const callTimeout = 15 * time.Second

// StripeBroker talks to Stripe through an injected client, not the package
// global, so tests and multi-key setups stay possible.
type StripeBroker struct {
	api *client.API
}

func NewStripeBroker(secretKey string) *StripeBroker {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeBroker{api: api}
}

func (b *StripeBroker) OpenIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*IntentHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	// One key per call so transport-level retries inside the SDK cannot open
	// a second intent. There is no application-level retry of OpenIntent.
	params.IdempotencyKey = stripe.String(uuid.NewString())

	pi, err := b.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create intent: %w", err)
	}

	status := models.PaymentStatus(pi.Status)
	if status == "" {
		status = models.StatusRequiresAction
	}

	return &IntentHandle{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       status,
	}, nil
}

func (b *StripeBroker) RetrieveOutcome(ctx context.Context, processorIntentID string) (*Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	}
	params.AddExpand("latest_charge.payment_method_details.card")

	pi, err := b.api.PaymentIntents.Get(processorIntentID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe retrieve intent: %w", err)
	}

	out := &Outcome{Status: models.PaymentStatus(pi.Status)}
	if ch := pi.LatestCharge; ch != nil {
		out.ChargeID = ch.ID
		if ch.PaymentMethodDetails != nil && ch.PaymentMethodDetails.Card != nil {
			out.CardBrand = string(ch.PaymentMethodDetails.Card.Brand)
			out.CardLast4 = ch.PaymentMethodDetails.Card.Last4
		}
	}
	if pe := pi.LastPaymentError; pe != nil {
		out.FailureCode = string(pe.Code)
		out.FailureMessage = pe.Msg
	}
	return out, nil
}
