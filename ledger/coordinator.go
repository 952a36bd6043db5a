package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"findyourprogram-api/models"
	"findyourprogram-api/payments"
)

// Collection is the subset of *mongo.Collection the coordinator needs.
// *mongo.Collection satisfies it as-is; tests swap in an in-memory store.
type Collection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
}

// ErrTerminalConflict means a completion tried to flip a payment that already
// settled with a different outcome. The settled state is kept.
var ErrTerminalConflict = errors.New("payment already settled with a different outcome")

// Coordinator runs the intent/payment pair through
// initiated, requires_action, processing and finally succeeded or failed.
// The payment record is the source of truth; the intent record (a donation or
// sponsorship document) carries a cached copy of the status. The two writes
// are not atomic as a unit, so the intent's copy can briefly lag. Readers
// that care go through Status, which prefers the payment record.
type Coordinator struct {
	intents  Collection
	payments Collection
	broker   payments.Broker
	source   models.PaymentSource
}

func NewCoordinator(intents, pays Collection, broker payments.Broker, source models.PaymentSource) *Coordinator {
	return &Coordinator{intents: intents, payments: pays, broker: broker, source: source}
}

type InitiateResult struct {
	IntentID     primitive.ObjectID
	PaymentID    primitive.ObjectID
	ClientSecret string
	AmountCents  int64
}

// Initiate inserts the intent and payment records in "initiated" status,
// opens a charge intent with the processor, and mirrors the processor's
// initial status onto both records. If the processor call fails, the two
// "initiated" documents stay behind as an abandoned attempt. They are
// harmless and show up in the admin lists; there is no cleanup job.
func (co *Coordinator) Initiate(ctx context.Context, intentDoc interface{}, amountCents int64, currency string) (*InitiateResult, error) {
	ires, err := co.intents.InsertOne(ctx, intentDoc)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", co.source, err)
	}
	intentID, ok := ires.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert %s: unexpected inserted id %v", co.source, ires.InsertedID)
	}

	payment := models.Payment{
		CreatedAt:   time.Now(),
		Source:      co.source,
		SourceID:    intentID,
		AmountCents: amountCents,
		Currency:    currency,
		Status:      models.StatusInitiated,
	}
	pres, err := co.payments.InsertOne(ctx, payment)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	paymentID, ok := pres.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert payment: unexpected inserted id %v", pres.InsertedID)
	}

	metadata := map[string]string{
		"source":    string(co.source),
		"paymentId": paymentID.Hex(),
	}
	metadata[string(co.source)+"Id"] = intentID.Hex()
	handle, err := co.broker.OpenIntent(ctx, amountCents, currency, metadata)
	if err != nil {
		return nil, fmt.Errorf("open payment intent: %w", err)
	}

	status := handle.Status
	if status == "" {
		status = models.StatusRequiresAction
	}

	_, err = co.payments.UpdateOne(ctx, bson.M{"_id": paymentID}, bson.M{"$set": bson.M{
		"paymentIntentId": handle.ID,
		"clientSecret":    handle.ClientSecret,
		"status":          status,
	}})
	if err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}

	_, err = co.intents.UpdateOne(ctx, bson.M{"_id": intentID}, bson.M{"$set": bson.M{
		"paymentId": paymentID,
		"status":    status,
	}})
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", co.source, err)
	}

	return &InitiateResult{
		IntentID:     intentID,
		PaymentID:    paymentID,
		ClientSecret: handle.ClientSecret,
		AmountCents:  amountCents,
	}, nil
}

// completionFilter matches the record only while its status is non-terminal,
// or when it already carries the incoming outcome. Re-reporting the same
// outcome stays an idempotent no-op; flipping a settled record matches
// nothing, which Complete turns into ErrTerminalConflict.
func completionFilter(id primitive.ObjectID, outcome models.PaymentStatus) bson.M {
	return bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"status": bson.M{"$nin": bson.A{models.StatusSucceeded, models.StatusFailed}}},
			bson.M{"status": outcome},
		},
	}
}

// Complete records the reported outcome on the payment record, then mirrors
// it onto the intent record. When a processor intent id is supplied the patch
// is enriched with charge details; a failed lookup is logged and the
// caller-reported outcome is recorded without enrichment, so the lookup
// failure never downgrades anything.
func (co *Coordinator) Complete(ctx context.Context, intentID, paymentID primitive.ObjectID, outcome models.PaymentStatus, processorIntentID, errorMessage string) error {
	patch := bson.M{"status": outcome}
	if errorMessage != "" {
		patch["failureMessage"] = errorMessage
	} else {
		patch["failureMessage"] = nil
	}

	if processorIntentID != "" {
		out, err := co.broker.RetrieveOutcome(ctx, processorIntentID)
		if err != nil {
			log.Printf("ledger: could not enrich %s %s from intent %s: %v", co.source, paymentID.Hex(), processorIntentID, err)
		} else {
			patch["paymentIntentId"] = processorIntentID
			if out.ChargeID != "" {
				patch["chargeId"] = out.ChargeID
			}
			if out.CardBrand != "" {
				patch["brand"] = out.CardBrand
			}
			if out.CardLast4 != "" {
				patch["last4"] = out.CardLast4
			}
			if out.FailureCode != "" {
				patch["failureCode"] = out.FailureCode
			}
			if out.FailureMessage != "" {
				patch["failureMessage"] = out.FailureMessage
			}
		}
	}

	res, err := co.payments.UpdateOne(ctx, completionFilter(paymentID, outcome), bson.M{"$set": patch})
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if res.MatchedCount == 0 {
		// Zero matches means either the payment is settled with a different
		// outcome or it never existed. Only the first is a conflict.
		if err := co.payments.FindOne(ctx, bson.M{"_id": paymentID}).Err(); err != nil {
			return fmt.Errorf("payment %s: %w", paymentID.Hex(), err)
		}
		log.Printf("ledger: refusing to overwrite settled payment %s with %q", paymentID.Hex(), outcome)
		return ErrTerminalConflict
	}

	mres, err := co.intents.UpdateOne(ctx, completionFilter(intentID, outcome), bson.M{"$set": bson.M{"status": outcome}})
	if err != nil {
		return fmt.Errorf("update %s: %w", co.source, err)
	}
	if mres.MatchedCount == 0 {
		// Payment holds the truth; a lagging intent copy is tolerated.
		log.Printf("ledger: %s %s did not take status %q", co.source, intentID.Hex(), outcome)
	}

	return nil
}

// Status is the reconciliation read path: it reports the payment record's
// status whenever the intent references one, falling back to the intent's
// cached copy only when no payment exists or the payment read fails.
func (co *Coordinator) Status(ctx context.Context, intentID primitive.ObjectID) (models.PaymentStatus, error) {
	var intent struct {
		Status    models.PaymentStatus `bson:"status"`
		PaymentID *primitive.ObjectID  `bson:"paymentId"`
	}
	if err := co.intents.FindOne(ctx, bson.M{"_id": intentID}).Decode(&intent); err != nil {
		return "", err
	}
	if intent.PaymentID == nil {
		return intent.Status, nil
	}

	var payment struct {
		Status models.PaymentStatus `bson:"status"`
	}
	if err := co.payments.FindOne(ctx, bson.M{"_id": *intent.PaymentID}).Decode(&payment); err != nil {
		log.Printf("ledger: payment %s unreadable, serving cached %s status: %v", intent.PaymentID.Hex(), co.source, err)
		return intent.Status, nil
	}
	return payment.Status, nil
}
