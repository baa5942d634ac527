package webhooks

import (
	"strings"

	"github.com/goliatone/go-tally/core"
)

// EventClassifier decides how a decoded event affects the ledger.
//
// The processor emits several notifications for one purchase; only the
// authoritative settlement event (charge.succeeded) contributes to the total.
// The companion confirmations update the latest-payment slot so display stays
// fresh even when the settlement notification is delayed.
type EventClassifier struct {
	TargetCurrency string
}

func NewEventClassifier(targetCurrency string) EventClassifier {
	return EventClassifier{TargetCurrency: strings.TrimSpace(targetCurrency)}
}

func (c EventClassifier) Classify(event core.InboundEvent) core.Classification {
	classification := core.Classification{
		EventID:          event.ID,
		Kind:             core.EventKindIgnored,
		AmountMinorUnits: event.AmountMinorUnits,
		Currency:         event.Currency,
		PayerName:        event.PayerName,
		OccurredAt:       event.OccurredAt,
	}

	switch event.Type {
	case core.EventTypeChargeSucceeded:
		classification.Kind = core.EventKindContributing
		classification.AddToTotal = event.AmountMinorUnits > 0 &&
			core.SameCurrency(event.Currency, c.TargetCurrency)
	case core.EventTypePaymentIntentSucceeded, core.EventTypeCheckoutSessionCompleted:
		classification.Kind = core.EventKindRecordOnly
	}

	return classification
}

var _ core.Classifier = EventClassifier{}
