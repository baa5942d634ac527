package webhooks

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/goliatone/go-tally/core"
)

type eventEnvelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type chargeObject struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	BillingDetails struct {
		Name string `json:"name"`
	} `json:"billing_details"`
}

type checkoutSessionObject struct {
	AmountTotal     int64  `json:"amount_total"`
	Currency        string `json:"currency"`
	CustomerDetails struct {
		Name string `json:"name"`
	} `json:"customer_details"`
}

// PaymentEventDecoder parses processor notification envelopes. Only the
// recognized event types get their payload object decoded; unrecognized
// types still decode successfully so the marker can be written and the
// delivery acknowledged.
type PaymentEventDecoder struct{}

func NewPaymentEventDecoder() PaymentEventDecoder {
	return PaymentEventDecoder{}
}

func (PaymentEventDecoder) Decode(body []byte) (core.InboundEvent, error) {
	var envelope eventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return core.InboundEvent{}, core.ValidationError(
			"webhooks: payload is not valid json",
			core.TallyErrorMalformedPayload,
			map[string]any{"parse_error": err.Error()},
		)
	}

	event := core.InboundEvent{
		ID:   strings.TrimSpace(envelope.ID),
		Type: strings.TrimSpace(envelope.Type),
	}
	if event.ID == "" {
		return core.InboundEvent{}, core.ValidationError(
			"webhooks: event id is required",
			core.TallyErrorMissingEventID,
			nil,
		)
	}
	if envelope.Created > 0 {
		event.OccurredAt = time.Unix(envelope.Created, 0).UTC()
	}

	switch event.Type {
	case core.EventTypeChargeSucceeded, core.EventTypePaymentIntentSucceeded:
		var object chargeObject
		if err := json.Unmarshal(envelope.Data.Object, &object); err != nil {
			return core.InboundEvent{}, malformedObject(event.Type, err)
		}
		event.AmountMinorUnits = object.Amount
		event.Currency = strings.TrimSpace(object.Currency)
		event.PayerName = strings.TrimSpace(object.BillingDetails.Name)
	case core.EventTypeCheckoutSessionCompleted:
		var object checkoutSessionObject
		if err := json.Unmarshal(envelope.Data.Object, &object); err != nil {
			return core.InboundEvent{}, malformedObject(event.Type, err)
		}
		event.AmountMinorUnits = object.AmountTotal
		event.Currency = strings.TrimSpace(object.Currency)
		event.PayerName = strings.TrimSpace(object.CustomerDetails.Name)
	}

	return event, nil
}

func malformedObject(eventType string, err error) error {
	return core.ValidationError(
		"webhooks: event payload object is malformed",
		core.TallyErrorMalformedPayload,
		map[string]any{
			"event_type":  eventType,
			"parse_error": err.Error(),
		},
	)
}

var _ core.EventDecoder = PaymentEventDecoder{}
