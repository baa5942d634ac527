// Package webhooks contains payment notification verification, decoding,
// classification, and the ingestion state machine.
//
// Processing order is fixed: verify signature -> decode -> duplicate check ->
// apply ledger mutation -> write dedup marker. The marker write comes last so
// a crash mid-sequence leaves the event eligible for reprocessing; the worst
// case is one duplicate total add, never a silently lost payment.
package webhooks
