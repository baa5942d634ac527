// Package core contains canonical tally domain contracts, entities, and
// configuration. Store adapters and the webhook processing pipeline depend on
// this package; core must not depend on store- or transport-specific code.
package core
