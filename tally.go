package tally

import "github.com/goliatone/go-tally/core"

type Config = core.Config

type WebhookConfig = core.WebhookConfig

type LedgerConfig = core.LedgerConfig

type DedupConfig = core.DedupConfig

type IngestRequest = core.IngestRequest
type IngestResult = core.IngestResult
type IngestOutcome = core.IngestOutcome
type Ledger = core.Ledger
type LatestPayment = core.LatestPayment
type InboundEvent = core.InboundEvent
type Classification = core.Classification

type MarkerStore = core.MarkerStore
type LedgerStore = core.LedgerStore
type StoreProvider = core.StoreProvider
type Verifier = core.Verifier
type EventDecoder = core.EventDecoder
type Classifier = core.Classifier
type MetricsRecorder = core.MetricsRecorder

type Logger = core.Logger
type LoggerProvider = core.LoggerProvider
type ConfigProvider = core.ConfigProvider
type OptionsResolver = core.OptionsResolver

const (
	OutcomeApplied   = core.OutcomeApplied
	OutcomeRecorded  = core.OutcomeRecorded
	OutcomeIgnored   = core.OutcomeIgnored
	OutcomeDuplicate = core.OutcomeDuplicate
)

const DefaultSignatureHeader = core.DefaultSignatureHeader

func DefaultConfig() Config {
	return core.DefaultConfig()
}
