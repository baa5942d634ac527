package core

import (
	"fmt"
	"strings"
)

type WebhookConfig struct {
	// Secret is the primary shared signing secret. Secrets lists additional
	// accepted secrets during rotation windows.
	Secret           string   `koanf:"secret" mapstructure:"secret"`
	Secrets          []string `koanf:"secrets" mapstructure:"secrets"`
	SignatureHeader  string   `koanf:"signature_header" mapstructure:"signature_header"`
	ToleranceSeconds int      `koanf:"tolerance_seconds" mapstructure:"tolerance_seconds"`
}

type LedgerConfig struct {
	TargetCurrency string `koanf:"target_currency" mapstructure:"target_currency"`
	// InitialTotalMinorUnits is returned by the read path before the total
	// key has ever been written. It is explicit configuration, not a
	// constant baked into the reader.
	InitialTotalMinorUnits int64 `koanf:"initial_total_minor_units" mapstructure:"initial_total_minor_units"`
	CASMaxAttempts         int   `koanf:"cas_max_attempts" mapstructure:"cas_max_attempts"`
}

type DedupConfig struct {
	RetentionDays int `koanf:"retention_days" mapstructure:"retention_days"`
	// FailClosed rejects events with a retryable error when the marker store
	// is unreachable during the duplicate check. The default (false) fails
	// open and treats the event as new, matching the upstream behavior at
	// the cost of a possible duplicate application.
	FailClosed bool `koanf:"fail_closed" mapstructure:"fail_closed"`
}

type Config struct {
	ServiceName string        `koanf:"service_name" mapstructure:"service_name"`
	Webhook     WebhookConfig `koanf:"webhook" mapstructure:"webhook"`
	Ledger      LedgerConfig  `koanf:"ledger" mapstructure:"ledger"`
	Dedup       DedupConfig   `koanf:"dedup" mapstructure:"dedup"`
}

// DefaultSignatureHeader is the HTTP header carrying the payload signature.
const DefaultSignatureHeader = "Tally-Signature"

const (
	defaultToleranceSeconds = 1800
	defaultTargetCurrency   = "aud"
	defaultCASMaxAttempts   = 5
	defaultRetentionDays    = 14
)

func DefaultConfig() Config {
	return Config{
		ServiceName: "tally",
		Webhook: WebhookConfig{
			SignatureHeader:  DefaultSignatureHeader,
			ToleranceSeconds: defaultToleranceSeconds,
		},
		Ledger: LedgerConfig{
			TargetCurrency: defaultTargetCurrency,
			CASMaxAttempts: defaultCASMaxAttempts,
		},
		Dedup: DedupConfig{
			RetentionDays: defaultRetentionDays,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Webhook.ToleranceSeconds < 0 {
		return fmt.Errorf("core: webhook.tolerance_seconds must not be negative")
	}
	if strings.TrimSpace(c.Ledger.TargetCurrency) == "" {
		return fmt.Errorf("core: ledger.target_currency is required")
	}
	if c.Ledger.InitialTotalMinorUnits < 0 {
		return fmt.Errorf("core: ledger.initial_total_minor_units must not be negative")
	}
	if c.Ledger.CASMaxAttempts < 1 {
		return fmt.Errorf("core: ledger.cas_max_attempts must be at least 1")
	}
	if c.Dedup.RetentionDays < 1 {
		return fmt.Errorf("core: dedup.retention_days must be at least 1")
	}
	return nil
}

// SigningSecrets returns the ordered list of accepted secrets, primary first.
func (c Config) SigningSecrets() []string {
	secrets := make([]string, 0, len(c.Webhook.Secrets)+1)
	if secret := strings.TrimSpace(c.Webhook.Secret); secret != "" {
		secrets = append(secrets, secret)
	}
	for _, secret := range c.Webhook.Secrets {
		if trimmed := strings.TrimSpace(secret); trimmed != "" {
			secrets = append(secrets, trimmed)
		}
	}
	return secrets
}
