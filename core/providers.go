package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}

	webhook := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Webhook.Secret) != "" {
		webhook["secret"] = cfg.Webhook.Secret
	}
	if includeZero || len(cfg.Webhook.Secrets) > 0 {
		webhook["secrets"] = append([]string(nil), cfg.Webhook.Secrets...)
	}
	if includeZero || strings.TrimSpace(cfg.Webhook.SignatureHeader) != "" {
		webhook["signature_header"] = cfg.Webhook.SignatureHeader
	}
	if includeZero || cfg.Webhook.ToleranceSeconds != 0 {
		webhook["tolerance_seconds"] = cfg.Webhook.ToleranceSeconds
	}
	if len(webhook) > 0 {
		layer["webhook"] = webhook
	}

	ledger := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Ledger.TargetCurrency) != "" {
		ledger["target_currency"] = cfg.Ledger.TargetCurrency
	}
	if includeZero || cfg.Ledger.InitialTotalMinorUnits != 0 {
		ledger["initial_total_minor_units"] = cfg.Ledger.InitialTotalMinorUnits
	}
	if includeZero || cfg.Ledger.CASMaxAttempts != 0 {
		ledger["cas_max_attempts"] = cfg.Ledger.CASMaxAttempts
	}
	if len(ledger) > 0 {
		layer["ledger"] = ledger
	}

	dedup := map[string]any{}
	if includeZero || cfg.Dedup.RetentionDays != 0 {
		dedup["retention_days"] = cfg.Dedup.RetentionDays
	}
	if includeZero || cfg.Dedup.FailClosed {
		dedup["fail_closed"] = cfg.Dedup.FailClosed
	}
	if len(dedup) > 0 {
		layer["dedup"] = dedup
	}

	return layer
}
