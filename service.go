// Package tally ingests payment-processor webhooks into an idempotent
// running-total ledger. Deliveries are signed and at-least-once; the service
// verifies, deduplicates, and applies each event exactly once before
// acknowledging it.
package tally

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-tally/core"
	"github.com/goliatone/go-tally/webhooks"
)

// StoreFactory builds persistent stores from a persistence client.
// *sqlstore.RepositoryFactory satisfies it.
type StoreFactory interface {
	BuildStores(persistenceClient any) (core.StoreProvider, error)
}

type Service struct {
	config          core.Config
	logger          core.Logger
	loggerProvider  core.LoggerProvider
	metricsRecorder core.MetricsRecorder
	configProvider  core.ConfigProvider
	optionsResolver core.OptionsResolver

	persistenceClient any
	repositoryFactory any

	markerStore core.MarkerStore
	ledgerStore core.LedgerStore
	processor   *webhooks.Processor
}

// ServiceDependencies exposes the resolved collaborators for downstream
// composition.
type ServiceDependencies struct {
	Logger          core.Logger
	LoggerProvider  core.LoggerProvider
	MetricsRecorder core.MetricsRecorder
	ConfigProvider  core.ConfigProvider
	OptionsResolver core.OptionsResolver
	MarkerStore     core.MarkerStore
	LedgerStore     core.LedgerStore
}

func NewService(cfg core.Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("tally", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("tally"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = core.NopMetricsRecorder{}
	}
	if builder.configProvider == nil {
		builder.configProvider = core.NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = core.GoOptionsResolver{}
	}

	defaults := core.DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, core.MapError(err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, core.MapError(err)
	}

	if builder.storeProvider != nil {
		if builder.markerStore == nil {
			builder.markerStore = builder.storeProvider.MarkerStore()
		}
		if builder.ledgerStore == nil {
			builder.ledgerStore = builder.storeProvider.LedgerStore()
		}
	}
	if (builder.markerStore == nil || builder.ledgerStore == nil) && builder.repositoryFactory != nil {
		if factory, ok := builder.repositoryFactory.(StoreFactory); ok {
			storeProvider, buildErr := factory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, core.MapError(buildErr)
			}
			if storeProvider != nil {
				if builder.markerStore == nil {
					builder.markerStore = storeProvider.MarkerStore()
				}
				if builder.ledgerStore == nil {
					builder.ledgerStore = storeProvider.LedgerStore()
				}
			}
		} else if storeProvider, ok := builder.repositoryFactory.(core.StoreProvider); ok {
			if builder.markerStore == nil {
				builder.markerStore = storeProvider.MarkerStore()
			}
			if builder.ledgerStore == nil {
				builder.ledgerStore = storeProvider.LedgerStore()
			}
		}
	}

	markerTTL := time.Duration(finalConfig.Dedup.RetentionDays) * 24 * time.Hour
	if builder.markerStore == nil {
		builder.markerStore = core.NewMemoryMarkerStore(markerTTL)
	}
	if builder.ledgerStore == nil {
		builder.ledgerStore = core.NewMemoryLedgerStore(finalConfig.Ledger.InitialTotalMinorUnits)
	}

	if builder.verifier == nil {
		builder.verifier = webhooks.NewSignatureVerifier(
			finalConfig.SigningSecrets(),
			time.Duration(finalConfig.Webhook.ToleranceSeconds)*time.Second,
		)
	}
	if builder.decoder == nil {
		builder.decoder = webhooks.NewPaymentEventDecoder()
	}
	if builder.classifier == nil {
		builder.classifier = webhooks.NewEventClassifier(finalConfig.Ledger.TargetCurrency)
	}

	processor := webhooks.NewProcessor(
		builder.verifier,
		builder.decoder,
		builder.classifier,
		builder.markerStore,
		builder.ledgerStore,
		webhooks.WithProcessorLogger(logger),
		webhooks.WithMarkerTTL(markerTTL),
		webhooks.WithFailClosedDedup(finalConfig.Dedup.FailClosed),
	)

	return &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		markerStore:       builder.markerStore,
		ledgerStore:       builder.ledgerStore,
		processor:         processor,
	}, nil
}

// Setup is an alias for NewService for wiring frameworks that expect a setup
// entry point.
func Setup(cfg core.Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func (s *Service) Config() core.Config {
	if s == nil {
		return core.Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		MetricsRecorder: s.metricsRecorder,
		ConfigProvider:  s.configProvider,
		OptionsResolver: s.optionsResolver,
		MarkerStore:     s.markerStore,
		LedgerStore:     s.ledgerStore,
	}
}

// IngestEvent runs one webhook delivery through verification, duplicate
// suppression, and ledger application. The result carries the HTTP status the
// transport should return, including on error.
func (s *Service) IngestEvent(ctx context.Context, req core.IngestRequest) (result core.IngestResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		if result.Metadata != nil {
			if eventID, ok := result.Metadata["event_id"]; ok {
				fields["event_id"] = eventID
			}
			if eventType, ok := result.Metadata["event_type"]; ok {
				fields["event_type"] = eventType
			}
		}
		fields["outcome"] = string(result.Outcome)
		s.observeOperation(ctx, startedAt, "ingest_event", err, fields)
	}()

	if s == nil || s.processor == nil {
		err = core.StorageError(nil, "tally: service is not configured", nil)
		return core.IngestResult{StatusCode: 500}, err
	}
	return s.processor.Process(ctx, req)
}

// GetLedger returns the current total and the latest-payment snapshot. A
// failed snapshot read degrades to a ledger without one; the total is the
// contract.
func (s *Service) GetLedger(ctx context.Context) (core.Ledger, error) {
	if s == nil || s.ledgerStore == nil {
		return core.Ledger{}, core.StorageError(nil, "tally: ledger store is not configured", nil)
	}
	total, err := s.ledgerStore.ReadTotal(ctx)
	if err != nil {
		return core.Ledger{}, core.MapError(err)
	}
	latest, err := s.ledgerStore.ReadLatestPayment(ctx)
	if err != nil {
		s.logger.Warn("latest payment read degraded", "error", err)
		latest = nil
	}
	return core.Ledger{TotalMinorUnits: total, LatestPayment: latest}, nil
}

// GetTotal returns the raw minor-unit total.
func (s *Service) GetTotal(ctx context.Context) (int64, error) {
	if s == nil || s.ledgerStore == nil {
		return 0, core.StorageError(nil, "tally: ledger store is not configured", nil)
	}
	total, err := s.ledgerStore.ReadTotal(ctx)
	if err != nil {
		return 0, core.MapError(err)
	}
	return total, nil
}

// PurgeExpiredMarkers removes dedup markers past their retention window.
func (s *Service) PurgeExpiredMarkers(ctx context.Context) (purged int, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "purge_markers", err, map[string]any{
			"purged": purged,
		})
	}()

	if s == nil || s.markerStore == nil {
		err = core.StorageError(nil, "tally: marker store is not configured", nil)
		return 0, err
	}
	purged, err = s.markerStore.PurgeExpired(ctx)
	if err != nil {
		err = core.MapError(err)
		return 0, err
	}
	return purged, nil
}
