package tally

import (
	"github.com/goliatone/go-tally/core"
)

type serviceBuilder struct {
	runtimeConfig     core.Config
	logger            core.Logger
	loggerProvider    core.LoggerProvider
	metricsRecorder   core.MetricsRecorder
	configProvider    core.ConfigProvider
	optionsResolver   core.OptionsResolver
	persistenceClient any
	repositoryFactory any
	storeProvider     core.StoreProvider
	markerStore       core.MarkerStore
	ledgerStore       core.LedgerStore
	verifier          core.Verifier
	decoder           core.EventDecoder
	classifier        core.Classifier
}

type Option func(*serviceBuilder)

func WithLogger(logger core.Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithConfigProvider(provider core.ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver core.OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

// WithPersistenceClient supplies the database client handed to the repository
// factory when stores are built from persistence.
func WithPersistenceClient(client any) Option {
	return func(b *serviceBuilder) {
		b.persistenceClient = client
	}
}

// WithRepositoryFactory supplies a factory that can build the marker and
// ledger stores, typically *sqlstore.RepositoryFactory.
func WithRepositoryFactory(factory any) Option {
	return func(b *serviceBuilder) {
		b.repositoryFactory = factory
	}
}

// WithStoreProvider supplies both stores at once, e.g. the Redis-backed
// provider.
func WithStoreProvider(provider core.StoreProvider) Option {
	return func(b *serviceBuilder) {
		b.storeProvider = provider
	}
}

func WithMarkerStore(store core.MarkerStore) Option {
	return func(b *serviceBuilder) {
		b.markerStore = store
	}
}

func WithLedgerStore(store core.LedgerStore) Option {
	return func(b *serviceBuilder) {
		b.ledgerStore = store
	}
}

func WithVerifier(verifier core.Verifier) Option {
	return func(b *serviceBuilder) {
		b.verifier = verifier
	}
}

func WithEventDecoder(decoder core.EventDecoder) Option {
	return func(b *serviceBuilder) {
		b.decoder = decoder
	}
}

func WithClassifier(classifier core.Classifier) Option {
	return func(b *serviceBuilder) {
		b.classifier = classifier
	}
}

func defaultServiceBuilder(runtime core.Config) serviceBuilder {
	return serviceBuilder{
		runtimeConfig:   runtime,
		metricsRecorder: core.NopMetricsRecorder{},
		configProvider:  core.NewCfgxConfigProvider(nil),
		optionsResolver: core.GoOptionsResolver{},
	}
}
