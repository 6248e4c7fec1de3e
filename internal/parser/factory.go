package parser

import (
	"fmt"

	"solarops/internal/config"
	"solarops/internal/port"
)

// Provider is a model backend usable for field extraction and free-text completion.
type Provider interface {
	port.FieldExtractor
	port.TextCompleter
}

// ProviderFactory is a function that creates a Provider from a provider config.
type ProviderFactory func(cfg *config.ParserProviderConfig) (Provider, error)

// registry of provider factories, populated by each provider package
// or explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewProvider creates a Provider from a provider config using the registered factory.
func NewProvider(cfg *config.ParserProviderConfig) (Provider, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown parser provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// NewFromConfig builds the configured alternate strategy: a single provider,
// or a fallback/merge combination when a secondary is configured.
func NewFromConfig(cfg *config.ParserConfig) (Provider, error) {
	primary, err := NewProvider(cfg.PrimaryConfig())
	if err != nil {
		return nil, fmt.Errorf("creating primary provider: %w", err)
	}
	sec := cfg.SecondaryConfig()
	if sec == nil {
		return primary, nil
	}
	secondary, err := NewProvider(sec)
	if err != nil {
		return nil, fmt.Errorf("creating secondary provider: %w", err)
	}
	if cfg.Mode == "merge" {
		return NewMergeExtractor(primary, secondary), nil
	}
	return NewFallbackExtractor(
		[]Provider{primary, secondary},
		[]string{cfg.PrimaryConfig().Provider, sec.Provider},
	), nil
}
