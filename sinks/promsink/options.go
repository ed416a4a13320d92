package promsink

import "github.com/prometheus/client_golang/prometheus"

// config holds the configuration for the sink.
type config struct {
	// Registerer receives the sink's collectors.
	// Defaults to prometheus.DefaultRegisterer. A nil registerer creates
	// the collectors without registering them.
	Registerer prometheus.Registerer

	// Namespace prefixes every metric name.
	// Defaults to "dbprobe".
	Namespace string
}

// newConfig creates a new config with defaults and applies options.
func newConfig(opts ...Option) *config {
	cfg := &config{
		Registerer: prometheus.DefaultRegisterer,
		Namespace:  "dbprobe",
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// Option configures the sink.
type Option func(*config)

// WithRegisterer sets the registry the sink's collectors register with.
// Use this to keep probe metrics rooted in a dedicated registry.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	sink := promsink.New(promsink.WithRegisterer(reg))
//	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(cfg *config) {
		cfg.Registerer = reg
	}
}

// WithNamespace sets the metric name prefix.
//
// Example:
//
//	// Metrics become billing_events_total, billing_connects_total, ...
//	sink := promsink.New(promsink.WithNamespace("billing"))
func WithNamespace(namespace string) Option {
	return func(cfg *config) {
		cfg.Namespace = namespace
	}
}
