package telemetry

import (
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/posthog/posthog-go"
)

// Client sends anonymous usage events.
type Client interface {
	// Track enqueues an event and returns immediately. It is a no-op when
	// telemetry is disabled.
	Track(event string, properties Properties)

	// Close flushes pending events.
	Close() error
}

// Properties are event properties.
type Properties = map[string]any

// enqueuer is the part of the PostHog client we use; tests swap it out.
type enqueuer interface {
	io.Closer
	Enqueue(msg posthog.Message) error
}

// PostHogClient sends events to PostHog.
type PostHogClient struct {
	client      enqueuer
	config      *Config
	version     string
	mu          sync.RWMutex
	initialized bool
}

// ClientConfig configures NewPostHogClient.
type ClientConfig struct {
	APIKey  string
	Version string
	Config  *Config
	// Endpoint overrides the PostHog cloud endpoint for self-hosted setups.
	Endpoint string
}

// NewPostHogClient creates a client. Without an API key or consent config
// the client is returned uninitialized and drops every event.
func NewPostHogClient(cfg ClientConfig) (*PostHogClient, error) {
	if cfg.APIKey == "" || cfg.Config == nil {
		return &PostHogClient{config: cfg.Config, version: cfg.Version}, nil
	}

	phConfig := posthog.Config{
		BatchSize: 10,
		Interval:  1 * time.Second,
		Logger:    quietPostHogLogger{},
	}
	if cfg.Endpoint != "" {
		phConfig.Endpoint = cfg.Endpoint
	}

	client, err := posthog.NewWithConfig(cfg.APIKey, phConfig)
	if err != nil {
		return nil, err
	}
	return &PostHogClient{
		client:      client,
		config:      cfg.Config,
		version:     cfg.Version,
		initialized: true,
	}, nil
}

func newPostHogClientWithEnqueuer(enq enqueuer, cfg *Config, version string) *PostHogClient {
	return &PostHogClient{client: enq, config: cfg, version: version, initialized: true}
}

// Track enqueues event with the standard os/arch/version properties.
func (c *PostHogClient) Track(event string, properties Properties) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.initialized || c.config == nil || !c.config.IsEnabled() {
		return
	}

	props := posthog.NewProperties()
	for k, v := range properties {
		props.Set(k, v)
	}
	props.Set("os", runtime.GOOS)
	props.Set("arch", runtime.GOARCH)
	props.Set("cli_version", c.version)
	// No person profiles: events stay anonymous.
	props.Set("$process_person_profile", false)

	_ = c.client.Enqueue(posthog.Capture{
		DistinctId: c.config.AnonymousID,
		Event:      event,
		Properties: props,
	})
}

// Close flushes the PostHog queue.
func (c *PostHogClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// NoopClient drops every event.
type NoopClient struct{}

func (NoopClient) Track(string, Properties) {}
func (NoopClient) Close() error             { return nil }

// quietPostHogLogger keeps transport warnings out of CLI output.
type quietPostHogLogger struct{}

func (quietPostHogLogger) Debugf(string, ...interface{}) {}
func (quietPostHogLogger) Logf(string, ...interface{})   {}
func (quietPostHogLogger) Warnf(string, ...interface{})  {}
func (quietPostHogLogger) Errorf(string, ...interface{}) {}
