// Package feed delivers topology snapshots from outside the frame loop: a
// polled snapshot file or an NNG publish/subscribe stream.
package feed

import (
	"context"
	"time"

	"github.com/dd0wney/topomap/pkg/logging"
	"github.com/dd0wney/topomap/pkg/metrics"
	"github.com/dd0wney/topomap/pkg/topology"
	"github.com/dd0wney/topomap/pkg/validation"
)

// Message status label values.
const (
	StatusOK          = "ok"
	StatusDecodeError = "decode_error"
	StatusReadError   = "read_error"
)

// Source produces snapshots until ctx is done. deliver is called from the
// source's goroutine and must not block for long; View.Submit is a suitable
// target.
type Source interface {
	Name() string
	Run(ctx context.Context, deliver func(topology.Snapshot)) error
}

// Config selects and tunes the snapshot feeds.
type Config struct {
	File         string        `yaml:"file" toml:"file"`
	PollInterval time.Duration `yaml:"poll_interval" toml:"poll_interval"`
	Address      string        `yaml:"address" toml:"address"`
	Topic        string        `yaml:"topic" toml:"topic"`
	Compress     bool          `yaml:"compress" toml:"compress"` // publish snappy-compressed bodies
	RecvTimeout  time.Duration `yaml:"recv_timeout" toml:"recv_timeout"`
}

// DefaultConfig returns the stock feed settings with no source selected.
func DefaultConfig() Config {
	return Config{
		PollInterval: time.Second,
		RecvTimeout:  time.Second,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.NewConfigValidator("feed").
		MinDuration("poll_interval", c.PollInterval, 10*time.Millisecond).
		RangeDuration("recv_timeout", c.RecvTimeout, 10*time.Millisecond, time.Minute).
		Validate()
}

// Sources builds the sources the configuration selects.
func (c *Config) Sources(opts ...Option) []Source {
	var out []Source
	if c.File != "" {
		out = append(out, NewFileSource(c.File, c.PollInterval, opts...))
	}
	if c.Address != "" {
		out = append(out, NewNNGSource(c.Address, c.Topic, c.RecvTimeout, opts...))
	}
	return out
}

type options struct {
	logger  logging.Logger
	metrics *metrics.Registry
}

// Option configures a source.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics counts received messages.
func WithMetrics(r *metrics.Registry) Option {
	return func(o *options) { o.metrics = r }
}

func newOptions(source string, opts []Option) options {
	o := options{logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.With(logging.Component("feed"), logging.Source(source))
	return o
}

func (o *options) record(source, status string) {
	if o.metrics != nil {
		o.metrics.RecordFeedMessage(source, status)
	}
}

// logDiagnostics reports records the decoder skipped.
func (o *options) logDiagnostics(diags []error) {
	for _, d := range diags {
		o.logger.Warn("snapshot record skipped", logging.Error(d))
	}
}
