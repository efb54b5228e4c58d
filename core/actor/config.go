package actor

import (
	"context"
	"log/slog"
	"net"
	"runtime"
	"strconv"
	"time"
)

// Config is read once by [NewActorSystem] and never changed afterwards.
type Config struct {
	// Name is a diagnostic label added to every log line of the system.
	Name string `mapstructure:"name"`
	// WorkerThreads caps the background tasks an actor runs through
	// Context.Schedule at the same time. Actor loops themselves are started
	// on the [Executor]; the default leaves their scheduling to the Go
	// runtime, a pooled executor passed with [WithExecutor] can bound them.
	WorkerThreads int `mapstructure:"worker_threads"`
	// Host and Port form the system address used by the remote extension.
	// Host "nohost" (or empty) keeps the system local-only.
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// A zero DeadLetterThrottleInterval or DeadLetterThrottleCount turns
	// dead letter throttling off.
	DeadLetterThrottleInterval  time.Duration `mapstructure:"dead_letter_throttle_interval"`
	DeadLetterThrottleCount     int           `mapstructure:"dead_letter_throttle_count"`
	DeadLetterRequestLogging    bool          `mapstructure:"dead_letter_request_logging"`
	DeveloperSupervisionLogging bool          `mapstructure:"developer_supervision_logging"`
	MetricsEnabled              bool          `mapstructure:"metrics_enabled"`
}

// DefaultConfig returns the configuration of a local-only system.
func DefaultConfig() Config {
	return Config{
		Name:                       "local",
		WorkerThreads:              runtime.NumCPU(),
		Host:                       NoHost,
		DeadLetterThrottleInterval: time.Second,
		DeadLetterThrottleCount:    10,
		DeadLetterRequestLogging:   true,
	}
}

// Address returns the locator stored in PID.Address for this system.
func (c Config) Address() string {
	if c.Host == "" || c.Host == NoHost {
		return NoHost
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.WorkerThreads <= 0 {
		c.WorkerThreads = d.WorkerThreads
	}
	if c.Host == "" {
		c.Host = d.Host
	}
	return c
}

// OnPanic is called after a handler panic was recovered.
type OnPanic func(pid PID, recovered any, stack []byte, msg any)

type options struct {
	ctx      context.Context
	log      *slog.Logger
	metrics  ActorMetrics
	executor Executor
	onPanic  OnPanic
}

// Option configures the collaborators of an [ActorSystem].
type Option func(*options)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics sets the metrics backend. It is only used when
// Config.MetricsEnabled is set.
func WithMetrics(m ActorMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithExecutor sets the executor actor loops are started on.
func WithExecutor(e Executor) Option {
	return func(o *options) { o.executor = e }
}

// WithContext sets the parent context of the system. Cancelling it cancels
// every actor context but does not stop the actors; use Shutdown for that.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// WithOnPanic sets the callback invoked for recovered handler panics.
func WithOnPanic(f OnPanic) Option {
	return func(o *options) { o.onPanic = f }
}
