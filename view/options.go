package view

import "github.com/go-logr/logr"

// Option configures a View.
type Option func(*options)

type options struct {
	name    string
	log     logr.Logger
	hooks   hookSet
	recover bool
}

func defaultOptions() options {
	return options{log: logr.Discard()}
}

// WithName labels the view in logs and metrics.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger. Recomputes are logged at V(1), failures as
// errors. The default discards everything.
func WithLogger(log logr.Logger) Option {
	return func(o *options) {
		if log.GetSink() != nil {
			o.log = log
		}
	}
}

// WithHooks registers lifecycle hooks. Multiple calls compose in FIFO order.
func WithHooks(h Hooks) Option {
	return func(o *options) { o.hooks = append(o.hooks, h) }
}

// WithRecover converts panics raised by predicates and comparators into
// core.ErrPanic errors returned to the mutating caller. Without it panics
// propagate unchanged.
func WithRecover() Option {
	return func(o *options) { o.recover = true }
}
