// Package observe turns view lifecycle hooks into metrics and logs.
//
// The hooks returned here are installed with view.WithHooks:
//
//	hooks, err := observe.Metrics(otel.Meter("minview"))
//	if err != nil { ... }
//	v := view.Of(src, view.WithHooks(hooks))
package observe

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/lguimbarda/min-view/view"
)

// Instrument names
const (
	RecomputesName = "minview.recomputes"
	ErrorsName     = "minview.recompute.errors"
	DurationName   = "minview.recompute.duration"
	ItemsName      = "minview.items"
	DisposedName   = "minview.disposed"
)

// Metrics creates OpenTelemetry instruments on meter and returns hooks
// recording every recompute into them. Measurements carry the view id, its
// name and the trigger as attributes.
func Metrics(meter metric.Meter) (view.Hooks, error) {
	recomputes, err := meter.Int64Counter(RecomputesName,
		metric.WithDescription("completed view recomputes"))
	if err != nil {
		return view.Hooks{}, err
	}
	failures, err := meter.Int64Counter(ErrorsName,
		metric.WithDescription("failed view recomputes"))
	if err != nil {
		return view.Hooks{}, err
	}
	duration, err := meter.Float64Histogram(DurationName,
		metric.WithDescription("time spent replaying the stage chain"),
		metric.WithUnit("ms"))
	if err != nil {
		return view.Hooks{}, err
	}
	items, err := meter.Int64Histogram(ItemsName,
		metric.WithDescription("view size after a recompute"))
	if err != nil {
		return view.Hooks{}, err
	}
	disposed, err := meter.Int64Counter(DisposedName,
		metric.WithDescription("disposed views"))
	if err != nil {
		return view.Hooks{}, err
	}

	ctx := context.Background()
	return view.Hooks{
		OnRecompute: func(s view.Stats) {
			attrs := metric.WithAttributes(statsAttributes(s)...)
			recomputes.Add(ctx, 1, attrs)
			duration.Record(ctx, float64(s.Duration)/float64(time.Millisecond), attrs)
			items.Record(ctx, int64(s.Out), attrs)
		},
		OnError: func(s view.Stats, _ error) {
			failures.Add(ctx, 1, metric.WithAttributes(statsAttributes(s)...))
		},
		OnDispose: func(id uuid.UUID) {
			disposed.Add(ctx, 1, metric.WithAttributes(attribute.String("view.id", id.String())))
		},
	}, nil
}

func statsAttributes(s view.Stats) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("view.id", s.View.String()),
		attribute.String("view.trigger", string(s.Trigger)),
	}
	if s.Name != "" {
		attrs = append(attrs, attribute.String("view.name", s.Name))
	}
	return attrs
}

// Counter counts lifecycle events. It can be read concurrently.
type Counter struct {
	recomputes atomic.Int64
	errors     atomic.Int64
	disposed   atomic.Int64

	mu       sync.Mutex
	last     view.Stats
	lastErr  error
	triggers map[view.Trigger]int64
}

// Hooks returns hooks feeding c.
func (c *Counter) Hooks() view.Hooks {
	return view.Hooks{
		OnRecompute: func(s view.Stats) {
			c.recomputes.Add(1)
			c.mu.Lock()
			c.last = s
			if c.triggers == nil {
				c.triggers = make(map[view.Trigger]int64)
			}
			c.triggers[s.Trigger]++
			c.mu.Unlock()
		},
		OnError: func(s view.Stats, err error) {
			c.errors.Add(1)
			c.mu.Lock()
			c.lastErr = err
			c.mu.Unlock()
		},
		OnDispose: func(uuid.UUID) { c.disposed.Add(1) },
	}
}

// Recomputes returns the number of completed recomputes.
func (c *Counter) Recomputes() int64 { return c.recomputes.Load() }

// Errors returns the number of failed recomputes.
func (c *Counter) Errors() int64 { return c.errors.Load() }

// Disposed returns the number of disposed views.
func (c *Counter) Disposed() int64 { return c.disposed.Load() }

// Triggered returns how many completed recomputes had trigger t.
func (c *Counter) Triggered(t view.Trigger) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.triggers[t]
}

// Last returns the stats of the most recent completed recompute.
func (c *Counter) Last() view.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// LastError returns the error of the most recent failed recompute.
func (c *Counter) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Log returns hooks writing one line per recompute to log at the given
// verbosity, and failures as errors.
func Log(log logr.Logger, verbosity int) view.Hooks {
	return view.Hooks{
		OnRecompute: func(s view.Stats) {
			log.V(verbosity).Info("view recomputed",
				"view", s.View.String(),
				"name", s.Name,
				"trigger", s.Trigger,
				"in", s.In,
				"out", s.Out,
				"duration", s.Duration)
		},
		OnError: func(s view.Stats, err error) {
			log.Error(err, "view recompute failed", "view", s.View.String(), "name", s.Name, "trigger", s.Trigger)
		},
		OnDispose: func(id uuid.UUID) {
			log.V(verbosity).Info("view disposed", "view", id.String())
		},
	}
}
