package view

import (
	"fmt"
	"slices"
	"time"

	"github.com/lguimbarda/min-view/view/core"
)

// maxPasses bounds the replays caused by triggers raised while a recompute
// is running.
const maxPasses = 16

// recompute replays the whole chain over the source's current content.
// Triggers arriving before the view is Ready are ignored. A trigger raised
// while a pass is running is queued and replayed once the pass finishes,
// so a single mutation never nests recomputes.
func (v *View[T]) recompute(trigger Trigger) error {
	v.mu.Lock()
	if v.state == Disposed || (v.state != Ready && trigger != TriggerInit) {
		v.mu.Unlock()
		return nil
	}
	if v.computing {
		v.pending = trigger
		v.mu.Unlock()
		return nil
	}
	v.computing = true
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		v.computing = false
		v.pending = ""
		v.mu.Unlock()
	}()

	for pass := 0; pass < maxPasses; pass++ {
		if err := v.pass(trigger); err != nil {
			return err
		}

		v.mu.Lock()
		next := v.pending
		v.pending = ""
		done := next == "" || v.state == Disposed
		v.mu.Unlock()
		if done {
			return nil
		}
		trigger = next
	}

	err := fmt.Errorf("view %s: %w after %d passes", v.id, ErrRecomputeLoop, maxPasses)
	v.log.Error(err, "recompute aborted")
	return err
}

// pass runs one full recompute: resolve, apply, replace, reconnect, notify.
func (v *View[T]) pass(trigger Trigger) error {
	v.mu.Lock()
	ops := slices.Clone(v.ops)
	v.mu.Unlock()

	start := time.Now()
	input := v.src.Items()
	out, deps, err := v.run(ops, input)

	stats := Stats{
		View:     v.id,
		Name:     v.opts.name,
		Trigger:  trigger,
		Stages:   len(ops),
		In:       len(input),
		Out:      len(out),
		Deps:     len(deps),
		Duration: time.Since(start),
	}

	if err != nil {
		v.log.Error(err, "recompute failed", "trigger", trigger, "stages", stats.Stages, "in", stats.In)
		v.opts.hooks.error(stats, err)
		return fmt.Errorf("view %s: %w", v.id, err)
	}

	v.mu.Lock()
	if v.state == Disposed {
		v.mu.Unlock()
		return nil
	}
	stale := v.conns
	v.items = out
	v.conns = nil
	if v.state == Initializing {
		v.state = Ready
	}
	v.mu.Unlock()

	stale.release()
	fresh := connect(deps, v.onDependency)

	v.mu.Lock()
	if v.state == Disposed {
		v.mu.Unlock()
		fresh.release()
		return nil
	}
	v.conns = fresh
	v.mu.Unlock()

	v.log.V(1).Info("recomputed",
		"trigger", trigger,
		"stages", stats.Stages,
		"in", stats.In,
		"out", stats.Out,
		"deps", stats.Deps,
		"duration", stats.Duration)
	v.opts.hooks.recompute(stats)

	return v.changes.Emit(core.Change[T]{Event: core.Reset, Items: slices.Clone(out)})
}

// run resolves every stage parameter, then applies the stages left to
// right starting from input. All reactive reads happen inside one tracking
// frame; the distinct values read are returned as deps.
func (v *View[T]) run(ops []Op[T], input []T) ([]T, []core.Dependency, error) {
	var out []T
	exec := func() error {
		stages := make([]stage[T], len(ops))
		for i, op := range ops {
			s, err := op.resolve()
			if err != nil {
				return fmt.Errorf("resolve stage %d (%s): %w", i, op.kind, err)
			}
			stages[i] = s
		}

		items := input
		for i, s := range stages {
			next, err := s(items)
			if err != nil {
				return fmt.Errorf("apply stage %d (%s): %w", i, ops[i].kind, err)
			}
			items = next
		}
		out = items
		return nil
	}

	if v.opts.recover {
		body := exec
		exec = func() error { return core.Recover(body) }
	}

	deps, err := core.Track(exec)
	if err != nil {
		return nil, deps, err
	}
	return out, deps, nil
}
