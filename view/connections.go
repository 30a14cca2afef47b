package view

import "github.com/lguimbarda/min-view/view/core"

// connections maps every reactive value read during the last successful
// recompute to the subscription that retriggers the view.
type connections map[core.Dependency]*core.Subscription

// connect subscribes fn to each dependency. The result is always built
// from empty.
func connect(deps []core.Dependency, fn func() error) connections {
	c := make(connections, len(deps))
	for _, d := range deps {
		if _, ok := c[d]; ok {
			continue
		}
		c[d] = d.Subscribe(fn)
	}
	return c
}

// release detaches every subscription.
func (c connections) release() {
	for _, sub := range c {
		sub.Release()
	}
}
