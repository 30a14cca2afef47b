package core

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// Dependency is a reactive value whose changes can be observed.
// Implementations must be comparable (pointer types in practice) since
// dependencies are deduplicated by identity.
type Dependency interface {
	Subscribe(fn func() error) *Subscription
}

// frame collects the dependencies read during one Track call. A nil frame
// on a stack masks the frames below it (see Untracked).
type frame struct {
	deps []Dependency
	seen map[Dependency]struct{}
}

// Tracking frames are scoped to the goroutine that pushed them. A view
// evaluates on the goroutine that mutates its source, so reads made by
// another goroutine never land in its frame.
var tracking struct {
	mu     sync.Mutex
	stacks map[uint64][]*frame
	active atomic.Int64
}

// Track runs fn and returns the distinct dependencies read while it ran,
// in first-read order. Nested Track calls record into their own frame
// only.
func Track(fn func() error) ([]Dependency, error) {
	f := &frame{seen: make(map[Dependency]struct{})}
	gid := push(f)
	defer pop(gid, f)

	err := fn()
	return f.deps, err
}

// Untracked runs fn without recording any reads into the enclosing frame.
func Untracked(fn func()) {
	gid := push(nil)
	defer pop(gid, nil)

	fn()
}

// Touch records d as read in the innermost frame of the calling
// goroutine, if any.
func Touch(d Dependency) {
	if tracking.active.Load() == 0 {
		return
	}
	gid := goroutineID()

	tracking.mu.Lock()
	defer tracking.mu.Unlock()
	stack := tracking.stacks[gid]
	if len(stack) == 0 {
		return
	}
	f := stack[len(stack)-1]
	if f == nil {
		return
	}
	if _, ok := f.seen[d]; ok {
		return
	}
	f.seen[d] = struct{}{}
	f.deps = append(f.deps, d)
}

func push(f *frame) uint64 {
	gid := goroutineID()
	tracking.mu.Lock()
	if tracking.stacks == nil {
		tracking.stacks = make(map[uint64][]*frame)
	}
	tracking.stacks[gid] = append(tracking.stacks[gid], f)
	tracking.mu.Unlock()
	tracking.active.Add(1)
	return gid
}

func pop(gid uint64, f *frame) {
	tracking.mu.Lock()
	stack := tracking.stacks[gid]
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == f {
			stack = append(stack[:i], stack[i+1:]...)
			break
		}
	}
	if len(stack) == 0 {
		delete(tracking.stacks, gid)
	} else {
		tracking.stacks[gid] = stack
	}
	tracking.mu.Unlock()
	tracking.active.Add(-1)
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID parses the current goroutine's id from its stack header,
// "goroutine 42 [running]:".
func goroutineID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		panic("core: cannot parse goroutine id: " + err.Error())
	}
	return id
}

// Tracking reports whether the calling goroutine has an active frame that
// records reads.
func Tracking() bool {
	if tracking.active.Load() == 0 {
		return false
	}
	gid := goroutineID()
	tracking.mu.Lock()
	defer tracking.mu.Unlock()
	stack := tracking.stacks[gid]
	return len(stack) > 0 && stack[len(stack)-1] != nil
}
