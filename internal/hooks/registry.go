package hooks

import (
	"context"
	"sync"
)

// Deployment tasks the stock hooks attach to.
const (
	TaskStarting          = "deploy:starting"
	TaskUpdating          = "deploy:updating"
	TaskReverting         = "deploy:reverting"
	TaskFinishing         = "deploy:finishing"
	TaskFinishingRollback = "deploy:finishing_rollback"
	TaskFailed            = "deploy:failed"
)

// Callback runs around a task. Callbacks cannot fail the task.
type Callback func(ctx context.Context)

// Registry holds before/after callbacks keyed by task name.
type Registry struct {
	mu     sync.RWMutex
	before map[string][]Callback
	after  map[string][]Callback
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		before: make(map[string][]Callback),
		after:  make(map[string][]Callback),
	}
}

// Before registers cb to run ahead of task.
func (r *Registry) Before(task string, cb Callback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.before[task] = append(r.before[task], cb)
}

// After registers cb to run once task succeeded.
func (r *Registry) After(task string, cb Callback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.after[task] = append(r.after[task], cb)
}

// Invoke runs the before callbacks for task, then fn, then the after
// callbacks. A failing fn skips the after callbacks and returns its error.
func (r *Registry) Invoke(ctx context.Context, task string, fn func(context.Context) error) error {
	r.fire(ctx, r.callbacks(r.before, task))
	if fn != nil {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	r.fire(ctx, r.callbacks(r.after, task))
	return nil
}

// Registered reports how many callbacks are attached to task.
func (r *Registry) Registered(task string) (before, after int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.before[task]), len(r.after[task])
}

func (r *Registry) callbacks(set map[string][]Callback, task string) []Callback {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Callback, len(set[task]))
	copy(out, set[task])
	return out
}

func (r *Registry) fire(ctx context.Context, callbacks []Callback) {
	for _, cb := range callbacks {
		cb(ctx)
	}
}
