package hooks

import (
	"context"
	"time"

	"slackistrano/internal/messaging"
)

// Notifier is the part of the dispatcher the hooks call into.
type Notifier interface {
	Process(ctx context.Context, event messaging.Event)
}

// Install attaches the stock notifications to registry. Start and finish
// times are recorded on deploy so messages can report elapsed time. A nil now
// uses time.Now.
func Install(registry *Registry, notifier Notifier, deploy *messaging.DeployContext, now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	notify := func(event messaging.Event, mark func(time.Time)) Callback {
		return func(ctx context.Context) {
			if mark != nil {
				mark(now())
			}
			notifier.Process(ctx, event)
		}
	}

	registry.Before(TaskStarting, notify(messaging.EventStarting, nil))
	registry.Before(TaskUpdating, notify(messaging.EventUpdating, deploy.MarkStarted))
	registry.Before(TaskReverting, notify(messaging.EventReverting, deploy.MarkStarted))
	registry.After(TaskFinishing, notify(messaging.EventUpdated, deploy.MarkFinished))
	registry.After(TaskFinishingRollback, notify(messaging.EventReverted, deploy.MarkFinished))
	registry.After(TaskFailed, notify(messaging.EventFailed, deploy.MarkFinished))
}

// TestTasks lists the tasks fired, in order, by a notification test run: every
// stock event once.
func TestTasks() []string {
	return []string{TaskStarting, TaskUpdating, TaskReverting, TaskFinishing, TaskFinishingRollback, TaskFailed}
}

// RunTestSequence fires every stock notification once.
func RunTestSequence(ctx context.Context, registry *Registry) {
	for _, task := range TestTasks() {
		_ = registry.Invoke(ctx, task, nil)
	}
}
