package messaging

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const unknownStage = "an unknown stage"

// DeployContext carries the facts about the current deployment that message
// templates interpolate. The hook runner records start and finish times on it
// as the deployment progresses.
type DeployContext struct {
	Application string
	Stage       string
	Branch      string
	Deployer    string
	Rollback    bool
	StartedAt   time.Time
	FinishedAt  time.Time
}

// DefaultDeployer reports the local user the way shells expose it.
func DefaultDeployer() string {
	for _, key := range []string{"USER", "USERNAME"} {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

// MarkStarted records the deployment start time.
func (d *DeployContext) MarkStarted(at time.Time) {
	if d == nil {
		return
	}
	d.StartedAt = at
}

// MarkFinished records the deployment finish time.
func (d *DeployContext) MarkFinished(at time.Time) {
	if d == nil {
		return
	}
	d.FinishedAt = at
}

func (d *DeployContext) application() string {
	if d == nil {
		return ""
	}
	return d.Application
}

func (d *DeployContext) branch() string {
	if d == nil {
		return ""
	}
	return d.Branch
}

func (d *DeployContext) stage() string {
	if d == nil || strings.TrimSpace(d.Stage) == "" {
		return unknownStage
	}
	return d.Stage
}

func (d *DeployContext) deployer() string {
	if d != nil && strings.TrimSpace(d.Deployer) != "" {
		return d.Deployer
	}
	return DefaultDeployer()
}

func (d *DeployContext) deploying() bool {
	return d == nil || !d.Rollback
}

// Elapsed returns the time between start and finish, or zero when either is
// missing or they are out of order.
func (d *DeployContext) Elapsed() time.Duration {
	if d == nil || d.StartedAt.IsZero() || d.FinishedAt.IsZero() {
		return 0
	}
	elapsed := d.FinishedAt.Sub(d.StartedAt)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// ElapsedTime renders Elapsed as MM:SS, switching to HH:MM:SS past an hour.
func (d *DeployContext) ElapsedTime() string {
	total := int(d.Elapsed() / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
