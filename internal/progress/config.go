package progress

import (
	"io"

	"github.com/fyrsmithlabs/agentmesh/internal/config"
	"github.com/fyrsmithlabs/agentmesh/internal/logging"
	"github.com/fyrsmithlabs/agentmesh/internal/workflow"
	"github.com/nats-io/nats.go"
)

// FromConfig assembles the notifiers enabled in cfg. console receives the
// console output and may be nil to disable it regardless of cfg; nc may be
// nil when NATS is disabled.
func FromConfig(cfg config.NotificationsConfig, console io.Writer, nc *nats.Conn, logger *logging.Logger) workflow.Notifier {
	var notifiers []workflow.Notifier
	if cfg.Console && console != nil {
		notifiers = append(notifiers, NewConsole(console))
	}
	if cfg.Log && logger != nil {
		notifiers = append(notifiers, NewLog(logger))
	}
	if cfg.NATS.Enabled && nc != nil {
		notifiers = append(notifiers, NewPublisher(nc, cfg.NATS.SubjectPrefix, logger))
	}
	return Combine(notifiers...)
}
