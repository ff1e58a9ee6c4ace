package shell

import "github.com/tailored-agentic-units/computer/observability"

// Shell session event types.
const (
	EventSessionStart observability.EventType = "shell.session.start"
	EventRunStart     observability.EventType = "shell.run.start"
	EventRunComplete  observability.EventType = "shell.run.complete"
	EventRunTimeout   observability.EventType = "shell.run.timeout"
	EventSessionExit  observability.EventType = "shell.session.exit"
	EventSessionStop  observability.EventType = "shell.session.stop"
)
