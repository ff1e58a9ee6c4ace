package kernel

import "github.com/tailored-agentic-units/computer/observability"

// Kernel session event types.
const (
	EventSessionStart    observability.EventType = "kernel.session.start"
	EventExecuteStart    observability.EventType = "kernel.execute.start"
	EventExecuteComplete observability.EventType = "kernel.execute.complete"
	EventExecuteTimeout  observability.EventType = "kernel.execute.timeout"
	EventSessionShutdown observability.EventType = "kernel.session.shutdown"
)
