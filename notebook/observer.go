package notebook

import "github.com/tailored-agentic-units/computer/observability"

// Notebook orchestration event types.
const (
	EventDocumentCreate observability.EventType = "notebook.document.create"
	EventDocumentLoad   observability.EventType = "notebook.document.load"
	EventDocumentDelete observability.EventType = "notebook.document.delete"
	EventCellExecute    observability.EventType = "notebook.cell.execute"
	EventExecuteAll     observability.EventType = "notebook.execute.all"
	EventPersistError   observability.EventType = "notebook.persist.error"
)
