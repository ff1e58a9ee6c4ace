// Package notebook owns the document orchestration layer: documents group
// ordered cells against one bound kernel session, the Service sequences
// their execution with fail-fast semantics, and every mutation is persisted
// through the cell-based interchange codec.
package notebook

import (
	"time"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/computer/core/exec"
)

// CellType is the kind of a cell. Only code cells execute.
type CellType string

const (
	CellCode     CellType = "code"
	CellMarkdown CellType = "markdown"
	CellRaw      CellType = "raw"
)

// Valid reports whether t is one of the declared cell types.
func (t CellType) Valid() bool {
	switch t {
	case CellCode, CellMarkdown, CellRaw:
		return true
	}
	return false
}

// CellStatus is the execution status of a cell.
type CellStatus string

const (
	StatusIdle     CellStatus = "idle"
	StatusRunning  CellStatus = "running"
	StatusComplete CellStatus = "complete"
	StatusError    CellStatus = "error"
)

// Cell is one unit of source text plus its latest execution outcome.
// Outputs, ExecutionCount, and Error are carried by code cells only and are
// fully replaced on each execution — never appended to across runs.
type Cell struct {
	ID             string         `json:"id"`
	Type           CellType       `json:"type"`
	Source         string         `json:"source"`
	ExecutionCount *int           `json:"execution_count,omitempty"`
	Outputs        []exec.Output  `json:"outputs,omitempty"`
	Status         CellStatus     `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	ExecutedAt     *time.Time     `json:"executed_at,omitempty"`
	Error          *exec.Error    `json:"error,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// NewCell creates an idle cell with a fresh identifier.
func NewCell(cellType CellType, source string, metadata map[string]any) *Cell {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Cell{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Type:      cellType,
		Source:    source,
		Status:    StatusIdle,
		CreatedAt: time.Now(),
		Metadata:  metadata,
	}
}

// clearOutput resets the cell to its never-executed shape.
func (c *Cell) clearOutput() {
	c.Outputs = nil
	c.ExecutionCount = nil
	c.Error = nil
	c.ExecutedAt = nil
	c.Status = StatusIdle
}

// Document is an ordered collection of cells bound to one kernel kind.
// Cell order is meaningful: it defines execution order. Identity is
// immutable after creation and UpdatedAt strictly increases on any mutation
// of the document or a contained cell.
type Document struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	KernelName string         `json:"kernel_name"`
	Cells      []*Cell        `json:"cells"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewDocument creates an empty document bound to the given kernel kind.
func NewDocument(name, kernelName string) *Document {
	now := time.Now()
	return &Document{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Name:       name,
		KernelName: kernelName,
		CreatedAt:  now,
		UpdatedAt:  now,
		Metadata:   map[string]any{},
	}
}

// touch advances UpdatedAt, strictly: wall clocks can stand still between
// two mutations, so a non-advancing read is nudged forward instead.
func (d *Document) touch() {
	now := time.Now()
	if !now.After(d.UpdatedAt) {
		now = d.UpdatedAt.Add(time.Nanosecond)
	}
	d.UpdatedAt = now
}

// cell returns the cell with the given id, or nil.
func (d *Document) cell(id string) *Cell {
	for _, c := range d.Cells {
		if c.ID == id {
			return c
		}
	}
	return nil
}
