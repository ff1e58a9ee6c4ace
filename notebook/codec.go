package notebook

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tailored-agentic-units/computer/core/exec"
)

// The artifact is the standard cell-based interchange format: version
// markers, top-level metadata carrying kernel identity, and an ordered
// array of cell records with source split into terminator-preserving lines.
const (
	formatMajor = 4
	formatMinor = 5
)

type artifact struct {
	Format      int            `json:"nbformat"`
	FormatMinor int            `json:"nbformat_minor"`
	Metadata    map[string]any `json:"metadata"`
	Cells       []artifactCell `json:"cells"`
}

type artifactCell struct {
	CellType string         `json:"cell_type"`
	Metadata map[string]any `json:"metadata"`
	Source   []string       `json:"source"`

	// Code cells only.
	Outputs        []exec.Output `json:"outputs,omitempty"`
	ExecutionCount *int          `json:"execution_count,omitempty"`
}

// kernelspec mirrors the identity block consumers expect under
// metadata.kernelspec.
type kernelspec struct {
	Name        string `json:"name"`
	Language    string `json:"language"`
	DisplayName string `json:"display_name"`
}

// documentMeta preserves the fields of Document that the interchange format
// has no native home for, so a decode restores the same document.
type documentMeta struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Encode serializes a document to the interchange format. Source text is
// split into lines with terminators kept verbatim so whitespace and
// newlines survive the round trip byte for byte.
func Encode(doc *Document) ([]byte, error) {
	cells := make([]artifactCell, 0, len(doc.Cells))
	for _, cell := range doc.Cells {
		record := artifactCell{
			CellType: string(cell.Type),
			Metadata: cell.Metadata,
			Source:   splitLines(cell.Source),
		}
		if record.Metadata == nil {
			record.Metadata = map[string]any{}
		}
		if cell.Type == CellCode {
			record.Outputs = cell.Outputs
			record.ExecutionCount = cell.ExecutionCount
		}
		cells = append(cells, record)
	}

	metadata := map[string]any{
		"kernelspec": kernelspec{
			Name:        doc.KernelName,
			Language:    doc.KernelName,
			DisplayName: doc.KernelName,
		},
		"document": documentMeta{
			Name:      doc.Name,
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		},
	}
	for k, v := range doc.Metadata {
		metadata[k] = v
	}

	return json.MarshalIndent(artifact{
		Format:      formatMajor,
		FormatMinor: formatMinor,
		Metadata:    metadata,
		Cells:       cells,
	}, "", "  ")
}

// Decode restores a document from its stored bytes. Cells receive fresh
// identifiers and idle status. Non-code cells are stripped of outputs,
// execution counts, and errors even when the stored bytes carry stale
// values for them.
func Decode(data []byte, docID string) (*Document, error) {
	var stored artifact
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	doc := &Document{
		ID:         docID,
		KernelName: decodeKernelName(stored.Metadata),
		Metadata:   map[string]any{},
	}

	var meta documentMeta
	if raw, ok := stored.Metadata["document"]; ok {
		if bytes, err := json.Marshal(raw); err == nil {
			json.Unmarshal(bytes, &meta)
		}
	}
	doc.Name = meta.Name
	if doc.Name == "" {
		doc.Name = "Document " + docID
	}
	doc.CreatedAt = meta.CreatedAt
	doc.UpdatedAt = meta.UpdatedAt
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
		doc.UpdatedAt = doc.CreatedAt
	}

	for k, v := range stored.Metadata {
		if k == "kernelspec" || k == "document" {
			continue
		}
		doc.Metadata[k] = v
	}

	for _, record := range stored.Cells {
		cellType := CellType(record.CellType)
		if !cellType.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCellType, record.CellType)
		}

		cell := NewCell(cellType, strings.Join(record.Source, ""), record.Metadata)
		if cellType == CellCode {
			cell.Outputs = record.Outputs
			cell.ExecutionCount = record.ExecutionCount
		}
		doc.Cells = append(doc.Cells, cell)
	}

	return doc, nil
}

func decodeKernelName(metadata map[string]any) string {
	spec, ok := metadata["kernelspec"].(map[string]any)
	if !ok {
		return ""
	}
	name, _ := spec["name"].(string)
	return name
}

// splitLines splits source into lines keeping each terminator attached, so
// joining the pieces reproduces the original text exactly.
func splitLines(source string) []string {
	if source == "" {
		return []string{}
	}
	lines := strings.SplitAfter(source, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
