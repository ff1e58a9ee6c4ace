// Package exec defines the execution result types shared by the shell,
// kernel, and notebook subsystems. Outputs form a closed tagged union so
// consumers can match on OutputType exhaustively, and guest-code failures
// are represented as Error values rather than Go errors.
package exec

import (
	"encoding/json"
	"fmt"
)

// OutputType identifies the kind of an Output record.
type OutputType string

const (
	// OutputStream is line-oriented text written to stdout or stderr.
	OutputStream OutputType = "stream"
	// OutputResult is the value produced by evaluating the final expression.
	OutputResult OutputType = "execute_result"
	// OutputDisplay is rich display data published during execution.
	OutputDisplay OutputType = "display_data"
)

// Valid reports whether t is one of the declared output types.
func (t OutputType) Valid() bool {
	switch t {
	case OutputStream, OutputResult, OutputDisplay:
		return true
	}
	return false
}

// Output is one record produced by a kernel execution. Exactly the fields
// relevant to its Type are populated:
//
//   - OutputStream: Name (the channel, "stdout" or "stderr") and Text.
//   - OutputResult: Data and ExecutionCount.
//   - OutputDisplay: Data and Metadata.
type Output struct {
	Type           OutputType        `json:"output_type"`
	Name           string            `json:"name,omitempty"`
	Text           string            `json:"text,omitempty"`
	Data           map[string]string `json:"data,omitempty"`
	Metadata       map[string]any    `json:"metadata,omitempty"`
	ExecutionCount int               `json:"execution_count,omitempty"`
}

// NewStream creates a stream output for the given channel ("stdout" or "stderr").
func NewStream(name, text string) Output {
	return Output{Type: OutputStream, Name: name, Text: text}
}

// NewResult creates an execute_result output.
func NewResult(data map[string]string, executionCount int) Output {
	return Output{Type: OutputResult, Data: data, ExecutionCount: executionCount}
}

// NewDisplay creates a display_data output.
func NewDisplay(data map[string]string, metadata map[string]any) Output {
	return Output{Type: OutputDisplay, Data: data, Metadata: metadata}
}

// UnmarshalJSON decodes an output record and rejects unknown output types so
// stored artifacts cannot smuggle variants the rest of the system does not
// know how to handle.
func (o *Output) UnmarshalJSON(data []byte) error {
	type plain Output
	if err := json.Unmarshal(data, (*plain)(o)); err != nil {
		return err
	}
	if !o.Type.Valid() {
		return fmt.Errorf("unknown output type: %q", o.Type)
	}
	return nil
}

// Error describes a guest-code failure: an exception raised inside the
// kernel or a command that could not be interpreted. It is data carried on
// results and cells, not a Go error — guest failures never abort sessions.
type Error struct {
	Kind    string   `json:"ename"`
	Message string   `json:"evalue"`
	Trace   []string `json:"traceback,omitempty"`
}

// Result is the outcome of one kernel execution. Error is non-nil when the
// guest code failed; Outputs holds whatever was produced before the failure.
type Result struct {
	ExecutionCount int      `json:"execution_count"`
	Outputs        []Output `json:"outputs"`
	Error          *Error   `json:"error,omitempty"`
}

// Failed reports whether the execution produced a guest-code error.
func (r *Result) Failed() bool {
	return r.Error != nil
}

// ShellResult is the outcome of one shell command. MustRestart is set when
// the underlying interpreter process was found to have exited: the result is
// still delivered, but the session needs an explicit restart before reuse.
type ShellResult struct {
	Output      string `json:"output"`
	Error       string `json:"error,omitempty"`
	ExitCode    int    `json:"exit_code"`
	MustRestart bool   `json:"must_restart,omitempty"`
}
