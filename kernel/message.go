// Package kernel manages persistent code-execution engines. A Session wraps
// one live kernel reached through a two-channel Transport: a request/reply
// control channel and a broadcast channel that streams outputs and status
// events. Execute turns that stream of typed messages into one discrete
// result.
package kernel

import (
	"encoding/json"
	"fmt"
)

// MessageType identifies a kernel message. The set is closed: Execute
// matches on it exhaustively and treats anything else as noise.
type MessageType string

const (
	// MsgStream carries text written to stdout or stderr during execution.
	MsgStream MessageType = "stream"
	// MsgResult carries the value of the final expression.
	MsgResult MessageType = "execute_result"
	// MsgDisplay carries rich display data.
	MsgDisplay MessageType = "display_data"
	// MsgError reports an exception raised by the guest code.
	MsgError MessageType = "error"
	// MsgStatus reports the kernel's execution state ("busy", "idle").
	MsgStatus MessageType = "status"
	// MsgExecute requests execution of a code fragment (control channel).
	MsgExecute MessageType = "execute_request"
	// MsgKernelInfo requests the kernel's identity (control channel).
	MsgKernelInfo MessageType = "kernel_info_request"
	// MsgKernelInfoReply answers an identity request (control channel).
	MsgKernelInfoReply MessageType = "kernel_info_reply"
)

// Valid reports whether t is one of the declared message types.
func (t MessageType) Valid() bool {
	switch t {
	case MsgStream, MsgResult, MsgDisplay, MsgError, MsgStatus, MsgExecute, MsgKernelInfo, MsgKernelInfoReply:
		return true
	}
	return false
}

// Message is one unit on either kernel channel. Only the fields relevant to
// Type are populated; Content-style payloads are kept flat so transports can
// encode a message as a single JSON object.
type Message struct {
	Type MessageType `json:"msg_type"`

	// Execution request.
	Code string `json:"code,omitempty"`

	// Stream output.
	Name string `json:"name,omitempty"`
	Text string `json:"text,omitempty"`

	// Result and display output.
	Data           map[string]string `json:"data,omitempty"`
	Metadata       map[string]any    `json:"metadata,omitempty"`
	ExecutionCount int               `json:"execution_count,omitempty"`

	// Status.
	ExecutionState string `json:"execution_state,omitempty"`

	// Error.
	ErrName   string   `json:"ename,omitempty"`
	ErrValue  string   `json:"evalue,omitempty"`
	Traceback []string `json:"traceback,omitempty"`

	// Kernel identity reply.
	Language      string `json:"language,omitempty"`
	Version       string `json:"version,omitempty"`
	FileExtension string `json:"file_extension,omitempty"`
	MimeType      string `json:"mimetype,omitempty"`
	Banner        string `json:"banner,omitempty"`
}

// IsIdle reports whether the message is a status event announcing the
// kernel has returned to idle.
func (m Message) IsIdle() bool {
	return m.Type == MsgStatus && m.ExecutionState == "idle"
}

// UnmarshalJSON decodes a message and rejects undeclared message types so a
// misbehaving kernel cannot inject variants the pump does not understand.
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	if err := json.Unmarshal(data, (*plain)(m)); err != nil {
		return err
	}
	if !m.Type.Valid() {
		return fmt.Errorf("unknown message type: %q", m.Type)
	}
	return nil
}
