package kernel

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"
)

const (
	channelControl = "control"
	channelIOPub   = "iopub"

	stdioBufferSize = 64
)

// wireMessage is the on-the-wire form for stdio kernels: one JSON object per
// line, tagged with the channel it belongs to.
type wireMessage struct {
	Channel string `json:"channel"`
	Message
}

// StdioTransport connects to a kernel process over its standard streams.
// Requests are written to stdin as JSON lines; the kernel writes control
// replies and broadcast messages to stdout, each tagged with its channel. A
// reader goroutine demultiplexes them into the two logical channels.
type StdioTransport struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	grace  time.Duration
	writeM sync.Mutex

	replies *Channel[Message]
	iopub   *Channel[Message]

	closeOnce sync.Once
	closeErr  error
}

// LaunchStdio starts the kernel command and wires up the transport. The
// returned transport owns the process.
func LaunchStdio(name string, args []string, grace time.Duration) (*StdioTransport, error) {
	cmd := exec.Command(name, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}

	t := &StdioTransport{
		cmd:     cmd,
		stdin:   stdin,
		grace:   grace,
		replies: NewChannel[Message](stdioBufferSize),
		iopub:   NewChannel[Message](stdioBufferSize),
	}

	go t.readLoop(stdout)

	return t, nil
}

// readLoop routes each decoded line to its channel until stdout closes.
// Undecodable lines are dropped: kernels are free to print diagnostics.
func (t *StdioTransport) readLoop(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		var wire wireMessage
		if err := json.Unmarshal(scanner.Bytes(), &wire); err != nil {
			continue
		}
		switch wire.Channel {
		case channelControl:
			t.replies.TrySend(wire.Message)
		case channelIOPub:
			t.iopub.TrySend(wire.Message)
		}
	}

	t.replies.Close()
	t.iopub.Close()
}

// Post writes a control message without waiting for a reply.
func (t *StdioTransport) Post(ctx context.Context, msg Message) error {
	t.writeM.Lock()
	defer t.writeM.Unlock()
	return t.write(wireMessage{Channel: channelControl, Message: msg})
}

// Request writes a control message and blocks for the next control reply.
func (t *StdioTransport) Request(ctx context.Context, msg Message) (Message, error) {
	t.writeM.Lock()
	err := t.write(wireMessage{Channel: channelControl, Message: msg})
	t.writeM.Unlock()
	if err != nil {
		return Message{}, err
	}

	return t.replies.Receive(ctx)
}

// Receive blocks for the next broadcast message.
func (t *StdioTransport) Receive(ctx context.Context) (Message, error) {
	return t.iopub.Receive(ctx)
}

func (t *StdioTransport) write(wire wireMessage) error {
	data, err := json.Marshal(wire)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := t.stdin.Write(data); err != nil {
		return fmt.Errorf("transport write: %w", err)
	}
	return nil
}

// Close shuts the kernel down: stdin is closed so the process can exit
// cleanly, then the process is terminated with escalation to kill after the
// grace window. Idempotent.
func (t *StdioTransport) Close() error {
	t.closeOnce.Do(func() {
		t.stdin.Close()

		done := make(chan error, 1)
		go func() { done <- t.cmd.Wait() }()

		select {
		case <-done:
		case <-time.After(t.grace):
			t.cmd.Process.Kill()
			<-done
		}
	})
	return t.closeErr
}
