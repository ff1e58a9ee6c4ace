package kernel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tailored-agentic-units/computer/kernel"
)

func TestLaunchStdio_RequestLoopback(t *testing.T) {
	// cat echoes every control line straight back, acting as a kernel that
	// answers requests with themselves.
	transport, err := kernel.LaunchStdio("/bin/cat", nil, time.Second)
	if err != nil {
		t.Fatalf("LaunchStdio() error = %v", err)
	}
	defer transport.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reply, err := transport.Request(ctx, kernel.Message{Type: kernel.MsgKernelInfo})
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if reply.Type != kernel.MsgKernelInfo {
		t.Errorf("got reply type %q, want the echoed request", reply.Type)
	}
}

func TestLaunchStdio_Broadcast(t *testing.T) {
	// A minimal kernel: prints a diagnostic line (which must be dropped),
	// then answers every incoming line with one broadcast stream message.
	script := `echo starting up
while read -r line; do
  echo '{"channel":"iopub","msg_type":"stream","name":"stdout","text":"hi"}'
done`
	transport, err := kernel.LaunchStdio("/bin/bash", []string{"-c", script}, time.Second)
	if err != nil {
		t.Fatalf("LaunchStdio() error = %v", err)
	}
	defer transport.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := transport.Post(ctx, kernel.Message{Type: kernel.MsgExecute, Code: "x"}); err != nil {
		t.Fatalf("Post() error = %v", err)
	}

	msg, err := transport.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if msg.Type != kernel.MsgStream || msg.Text != "hi" {
		t.Errorf("got message %+v, want broadcast stream hi", msg)
	}
}

func TestLaunchStdio_Close(t *testing.T) {
	transport, err := kernel.LaunchStdio("/bin/cat", nil, time.Second)
	if err != nil {
		t.Fatalf("LaunchStdio() error = %v", err)
	}

	if err := transport.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := transport.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := transport.Receive(ctx); !errors.Is(err, kernel.ErrChannelClosed) {
		t.Errorf("Receive() after close error = %v, want ErrChannelClosed", err)
	}
}

func TestLaunchStdio_MissingCommand(t *testing.T) {
	_, err := kernel.LaunchStdio("/nonexistent/kernel", nil, time.Second)
	if !errors.Is(err, kernel.ErrLaunchFailed) {
		t.Errorf("LaunchStdio() error = %v, want ErrLaunchFailed", err)
	}
}
