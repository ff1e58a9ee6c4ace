package kernel

import "context"

// Transport is the two-channel connection to a running kernel.
//
// Post and Request use the control channel: Post fires a request without
// waiting (execution requests — their effects arrive on the broadcast
// channel), Request blocks for the next control reply (identity requests).
// Receive is the broadcast channel: a one-way stream of outputs and status
// events published while code runs. Neither channel provides call framing —
// the Session serializes its own use of the transport.
//
// Close tears down the connection and the engine process behind it.
type Transport interface {
	Post(ctx context.Context, msg Message) error
	Request(ctx context.Context, msg Message) (Message, error)
	Receive(ctx context.Context) (Message, error)
	Close() error
}
