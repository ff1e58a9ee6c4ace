package kernel

import "errors"

// Sentinel errors for kernel infrastructure failures. Guest-code failures
// are never Go errors — they surface as exec.Error data on the Result.
var (
	// ErrKindUnknown means the requested kernel kind is not registered.
	ErrKindUnknown = errors.New("unknown kernel kind")
	// ErrKindExists means a kernel kind with the same name is already registered.
	ErrKindExists = errors.New("kernel kind already registered")
	// ErrEmptyKind means a registration was attempted with an empty name.
	ErrEmptyKind = errors.New("kernel kind name is empty")
	// ErrChannelClosed means the transport's broadcast channel was closed.
	ErrChannelClosed = errors.New("channel closed")
	// ErrLaunchFailed means the kernel process or transport could not be started.
	ErrLaunchFailed = errors.New("kernel launch failed")
)
