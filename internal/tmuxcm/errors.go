package tmuxcm

import "errors"

// Error kinds returned by the decoder, dispatcher and control session. These
// are sentinels, not per-notification values: callers switch on kind via
// errors.Is, never on message text.
var (
	// ErrProtocolFraming covers an unexpected marker, a missing %end/%error,
	// or a token-arity mismatch. The offending notification is dropped and
	// the session continues.
	ErrProtocolFraming = errors.New("tmuxcm: protocol framing error")

	// ErrCommandFailure wraps a %error envelope. The paired callback is
	// still popped off the queue; this error never reaches the caller that
	// issued the command, only the log.
	ErrCommandFailure = errors.New("tmuxcm: command failed")

	// ErrLayoutMalformed wraps a layout parser failure (layout.ErrMalformed)
	// on a %layout-change line; the decoder logs it and drops that
	// notification.
	ErrLayoutMalformed = errors.New("tmuxcm: malformed layout string")

	// ErrChildLost marks the reader observing the child process exit,
	// expected or not. Terminal: the session moves to Unbound and does not
	// recover on its own.
	ErrChildLost = errors.New("tmuxcm: child process lost")

	// ErrNoConnection is returned when a command is issued while the
	// session is Unbound. The command is logged and dropped rather than
	// queued, so callers must tolerate brief races during session setup.
	ErrNoConnection = errors.New("tmuxcm: no connection")

	// ErrUnknownMarker marks a notification line whose marker isn't one of
	// the recognized set.
	ErrUnknownMarker = errors.New("tmuxcm: unknown notification marker")
)
