package telnet

import (
	"errors"
	"fmt"
)

var (
	ErrPeerInterrupt   = errors.New("telnet: peer sent Interrupt Process (IP)")
	ErrLoginFailed     = errors.New("telnet: login failed")
	ErrNotFound        = errors.New("telnet: pattern not found")
	ErrOffline         = errors.New("telnet: not connected")
	ErrInvalidPort     = errors.New("telnet: invalid port")
	ErrInvalidTimeout  = errors.New("telnet: invalid timeout")
	ErrInvalidEchoMode = errors.New("telnet: invalid echo mode")
	ErrNoLoginSuccess  = errors.New("telnet: login needs a success pattern or a command prompt")
	ErrNoHost          = errors.New("telnet: remote host is required")
	ErrNoPatterns      = errors.New("telnet: expect needs at least one pattern")
)

type InvalidCommandError byte

func (c InvalidCommandError) Error() string {
	return fmt.Sprintf("telnet: invalid command: %s", Command(c))
}

type InvalidOptionError byte

func (o InvalidOptionError) Error() string {
	return fmt.Sprintf("telnet: invalid option: %d", byte(o))
}

// TransportError reports a failure of the underlying byte stream other than
// a timeout or end-of-stream.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("telnet: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a malformed command sequence in the inbound stream.
type ProtocolError struct {
	Msg string
	Err error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("telnet: protocol error: %s: %v", e.Msg, e.Err)
	}
	return "telnet: protocol error: " + e.Msg
}

func (e *ProtocolError) Unwrap() error { return e.Err }
