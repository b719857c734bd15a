package telnet

import "fmt"

// EchoMode is the preferred echo policy for a session.
type EchoMode string

const (
	// EchoLocal copies what we send into the read buffer ourselves.
	EchoLocal EchoMode = "local"
	// EchoRemote asks the peer to echo, echoing locally until it agrees.
	EchoRemote EchoMode = "remote"
	// EchoNone disables both.
	EchoNone EchoMode = "none"
	// EchoDefault accepts remote echo when the peer offers it.
	EchoDefault EchoMode = "default"
)

func (m EchoMode) valid() bool {
	switch m {
	case EchoLocal, EchoRemote, EchoNone, EchoDefault:
		return true
	}
	return false
}

func (m EchoMode) wantsRemote() bool {
	return m == EchoRemote || m == EchoDefault
}

// SetEchoMode records the preferred echo mode and starts the negotiation it
// implies. The peer's answers, handled as they arrive, decide which echo
// flags end up set.
func (s *Session) SetEchoMode(mode EchoMode) error {
	switch mode {
	case EchoLocal:
		if err := s.disengageRemoteEcho(); err != nil {
			return err
		}
		if !s.mode.EchoLocal {
			s.log.Debug("Enabling Local Echo")
			s.mode.EchoLocal = true
		}
	case EchoRemote:
		if !s.mode.EchoRemote {
			s.log.Debug("Requesting Remote Echo")
			if err := s.sendOnce(DO, Echo); err != nil {
				return err
			}
			if !s.mode.EchoLocal {
				s.log.Debug("Enabling Local Echo until the peer agrees")
				s.mode.EchoLocal = true
			}
		}
	case EchoNone:
		if s.mode.EchoLocal {
			s.log.Debug("Disabling Local Echo")
			s.mode.EchoLocal = false
		}
		if err := s.disengageRemoteEcho(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEchoMode, mode)
	}
	s.mode.EchoMode = mode
	if s.Online() {
		return s.flush()
	}
	return nil
}

func (s *Session) EchoMode() EchoMode {
	return s.mode.EchoMode
}

func (s *Session) disengageRemoteEcho() error {
	if !s.mode.EchoRemote {
		return nil
	}
	s.log.Debug("Disabling Remote Echo")
	s.mode.EchoRemote = false
	return s.sendOnce(DONT, Echo)
}
