package telnet

import (
	"bytes"
	"io"
	"strings"
)

const writeChunk = 4096

// SendCommand queues a TELNET command. WILL, WONT, DO and DONT need an
// option; SB needs an option and takes a payload, which is escaped and
// terminated with IAC SE here. SE is never sent on its own.
func (s *Session) SendCommand(cmd Command, opt Option, payload []byte) error {
	if !cmd.Valid() {
		return InvalidCommandError(cmd)
	}
	switch {
	case cmd.negotiation():
		if !opt.Valid() {
			return InvalidOptionError(opt)
		}
		s.log.Debugf("SENT %s", formatCommand(cmd, opt, nil))
		s.ledger.record(Sent, cmd, opt)
		s.writebuf = append(s.writebuf, byte(IAC), byte(cmd), byte(opt))
	case cmd == NOP:
		s.log.Debugf("SENT %s", formatCommand(cmd, 0, nil))
		s.writebuf = append(s.writebuf, byte(IAC), byte(NOP))
	case cmd == SB:
		if !opt.Valid() {
			return InvalidOptionError(opt)
		}
		s.log.Debugf("SENT %s", formatCommand(cmd, opt, payload))
		s.ledger.recordSub(Sent, opt, payload)
		s.writebuf = append(s.writebuf, byte(IAC), byte(SB), byte(opt))
		s.writebuf = append(s.writebuf, escapeIAC(payload)...)
		s.writebuf = append(s.writebuf, byte(IAC), byte(SE))
	default:
		// SE is appended to SB, the rest have their own methods
		return InvalidCommandError(cmd)
	}
	return nil
}

// sendOnce sends a negotiation command unless it was already sent for opt
// during this session.
func (s *Session) sendOnce(cmd Command, opt Option) error {
	if s.ledger.has(Sent, cmd, opt) {
		return nil
	}
	return s.SendCommand(cmd, opt, nil)
}

func stripCommandRange(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c < byte(SE) || c == byte(IAC) {
			out = append(out, c)
		}
	}
	return out
}

func escapeIAC(b []byte) []byte {
	return bytes.ReplaceAll(b, []byte{byte(IAC)}, []byte{byte(IAC), byte(IAC)})
}

// PutData queues data for the network. With escape set, bytes in the
// command range 0xF0-0xFE are dropped unless we transmit in binary mode,
// and IAC is doubled. With echo set and local echo on, data is also copied
// to the read buffer. The write buffer is flushed right away when the peer
// is echoing; n is the number of bytes that reached the network.
func (s *Session) PutData(data []byte, escape, echo bool) (n int, err error) {
	escape = escape && s.mode.Telnet
	if escape && !s.mode.TxBinary {
		data = stripCommandRange(data)
	}
	if echo && s.mode.EchoLocal {
		s.userbuf = append(s.userbuf, data...)
	}
	if escape {
		data = escapeIAC(data)
	}
	s.writebuf = append(s.writebuf, data...)
	if s.mode.EchoRemote {
		return s.netWrite()
	}
	return 0, nil
}

// Send queues data, escaped and echoed, and hands the line to the peer.
func (s *Session) Send(data string) error {
	return s.send(data, true)
}

func (s *Session) send(data string, echo bool) error {
	if data == "" {
		return nil
	}
	if _, err := s.PutData([]byte(data), true, echo); err != nil {
		return err
	}
	// peers that never send GA would leave us waiting for the line forever
	if s.mode.TelnetBugs {
		if err := s.flush(); err != nil {
			return err
		}
	}
	_, err := s.GoAhead()
	return err
}

// Println sends each line terminated by a newline, translating bare LF to
// CR LF when line-feed translation is on.
func (s *Session) Println(lines ...string) error {
	if len(lines) == 0 {
		lines = []string{""}
	}
	for _, line := range lines {
		if !strings.HasSuffix(line, "\n") {
			line += "\n"
		}
		if s.mode.Linefeeds {
			line = expandLF(line)
		}
		if _, err := s.PutData([]byte(line), true, true); err != nil {
			return err
		}
	}
	_, err := s.GoAhead()
	return err
}

func expandLF(str string) string {
	var b strings.Builder
	for i := 0; i < len(str); i++ {
		if str[i] == '\n' && (i == 0 || str[i-1] != '\r') {
			b.WriteByte('\r')
		}
		b.WriteByte(str[i])
	}
	return b.String()
}

// GoAhead flushes the write buffer. Unless go-ahead is suppressed on our
// side it then sends GA and waits for the peer's GA before writing again;
// it reports false when the line is still the peer's.
func (s *Session) GoAhead() (bool, error) {
	switch {
	case s.mode.TxSGA:
		if err := s.flush(); err != nil {
			return false, err
		}
	case s.ga:
		if err := s.flush(); err != nil {
			return false, err
		}
		if s.mode.Telnet {
			if _, err := s.netWriteBytes([]byte{byte(IAC), byte(GA)}); err != nil {
				return false, err
			}
			s.ga = false
		}
	default:
		return false, nil
	}
	return true, nil
}

// SendBreak sends the NVT BRK signal.
func (s *Session) SendBreak() error {
	s.log.Debugf("SENT %s", formatCommand(BRK, 0, nil))
	s.writebuf = append(s.writebuf, byte(IAC), byte(BRK))
	return s.flush()
}

func (s *Session) flush() error {
	_, err := s.netWrite()
	return err
}

// netWrite writes the whole write buffer to the transport.
func (s *Session) netWrite() (int, error) {
	if s.t == nil || len(s.writebuf) == 0 {
		return 0, nil
	}
	buf := s.writebuf
	s.writebuf = nil
	return s.netWriteBytes(buf)
}

func (s *Session) netWriteBytes(buf []byte) (int, error) {
	if s.t == nil {
		return 0, nil
	}
	written := 0
	for written < len(buf) {
		chunk := buf[written:]
		if len(chunk) > writeChunk {
			chunk = chunk[:writeChunk]
		}
		n, err := s.t.Write(chunk)
		written += n
		if err == nil && n == 0 {
			err = io.ErrShortWrite
		}
		if err != nil {
			if s.t.AtEOF() || err == io.EOF {
				break
			}
			return written, &TransportError{Op: "write", Err: err}
		}
	}
	s.log.Tracef("write(%q)", buf[:written])
	return written, nil
}
