package telnet

import (
	"bytes"
	"time"
)

const drainTimeout = 200 * time.Millisecond

// ReadOptions bounds a call to ReadStream. The zero value drains: it reads
// whatever the peer has already sent and returns as soon as the line goes
// quiet.
type ReadOptions struct {
	// Patterns are literal strings; the read stops when the data read so
	// far ends with one of them. The first in slice order wins.
	Patterns []string

	// MaxBytes stops the read once that much data is ready for the read
	// buffer, counted after CR LF translation. A trailing CR only counts
	// once the byte after it has arrived.
	MaxBytes int

	// Timeout bounds the whole call. Zero means the session timeout.
	Timeout time.Duration
}

func (o ReadOptions) drain() bool {
	return len(o.Patterns) == 0 && o.MaxBytes == 0 && o.Timeout == 0
}

// ReadStream reads and interprets input from the peer, moving data into the
// read buffer, until a pattern matches, MaxBytes are read, the timeout
// elapses or the peer closes the connection. It returns the number of data
// bytes added to the read buffer and whether the read found what it was
// asked for. A drain, and a read with only a timeout, always count as found;
// so does a read with only MaxBytes once that many bytes have arrived.
//
// Reaching end-of-stream flushes pending output and closes the session.
func (s *Session) ReadStream(opts ReadOptions) (n int, found bool, err error) {
	if !s.Online() {
		if s.t != nil {
			s.flush()
			s.close()
		}
		return 0, false, ErrOffline
	}
	if err = s.flush(); err != nil {
		return
	}

	patterns := make([]string, 0, len(opts.Patterns))
	for _, p := range opts.Patterns {
		if p != "" {
			patterns = append(patterns, p)
		}
	}

	drain := opts.drain()
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = s.cfg.Timeout
	}
	deadline := time.Now().Add(timeout)
	if drain {
		s.t.SetReadTimeout(drainTimeout)
	}
	defer func() {
		if s.t != nil {
			s.t.SetReadTimeout(s.cfg.Timeout)
		}
	}()

	s.lastMatch = ""
	s.run = s.run[:0]
	if s.heldCR {
		s.run = append(s.run, '\r')
		s.heldCR = false
	}

	atEOF := false
	for !found && !(opts.MaxBytes > 0 && s.pending() >= opts.MaxBytes) {
		if !drain {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				break
			}
			s.t.SetReadTimeout(remaining)
		}

		c, status, rerr := s.t.Next()
		if rerr != nil {
			if err = s.readFailed(rerr); err != nil {
				s.deliver(true)
				return
			}
			break
		}
		if status == ReadEOF {
			atEOF = true
			break
		}
		if status == ReadTimeout {
			if drain {
				break
			}
			continue
		}

		before := len(s.run)
		if !s.mode.Telnet {
			s.run = append(s.run, c)
		} else if s.state, err = s.state(s, c); err != nil {
			s.deliver(true)
			return
		}
		if len(s.run) <= before {
			continue
		}

		if !drain {
			if p, ok := s.match(patterns); ok {
				s.lastMatch = p
				found = true
			}
		}
		if err = s.absorbPage(); err != nil {
			s.deliver(true)
			return
		}
	}

	n = s.deliver(!atEOF)
	completed := opts.MaxBytes > 0 && n >= opts.MaxBytes

	if drain || (len(patterns) == 0 && opts.MaxBytes == 0 && opts.Timeout > 0) ||
		(len(patterns) == 0 && completed) {
		found = true
	}

	if atEOF || (s.t != nil && s.t.AtEOF()) {
		s.log.Debug("connection closed by peer")
		if ferr := s.flush(); ferr != nil {
			s.log.Debugf("flush on close: %v", ferr)
		}
		if cerr := s.close(); cerr != nil {
			s.log.Debugf("close: %v", cerr)
		}
	}
	return
}

// readFailed decides what a hard transport error means. Between commands
// it is a TransportError. In the middle of a command sequence it is a
// protocol error, unless we are working around broken peers, in which case
// the sequence is dropped and the read ends quietly.
func (s *Session) readFailed(err error) error {
	if !s.inCommand {
		return &TransportError{Op: "read", Err: err}
	}
	s.state = s.endCommand()
	if s.mode.TelnetBugs {
		s.log.Debugf("error reading TELNET command from network: %v", err)
		return nil
	}
	return &ProtocolError{Msg: "error reading TELNET command from network", Err: err}
}

func (s *Session) match(patterns []string) (string, bool) {
	for _, p := range patterns {
		if bytes.HasSuffix(s.run, []byte(p)) {
			return p, true
		}
	}
	return "", false
}

// absorbPage answers the page prompt with the continuation string and
// removes the prompt from the data.
func (s *Session) absorbPage() error {
	if !s.mode.Pager || s.pagePrompt == "" || !bytes.HasSuffix(s.run, []byte(s.pagePrompt)) {
		return nil
	}
	s.log.Debugf("pager: answering %q with %q", s.pagePrompt, s.pageContinue)
	s.run = s.run[:len(s.run)-len(s.pagePrompt)]
	if _, err := s.PutData([]byte(s.pageContinue), true, false); err != nil {
		return err
	}
	// the peer is waiting at the prompt whether or not we hold the line
	if err := s.flush(); err != nil {
		return err
	}
	_, err := s.GoAhead()
	return err
}

// pending returns how many bytes deliver would hand over right now.
func (s *Session) pending() int {
	if !s.mode.Linefeeds {
		return len(s.run)
	}
	n := len(s.run) - bytes.Count(s.run, []byte("\r\n"))
	if bytes.HasSuffix(s.run, []byte("\r")) {
		n--
	}
	return n
}

// deliver moves the current run into the read buffer, collapsing CR LF to
// LF when line-feed translation is on. With hold set, a trailing CR is kept
// back until the byte after it is known.
func (s *Session) deliver(hold bool) int {
	run := s.run
	s.run = s.run[:0]
	if s.mode.Linefeeds {
		run = bytes.ReplaceAll(run, []byte("\r\n"), []byte("\n"))
		if hold && len(run) > 0 && run[len(run)-1] == '\r' {
			run = run[:len(run)-1]
			s.heldCR = true
		}
	}
	s.userbuf = append(s.userbuf, run...)
	return len(run)
}

// Drain reads whatever the peer has already sent into the read buffer.
func (s *Session) Drain() (int, error) {
	n, _, err := s.ReadStream(ReadOptions{})
	return n, err
}

// GetData removes and returns up to max bytes from the read buffer; max <= 0
// returns everything.
func (s *Session) GetData(max int) []byte {
	if max <= 0 || max >= len(s.userbuf) {
		data := s.userbuf
		s.userbuf = nil
		return data
	}
	data := append([]byte(nil), s.userbuf[:max]...)
	s.userbuf = append(s.userbuf[:0], s.userbuf[max:]...)
	return data
}

// Buffered returns the number of bytes waiting in the read buffer.
func (s *Session) Buffered() int {
	return len(s.userbuf)
}

// LastMatch returns the pattern that ended the most recent ReadStream, or ""
// if it ended for another reason.
func (s *Session) LastMatch() string {
	return s.lastMatch
}

type parseState func(*Session, byte) (parseState, error)

func (s *Session) endCommand() parseState {
	s.inCommand = false
	return readData
}

func readData(s *Session, c byte) (parseState, error) {
	switch {
	case c == byte(IAC):
		s.inCommand = true
		return readCommand, nil
	case c == '\r':
		s.run = append(s.run, c)
		return readCR, nil
	case c > 127 && !s.mode.RxBinary:
		s.log.Debugf("discarding non-ASCII char (%d)", c)
		return readData, nil
	}
	s.run = append(s.run, c)
	return readData, nil
}

func readCR(s *Session, c byte) (parseState, error) {
	if c == '\x00' {
		return readData, nil
	}
	return readData(s, c)
}

func readCommand(s *Session, c byte) (parseState, error) {
	cmd := Command(c)
	switch cmd {
	case IAC:
		s.run = append(s.run, c)
		return s.endCommand(), nil
	case WILL, WONT, DO, DONT:
		return readOption(cmd), nil
	case SB:
		return readSubOption, nil
	case GA:
		s.log.Debug("RECV IAC GA")
		s.ga = true
		return s.endCommand(), s.flush()
	case AO:
		s.log.Debug("Received TELNET Abort Output (AO), clearing read buffers")
		s.run = s.run[:0]
		s.userbuf = nil
		s.heldCR = false
		return s.endCommand(), nil
	case IP:
		s.log.Debug("RECV IAC IP")
		return s.endCommand(), ErrPeerInterrupt
	}
	if !cmd.Valid() {
		return s.endCommand(), s.malformed("unknown TELNET command", InvalidCommandError(c))
	}
	return s.endCommand(), s.receiveCommand(cmd, 0, nil)
}

func readOption(cmd Command) parseState {
	return func(s *Session, c byte) (parseState, error) {
		next := s.endCommand()
		if err := s.receiveCommand(cmd, Option(c), nil); err != nil {
			return next, s.malformed("bad option for IAC "+cmd.String(), err)
		}
		// answer now; the peer may be waiting on us before it says more
		return next, s.flush()
	}
}

func readSubOption(s *Session, c byte) (parseState, error) {
	s.subOpt = Option(c)
	s.sub = s.sub[:0]
	return readSubData, nil
}

func readSubData(s *Session, c byte) (parseState, error) {
	if c == byte(IAC) {
		return readSubIAC, nil
	}
	s.sub = append(s.sub, c)
	return readSubData, nil
}

func readSubIAC(s *Session, c byte) (parseState, error) {
	switch Command(c) {
	case IAC:
		s.sub = append(s.sub, c)
		return readSubData, nil
	case SE:
		next := s.endCommand()
		if err := s.receiveCommand(SB, s.subOpt, s.sub); err != nil {
			return next, s.malformed("bad sub-negotiation", err)
		}
		return next, nil
	}
	if err := s.malformed("unterminated sub-negotiation for "+s.subOpt.String(), nil); err != nil {
		return s.endCommand(), err
	}
	// the peer left SB without IAC SE; treat c as the start of a new command
	return readCommand(s, c)
}

// malformed turns a bad inbound command sequence into a ProtocolError, or
// logs and drops it when working around broken peers.
func (s *Session) malformed(msg string, err error) error {
	if s.mode.TelnetBugs {
		if err != nil {
			s.log.Debugf("%s: %v", msg, err)
		} else {
			s.log.Debug(msg)
		}
		return nil
	}
	return &ProtocolError{Msg: msg, Err: err}
}
