package telnet

import (
	"fmt"
	"io"
	"strconv"

	log "github.com/sirupsen/logrus"
)

// Mode is a snapshot of the flags the negotiation state machine and the
// echo controller maintain.
type Mode struct {
	Telnet     bool
	TelnetBugs bool
	Linefeeds  bool
	TxBinary   bool
	RxBinary   bool
	TxSGA      bool
	RxSGA      bool
	EchoLocal  bool
	EchoRemote bool
	EchoNet    bool
	EchoMode   EchoMode
	Pager      bool
}

// Session is one TELNET client connection. A Session is not safe for
// concurrent use; closing its Transport from another goroutine is the only
// way to interrupt a blocked call.
type Session struct {
	cfg  Config
	t    Transport
	raw  io.Writer
	log  *maybeLog
	mode Mode

	ledger *ledger

	prompt       string
	pagePrompt   string
	pageContinue string

	writebuf []byte
	userbuf  []byte
	run      []byte
	heldCR   bool

	state     parseState
	inCommand bool
	sub       []byte
	subOpt    Option
	lastMatch string

	// we may transmit until we send GA; the peer hands the line back with GA
	ga bool
}

// New validates cfg and returns an unconnected Session.
func New(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fields := log.Fields{"type": "server"}
	if cfg.Host != "" {
		fields["addr"] = cfg.Host + ":" + strconv.Itoa(cfg.port)
	}
	for k, v := range cfg.Fields {
		fields[k] = v
	}
	s := &Session{
		cfg:          cfg,
		log:          newDefaultLog(fields),
		ledger:       newLedger(),
		prompt:       cfg.Prompt,
		pagePrompt:   cfg.PagePrompt,
		pageContinue: cfg.PageContinue,
		state:        readData,
		ga:           true,
		mode: Mode{
			Telnet:     cfg.Telnet,
			TelnetBugs: cfg.TelnetBugs,
			Linefeeds:  cfg.Linefeeds,
			EchoLocal:  cfg.EchoMode != EchoNone,
			EchoMode:   cfg.EchoMode,
			Pager:      cfg.Pager,
		},
	}
	return s, nil
}

// SetLogger replaces the diagnostic sink. A nil l silences the session.
func (s *Session) SetLogger(l Log) {
	s.log = &maybeLog{log: l}
}

// Connect dials the configured host and performs the initial negotiation.
func (s *Session) Connect() error {
	if s.cfg.Host == "" {
		return ErrNoHost
	}
	if s.t != nil {
		if err := s.Disconnect(); err != nil {
			return fmt.Errorf("telnet: connect: %w", err)
		}
	}
	s.log.Debugf("attempting connection to %s:%d", s.cfg.Host, s.cfg.port)
	t, err := Dial(s.cfg.Host, s.cfg.port, s.cfg.Timeout)
	if err != nil {
		return err
	}
	if s.raw != nil {
		t.SetRawLogWriter(s.raw)
	}
	return s.Open(t)
}

// SetRawLogWriter copies every byte the connections made by Connect read
// from the network to w, before any TELNET processing.
func (s *Session) SetRawLogWriter(w io.Writer) {
	s.raw = w
}

// Transport returns the current transport, or nil when offline. Closing it
// from another goroutine interrupts a blocked read.
func (s *Session) Transport() Transport {
	return s.t
}

// Open starts the session over an already established Transport.
func (s *Session) Open(t Transport) error {
	s.t = t
	s.t.SetReadTimeout(s.cfg.Timeout)
	s.ga = true
	s.log.Debug("connected")
	if s.mode.Telnet {
		return s.initialOptions()
	}
	return nil
}

// initialOptions sends the options we want on connect. Under TelnetBugs we
// skip the independent SGA offer, since some peers keep one SGA state for
// both directions, and skip BINARY, which some peers strip from the stream.
func (s *Session) initialOptions() error {
	if !s.mode.TelnetBugs {
		if err := s.SendCommand(WILL, SuppressGoAhead, nil); err != nil {
			return err
		}
	}
	if s.mode.EchoMode.wantsRemote() {
		if err := s.SendCommand(DO, Echo, nil); err != nil {
			return err
		}
		if err := s.SendCommand(DO, SuppressGoAhead, nil); err != nil {
			return err
		}
	}
	if !s.mode.TelnetBugs {
		if err := s.SendCommand(DO, TransmitBinary, nil); err != nil {
			return err
		}
		if err := s.SendCommand(WILL, TransmitBinary, nil); err != nil {
			return err
		}
	}
	return s.flush()
}

// Disconnect flushes pending output, drains whatever the peer still has to
// say into the read buffer, and closes the transport. Buffered data stays
// available to GetData.
func (s *Session) Disconnect() error {
	if s.t == nil {
		return nil
	}
	if err := s.flush(); err != nil {
		s.log.Debugf("disconnect: %v", err)
	}
	if s.t != nil {
		if _, _, err := s.ReadStream(ReadOptions{}); err != nil {
			s.log.Debugf("disconnect: %v", err)
		}
	}
	return s.close()
}

func (s *Session) close() error {
	if s.t == nil {
		return nil
	}
	s.log.Debug("closing network connection")
	t := s.t
	s.t = nil
	if s.heldCR {
		s.userbuf = append(s.userbuf, '\r')
		s.heldCR = false
	}
	if err := t.Close(); err != nil {
		return &TransportError{Op: "close", Err: err}
	}
	return nil
}

// Online reports whether the session has a transport that has not reached
// end-of-stream.
func (s *Session) Online() bool {
	return s.t != nil && !s.t.AtEOF()
}

func (s *Session) Mode() Mode {
	return s.mode
}

func (s *Session) Prompt() string { return s.prompt }

func (s *Session) SetPrompt(p string) {
	s.prompt = p
}

// SetPagePrompt sets what the peer prints at a full page and what to send to
// continue. Setting both to non-empty strings turns the pager on.
func (s *Session) SetPagePrompt(prompt, cont string) {
	s.pagePrompt, s.pageContinue = prompt, cont
	if prompt != "" && cont != "" {
		s.mode.Pager = true
	}
}

func (s *Session) SetPager(on bool) { s.mode.Pager = on }

func (s *Session) Linefeeds() bool { return s.mode.Linefeeds }

func (s *Session) SetLinefeeds(on bool) {
	s.mode.Linefeeds = on
}

// Sent reports whether we have sent cmd for opt during this session.
func (s *Session) Sent(cmd Command, opt Option) bool {
	return s.ledger.has(Sent, cmd, opt)
}

// Received reports whether the peer has sent cmd for opt.
func (s *Session) Received(cmd Command, opt Option) bool {
	return s.ledger.has(Received, cmd, opt)
}

// Subnegotiation returns the last raw SB payload exchanged for opt in the
// given direction.
func (s *Session) Subnegotiation(dir Direction, opt Option) []byte {
	return s.ledger.sub(dir, opt)
}
