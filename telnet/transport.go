package telnet

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"time"
)

// ReadStatus tells a caller of Transport.Next whether a byte arrived.
type ReadStatus int

const (
	ReadOK ReadStatus = iota
	ReadTimeout
	ReadEOF
)

func (r ReadStatus) String() string {
	switch r {
	case ReadOK:
		return "ok"
	case ReadTimeout:
		return "timeout"
	case ReadEOF:
		return "eof"
	default:
		return strconv.Itoa(int(r))
	}
}

// Transport is the duplex byte stream a Session drives. Next honors the
// timeout last given to SetReadTimeout; timeouts and end-of-stream are
// reported through ReadStatus, and err is only set for other failures.
type Transport interface {
	Next() (c byte, status ReadStatus, err error)
	Write(p []byte) (int, error)
	AtEOF() bool
	SetReadTimeout(time.Duration)
	Close() error
}

// NetTransport is a Transport over a net.Conn.
type NetTransport struct {
	conn    net.Conn
	r       *bufio.Reader
	raw     *maybeWriter
	timeout time.Duration

	mu  sync.Mutex
	eof bool
}

// Dial connects to host:port over TCP and returns a Transport for it.
func Dial(host string, port int, timeout time.Duration) (*NetTransport, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, &TransportError{Op: "dial " + addr, Err: err}
	}
	t := Wrap(conn)
	t.SetReadTimeout(timeout)
	return t, nil
}

// Wrap adapts an established connection.
func Wrap(conn net.Conn) *NetTransport {
	raw := &maybeWriter{}
	return &NetTransport{
		conn: conn,
		r:    bufio.NewReader(io.TeeReader(conn, raw)),
		raw:  raw,
	}
}

// SetRawLogWriter copies every byte read from the network, before any
// TELNET processing, to w. A nil w turns the copy off.
func (t *NetTransport) SetRawLogWriter(w io.Writer) {
	t.raw.SetWriter(w)
}

func (t *NetTransport) SetReadTimeout(d time.Duration) {
	t.timeout = d
}

func (t *NetTransport) Next() (byte, ReadStatus, error) {
	if t.AtEOF() {
		return 0, ReadEOF, nil
	}
	if t.r.Buffered() == 0 {
		var deadline time.Time
		if t.timeout > 0 {
			deadline = time.Now().Add(t.timeout)
		}
		if err := t.conn.SetReadDeadline(deadline); err != nil {
			status, err := t.status(err)
			return 0, status, err
		}
	}
	c, err := t.r.ReadByte()
	if err != nil {
		status, err := t.status(err)
		return 0, status, err
	}
	return c, ReadOK, nil
}

func (t *NetTransport) status(err error) (ReadStatus, error) {
	var ne net.Error
	switch {
	case errors.As(err, &ne) && ne.Timeout():
		return ReadTimeout, nil
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed), errors.Is(err, io.ErrClosedPipe):
		t.markEOF()
		return ReadEOF, nil
	}
	return ReadOK, err
}

func (t *NetTransport) Write(p []byte) (int, error) {
	n, err := t.conn.Write(p)
	if err != nil && (errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe)) {
		t.markEOF()
	}
	return n, err
}

func (t *NetTransport) markEOF() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.eof = true
}

func (t *NetTransport) AtEOF() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.eof
}

// Close may be called from any goroutine; a read blocked in Next then
// observes end-of-stream.
func (t *NetTransport) Close() error {
	t.markEOF()
	return t.conn.Close()
}

type maybeWriter struct {
	w io.Writer
	sync.Mutex
}

func (m *maybeWriter) SetWriter(w io.Writer) {
	m.Lock()
	defer m.Unlock()
	m.w = w
}

func (m *maybeWriter) Write(p []byte) (int, error) {
	m.Lock()
	defer m.Unlock()
	if m.w == nil {
		return len(p), nil
	}
	// the raw log must never break the session
	m.w.Write(p)
	return len(p), nil
}
