package telnet

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Error string

func (e Error) Error() string { return string(e) }

// failingTransport reads its chunks and then fails every read with err.
type failingTransport struct {
	*fakeTransport
	err error
}

func (f *failingTransport) Next() (byte, ReadStatus, error) {
	if len(f.chunks) == 0 {
		return 0, ReadOK, f.err
	}
	return f.fakeTransport.Next()
}

func drainString(t *testing.T, s *Session) string {
	t.Helper()
	_, err := s.Drain()
	require.NoError(t, err)
	return string(s.GetData(0))
}

func TestDecodeData(t *testing.T) {
	tests := []struct {
		name     string
		in       []byte
		expected string
	}{
		{"ascii", []byte("hello"), "hello"},
		{"NOP stripped", []byte{'h', byte(IAC), byte(NOP), 'i'}, "hi"},
		{"escaped IAC", []byte{'h', byte(IAC), byte(IAC), 'i'}, "h\xffi"},
		{"CR NUL", []byte{'h', '\r', 0, 'i'}, "h\ri"},
		{"high bit discarded", []byte{'h', 0x80, 0xe9, 'i'}, "hi"},
		{"CR LF", []byte("one\r\ntwo\r\n"), "one\ntwo\n"},
		{"bare LF", []byte("one\ntwo"), "one\ntwo"},
		{"other commands", []byte{'h', byte(IAC), byte(AYT), byte(IAC), byte(DM), byte(IAC), byte(SE), 'i'}, "hi"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := newBareSession(t, testConfig(), newFakeTransport(string(test.in)))
			assert.Equal(t, test.expected, drainString(t, s))
		})
	}
}

func TestDecodeBinary(t *testing.T) {
	s := newBareSession(t, testConfig(), newFakeTransport(string([]byte{'h', 0x80, 0xe9, 'i'})))
	s.mode.RxBinary = true
	assert.Equal(t, "h\x80\xe9i", drainString(t, s))
}

func TestLinefeedsOff(t *testing.T) {
	cfg := testConfig()
	cfg.Linefeeds = false
	s := newBareSession(t, cfg, newFakeTransport("one\r\ntwo\r\n"))
	assert.Equal(t, "one\r\ntwo\r\n", drainString(t, s))
}

func TestCRLFSplitAcrossReads(t *testing.T) {
	s := newBareSession(t, testConfig(), newFakeTransport("one\r", "\ntwo"))
	assert.Equal(t, "one", drainString(t, s))
	assert.Equal(t, "\ntwo", drainString(t, s))
}

func TestCRNULSplitAcrossReads(t *testing.T) {
	s := newBareSession(t, testConfig(), newFakeTransport("one\r", "\x00two"))
	assert.Equal(t, "one", drainString(t, s))
	assert.Equal(t, "\rtwo", drainString(t, s))
}

func TestCommandSplitAcrossReads(t *testing.T) {
	ft := newFakeTransport(string([]byte{'h', byte(IAC)}), string([]byte{byte(DO)}), string([]byte{byte(TimingMark), 'i'}))
	s := newBareSession(t, testConfig(), ft)
	assert.Equal(t, "h", drainString(t, s))
	assert.Equal(t, "", drainString(t, s))
	assert.Equal(t, "i", drainString(t, s))
	assert.Equal(t, iac(WILL, TimingMark), ft.written())
}

func TestProtocolOff(t *testing.T) {
	cfg := testConfig()
	cfg.Telnet = false
	cfg.Linefeeds = false
	in := string([]byte{'h', byte(IAC), byte(DO), byte(Echo), 0x80, 'i'})
	ft := newFakeTransport(in)
	s := newBareSession(t, cfg, ft)
	assert.Equal(t, in, drainString(t, s))
	assert.Empty(t, ft.written())
}

func TestAbortOutput(t *testing.T) {
	ft := newFakeTransport("junk", string([]byte{'m', 'o', 'r', 'e', byte(IAC), byte(AO), 'o', 'k'}))
	s := newBareSession(t, testConfig(), ft)
	_, err := s.Drain()
	require.NoError(t, err)
	assert.Equal(t, 4, s.Buffered())
	assert.Equal(t, "ok", drainString(t, s))
}

func TestInterruptProcess(t *testing.T) {
	ft := newFakeTransport(string([]byte{'a', 'b', byte(IAC), byte(IP), 'c'}))
	s := newBareSession(t, testConfig(), ft)
	_, err := s.Drain()
	assert.ErrorIs(t, err, ErrPeerInterrupt)
	assert.Equal(t, "ab", string(s.GetData(0)))
	assert.Equal(t, "c", drainString(t, s))
}

func TestGoAheadFromPeer(t *testing.T) {
	ft := newFakeTransport(string([]byte{byte(IAC), byte(GA)}))
	s := newBareSession(t, testConfig(), ft)
	s.ga = false
	drainString(t, s)
	assert.True(t, s.ga)
}

func TestReadStreamPattern(t *testing.T) {
	ft := newFakeTransport("foo", "bar$ baz")
	s := newBareSession(t, testConfig(), ft)
	n, found, err := s.ReadStream(ReadOptions{Patterns: []string{"$ "}})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 8, n)
	assert.Equal(t, "$ ", s.LastMatch())
	assert.Equal(t, "foobar$ ", string(s.GetData(0)))
	assert.Equal(t, "baz", drainString(t, s))
	assert.Equal(t, "", s.LastMatch())
}

func TestReadStreamFirstPatternWins(t *testing.T) {
	s := newBareSession(t, testConfig(), newFakeTransport("xab"))
	_, found, err := s.ReadStream(ReadOptions{Patterns: []string{"b", "ab"}})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "b", s.LastMatch())

	s = newBareSession(t, testConfig(), newFakeTransport("xab"))
	_, found, err = s.ReadStream(ReadOptions{Patterns: []string{"ab", "b"}})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "ab", s.LastMatch())
}

func TestReadStreamMaxBytes(t *testing.T) {
	s := newBareSession(t, testConfig(), newFakeTransport("abcdef"))
	n, found, err := s.ReadStream(ReadOptions{MaxBytes: 3})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, n)
	assert.Equal(t, "abc", string(s.GetData(0)))

	s = newBareSession(t, testConfig(), newFakeTransport("abcdef"))
	_, found, err = s.ReadStream(ReadOptions{Patterns: []string{"zz"}, MaxBytes: 3})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "abc", string(s.GetData(0)))
}

func TestReadStreamMaxBytesWaitsForByteAfterCR(t *testing.T) {
	s := newBareSession(t, testConfig(), newFakeTransport("abcd\r", "\nxyz"))
	n, found, err := s.ReadStream(ReadOptions{MaxBytes: 5})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 5, n)
	assert.Equal(t, "abcd\n", string(s.GetData(0)))
	assert.Equal(t, "xyz", drainString(t, s))

	s = newBareSession(t, testConfig(), newFakeTransport("abcd\r"))
	n, found, err = s.ReadStream(ReadOptions{MaxBytes: 5, Timeout: 30 * time.Millisecond})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 4, n)
	assert.Equal(t, "abcd", string(s.GetData(0)))
}

func TestReadStreamTimeout(t *testing.T) {
	s := newBareSession(t, testConfig(), newFakeTransport("abc"))
	start := time.Now()
	n, found, err := s.ReadStream(ReadOptions{Patterns: []string{"never"}, Timeout: 30 * time.Millisecond})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 3, n)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.True(t, s.Online())

	s = newBareSession(t, testConfig(), newFakeTransport("abc"))
	_, found, err = s.ReadStream(ReadOptions{Timeout: 30 * time.Millisecond})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "abc", string(s.GetData(0)))
}

func TestReadStreamDefaultTimeout(t *testing.T) {
	s := newBareSession(t, testConfig(), newFakeTransport("abc"))
	start := time.Now()
	_, found, err := s.ReadStream(ReadOptions{Patterns: []string{"never"}})
	require.NoError(t, err)
	assert.False(t, found)
	assert.GreaterOrEqual(t, time.Since(start), testConfig().Timeout)
}

func TestReadStreamEOFWithoutData(t *testing.T) {
	ft := newFakeTransport()
	ft.eof = true
	s := newBareSession(t, testConfig(), ft)
	n, found, err := s.ReadStream(ReadOptions{Patterns: []string{"$"}})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, n)
	assert.False(t, s.Online())
	assert.True(t, ft.closed)

	_, _, err = s.ReadStream(ReadOptions{Patterns: []string{"$"}})
	assert.ErrorIs(t, err, ErrOffline)
}

func TestReadStreamEOFAfterMatch(t *testing.T) {
	ft := newFakeTransport("login$")
	ft.eof = true
	s := newBareSession(t, testConfig(), ft)
	_, found, err := s.ReadStream(ReadOptions{Patterns: []string{"$"}})
	require.NoError(t, err)
	assert.True(t, found)

	_, found, err = s.ReadStream(ReadOptions{Patterns: []string{"$"}})
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, s.Online())
	assert.Equal(t, "login$", string(s.GetData(0)))
}

func TestReadStreamEOFFlushesHeldCR(t *testing.T) {
	ft := newFakeTransport("tail\r")
	ft.eof = true
	s := newBareSession(t, testConfig(), ft)
	_, _, err := s.ReadStream(ReadOptions{Patterns: []string{"$"}})
	require.NoError(t, err)
	assert.Equal(t, "tail\r", string(s.GetData(0)))
}

func TestReadStreamFlushesFirst(t *testing.T) {
	ft := newFakeTransport("ok")
	s := newBareSession(t, testConfig(), ft)
	s.mode.TxSGA = true
	_, err := s.PutData([]byte("hello"), true, false)
	require.NoError(t, err)
	assert.Empty(t, ft.out.Bytes())
	drainString(t, s)
	assert.Equal(t, "hello", string(ft.written()))
}

func TestPagerAbsorbsPagePrompt(t *testing.T) {
	cfg := testConfig()
	cfg.Pager = true
	ft := newFakeTransport("one\r\n --More-- two$")
	s := newBareSession(t, cfg, ft)
	s.mode.TxSGA = true
	_, found, err := s.ReadStream(ReadOptions{Patterns: []string{"$"}})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "one\ntwo$", string(s.GetData(0)))
	assert.Equal(t, " ", string(ft.written()))
}

func TestPagerAnswersEveryPageWithoutSGA(t *testing.T) {
	cfg := testConfig()
	cfg.Pager = true
	ft := newFakeTransport("one --More-- two --More-- three$")
	s := newBareSession(t, cfg, ft)
	_, found, err := s.ReadStream(ReadOptions{Patterns: []string{"$"}})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "onetwothree$", string(s.GetData(0)))
	assert.Equal(t, []byte{' ', byte(IAC), byte(GA), ' '}, ft.written())
	assert.Empty(t, s.writebuf)
}

func TestPagerOff(t *testing.T) {
	ft := newFakeTransport("one --More-- two")
	s := newBareSession(t, testConfig(), ft)
	assert.Equal(t, "one --More-- two", drainString(t, s))
	assert.Empty(t, ft.written())
}

func TestTransportErrorOnRead(t *testing.T) {
	boom := Error("boom")
	ft := &failingTransport{fakeTransport: newFakeTransport("ab"), err: boom}
	s, err := New(testConfig())
	require.NoError(t, err)
	s.SetLogger(nil)
	s.t = ft

	_, _, err = s.ReadStream(ReadOptions{Patterns: []string{"$"}})
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "ab", string(s.GetData(0)))
}

func TestTransportErrorMidCommand(t *testing.T) {
	boom := Error("boom")
	newFailing := func() *failingTransport {
		return &failingTransport{fakeTransport: newFakeTransport(string([]byte{'a', byte(IAC)})), err: boom}
	}

	s, err := New(testConfig())
	require.NoError(t, err)
	s.SetLogger(nil)
	s.t = newFailing()
	_, found, err := s.ReadStream(ReadOptions{Patterns: []string{"$"}})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "a", string(s.GetData(0)))
	assert.False(t, s.inCommand)

	cfg := testConfig()
	cfg.TelnetBugs = false
	s, err = New(cfg)
	require.NoError(t, err)
	s.SetLogger(nil)
	s.t = newFailing()
	_, _, err = s.ReadStream(ReadOptions{Patterns: []string{"$"}})
	var perr *ProtocolError
	require.True(t, errors.As(err, &perr))
	assert.ErrorIs(t, err, boom)
}

func TestGetDataBounded(t *testing.T) {
	s := newBareSession(t, testConfig(), newFakeTransport("abcdef"))
	_, err := s.Drain()
	require.NoError(t, err)
	assert.Equal(t, "ab", string(s.GetData(2)))
	assert.Equal(t, "cdef", string(s.GetData(10)))
	assert.Empty(t, s.GetData(0))
}
