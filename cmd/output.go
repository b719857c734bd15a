package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stesla/telscript/telnet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// openLogFile opens, for appending, the transcript for host in dir. There is
// one transcript per host per day.
func openLogFile(dir, host string) (io.WriteCloser, error) {
	timestr := time.Now().Format("2006-01-02")
	name := fmt.Sprintf("%s-%s.log", timestr, host)
	return os.OpenFile(
		filepath.Join(dir, name),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY,
		0644,
	)
}

// lookupCharset finds the encoding named by charset. An empty name means the
// output is passed through untouched.
func lookupCharset(charset string) (encoding.Encoding, error) {
	switch strings.ToLower(charset) {
	case "":
		return nil, nil
	case "ascii", "us-ascii", "nvt":
		return telnet.ASCII, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", charset, err)
	}
	return enc, nil
}

// newOutput returns a writer that decodes the remote host's output from
// charset to UTF-8 on its way to w. Close flushes it.
func newOutput(w io.Writer, charset string) (io.WriteCloser, error) {
	enc, err := lookupCharset(charset)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nopCloser{w}, nil
	}
	return transform.NewWriter(w, enc.NewDecoder()), nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
