package telnet

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Log is the diagnostic sink used by a Session. *logrus.Entry satisfies it.
type Log interface {
	Debug(...interface{})
	Debugf(string, ...interface{})
	Trace(...interface{})
	Tracef(string, ...interface{})
}

type maybeLog struct {
	log Log
}

func newDefaultLog(fields log.Fields) *maybeLog {
	return &maybeLog{log: log.WithFields(fields)}
}

func (l *maybeLog) Debug(args ...interface{}) {
	if l.log != nil {
		l.log.Debug(args...)
	}
}

func (l *maybeLog) Debugf(fmt string, args ...interface{}) {
	if l.log != nil {
		l.log.Debugf(fmt, args...)
	}
}

func (l *maybeLog) Trace(args ...interface{}) {
	if l.log != nil {
		l.log.Trace(args...)
	}
}

func (l *maybeLog) Tracef(fmt string, args ...interface{}) {
	if l.log != nil {
		l.log.Tracef(fmt, args...)
	}
}

// formatCommand renders a command sequence the way it is logged, e.g.
// "IAC DO ECHO" or "IAC SB NAWS \x00P\x00\x18 IAC SE".
func formatCommand(cmd Command, opt Option, payload []byte) string {
	var b strings.Builder
	b.WriteString("IAC ")
	b.WriteString(cmd.String())
	switch {
	case cmd.negotiation():
		b.WriteString(" " + opt.String())
	case cmd == SB:
		fmt.Fprintf(&b, " %s %q IAC SE", opt, payload)
	}
	return b.String()
}
