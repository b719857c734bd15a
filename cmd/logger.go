package cmd

import (
	"io"

	"github.com/sirupsen/logrus"
)

type logrusLogger struct {
	log    *logrus.Logger
	fields logrus.Fields
}

func newLogrusLogger(log *logrus.Logger, fields logrus.Fields) *logrusLogger {
	return &logrusLogger{
		log:    log,
		fields: fields,
	}
}

func (l logrusLogger) logEntry() *logrus.Entry {
	return l.log.WithFields(l.fields)
}

func (l logrusLogger) traceIO(name string, fn func([]byte) (int, error), buf []byte) (n int, err error) {
	entry := l.logEntry()
	n, err = fn(buf)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Tracef("%s(%q)", name, buf[:n])
	return n, err
}

// rawLog receives every byte read from the network. It traces the bytes and
// copies them to the transcript, if there is one.
type rawLog struct {
	*logrusLogger
	w io.Writer
}

func (r rawLog) Write(p []byte) (int, error) {
	w := r.w
	if w == nil {
		w = io.Discard
	}
	return r.traceIO("recv", w.Write, p)
}
