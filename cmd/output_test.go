package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenLogFile(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		f, err := openLogFile(dir, "example.com")
		require.NoError(t, err)
		_, err = io.WriteString(f, "line\n")
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	name := time.Now().Format("2006-01-02") + "-example.com.log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "line\nline\n", string(data))
}

func TestNewOutput(t *testing.T) {
	tests := []struct {
		charset  string
		in       string
		expected string
	}{
		{"", "caf\xe9", "caf\xe9"},
		{"ascii", "caf\xe9", "caf\x1a"},
		{"latin1", "caf\xe9", "café"},
	}
	for _, test := range tests {
		var buf bytes.Buffer
		w, err := newOutput(&buf, test.charset)
		require.NoError(t, err, test.charset)
		_, err = io.WriteString(w, test.in)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		assert.Equal(t, test.expected, buf.String(), test.charset)
	}

	_, err := newOutput(io.Discard, "klingon")
	assert.Error(t, err)
}

func TestRawLog(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.TraceLevel)
	var logged bytes.Buffer
	logger.SetOutput(&logged)

	var transcript bytes.Buffer
	raw := rawLog{logrusLogger: newLogrusLogger(logger, logrus.Fields{"type": "raw"}), w: &transcript}
	n, err := raw.Write([]byte("hi\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "hi\r\n", transcript.String())
	assert.Contains(t, logged.String(), `recv(\"hi\\r\\n\")`)

	n, err = rawLog{logrusLogger: newLogrusLogger(logger, nil)}.Write([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
