package cmd

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stesla/telscript/telnet"
)

// client is a connected session plus everything the command line hangs off
// it: the decoded output, the transcript and the signal handler.
type client struct {
	*telnet.Session
	cfg telnet.Config

	out        io.WriteCloser
	transcript io.WriteCloser
	sigs       chan os.Signal
}

func dial() (*client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cfg.Fields = log.Fields{"cmd": "telscript"}
	s, err := telnet.New(cfg)
	if err != nil {
		return nil, err
	}

	out, err := newOutput(os.Stdout, viper.GetString("charset"))
	if err != nil {
		return nil, err
	}
	c := &client{Session: s, cfg: cfg, out: out}

	raw := rawLog{logrusLogger: newLogrusLogger(log.StandardLogger(), log.Fields{
		"type": "raw",
		"addr": cfg.Host,
	})}
	if dir := viper.GetString("transcript"); dir != "" {
		if c.transcript, err = openLogFile(dir, cfg.Host); err != nil {
			return nil, err
		}
		raw.w = c.transcript
	}
	s.SetRawLogWriter(raw)

	if err := s.Connect(); err != nil {
		c.closeFiles()
		return nil, err
	}
	c.handleSignals(s.Transport())
	return c, nil
}

// handleSignals closes t on SIGINT or SIGTERM, which makes a blocked read
// see the end of the stream.
func (c *client) handleSignals(t telnet.Transport) {
	c.sigs = make(chan os.Signal, 1)
	signal.Notify(c.sigs, os.Interrupt, syscall.SIGTERM)
	go func(ch chan os.Signal) {
		sig, ok := <-ch
		if !ok {
			return
		}
		log.Infof("received signal '%s', closing connection", sig)
		t.Close()
	}(c.sigs)
}

// login runs the configured login dialog when a user is configured.
func (c *client) login() error {
	if c.cfg.Login.User == "" {
		return nil
	}
	out, err := c.Login(c.cfg.Login)
	c.print(out)
	return err
}

func (c *client) print(s string) {
	if s == "" {
		return
	}
	if _, err := io.WriteString(c.out, s); err != nil {
		log.WithError(err).Warn("writing output")
	}
}

// Close disconnects and prints whatever the host said on the way out.
func (c *client) Close() error {
	err := c.Disconnect()
	c.print(string(c.GetData(0)))
	if c.sigs != nil {
		signal.Stop(c.sigs)
		close(c.sigs)
		c.sigs = nil
	}
	c.closeFiles()
	return err
}

func (c *client) closeFiles() {
	if err := c.out.Close(); err != nil {
		log.WithError(err).Warn("flushing output")
	}
	if c.transcript != nil {
		c.transcript.Close()
	}
}
