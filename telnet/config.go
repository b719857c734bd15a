package telnet

import (
	"fmt"
	"net"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultPort         = "23"
	DefaultTimeout      = 6 * time.Second
	DefaultPagePrompt   = " --More-- "
	DefaultPageContinue = " "
)

// Config enumerates every setting a Session recognizes.
type Config struct {
	Host    string        `mapstructure:"host"`
	Port    string        `mapstructure:"port"`
	Timeout time.Duration `mapstructure:"timeout"`

	// Prompt is the command interpreter prompt WaitFor and Cmd wait for.
	Prompt string `mapstructure:"prompt"`

	// Pager makes the session answer PagePrompt with PageContinue.
	Pager        bool   `mapstructure:"pager"`
	PagePrompt   string `mapstructure:"page_prompt"`
	PageContinue string `mapstructure:"page_continue"`

	EchoMode EchoMode `mapstructure:"echo"`

	// Telnet turns protocol interpretation on. With it off the session is a
	// plain byte stream.
	Telnet bool `mapstructure:"telnet"`

	// TelnetBugs works around peers that keep a single SUPPRESS-GO-AHEAD
	// state for both directions, strip BINARY, or send malformed commands.
	TelnetBugs bool `mapstructure:"telnet_bugs"`

	// Linefeeds translates CR LF to LF on input and LF to CR LF in Println.
	Linefeeds bool `mapstructure:"linefeeds"`

	Login LoginProfile `mapstructure:"login"`

	Fields log.Fields `mapstructure:"-"`

	port int
}

func DefaultConfig() Config {
	return Config{
		Port:         DefaultPort,
		Timeout:      DefaultTimeout,
		PagePrompt:   DefaultPagePrompt,
		PageContinue: DefaultPageContinue,
		EchoMode:     EchoDefault,
		Telnet:       true,
		TelnetBugs:   true,
		Linefeeds:    true,
		Login:        DefaultLoginProfile(),
	}
}

// Validate checks the port and timeout and resolves a service name given
// as the port.
func (c *Config) Validate() error {
	port, err := resolvePort(c.Port)
	if err != nil {
		return err
	}
	c.port = port
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, c.Timeout)
	}
	if !c.EchoMode.valid() {
		return fmt.Errorf("%w: %q", ErrInvalidEchoMode, c.EchoMode)
	}
	return nil
}

func resolvePort(s string) (int, error) {
	if s == "" {
		s = DefaultPort
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 || n > 65535 {
			return 0, fmt.Errorf("%w: %d", ErrInvalidPort, n)
		}
		return n, nil
	}
	n, err := net.LookupPort("tcp", s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPort, s)
	}
	return n, nil
}
