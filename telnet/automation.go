package telnet

import (
	"fmt"
	"strings"
)

// LoginProfile describes a login dialog. Every field is optional; a step
// whose prompt is empty is skipped.
type LoginProfile struct {
	LoginPrompt    string `mapstructure:"login_prompt" yaml:"login_prompt"`
	PasswordPrompt string `mapstructure:"password_prompt" yaml:"password_prompt"`

	// Success defaults to the command prompt. Without Failure, a failed login
	// shows up as a timeout or a closed connection.
	Success string `mapstructure:"success" yaml:"success"`
	Failure string `mapstructure:"failure" yaml:"failure"`

	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
}

func DefaultLoginProfile() LoginProfile {
	return LoginProfile{
		LoginPrompt:    "Login: ",
		PasswordPrompt: "Password: ",
	}
}

// Response pairs a pattern with the reply Expect sends when it matches.
type Response struct {
	Pattern string `yaml:"pattern"`
	Reply   string `yaml:"reply"`
}

// WaitFor reads until the input ends with pattern, or with the prompt when
// pattern is empty, and returns everything in the read buffer. When the
// pattern is not seen, whatever was read is returned along with the error.
func (s *Session) WaitFor(pattern string) (string, error) {
	if pattern == "" {
		pattern = s.prompt
	}
	if pattern == "" {
		if !s.Online() {
			return "", ErrOffline
		}
		return string(s.GetData(0)), nil
	}
	if s.t == nil {
		return "", ErrOffline
	}
	if s.t.AtEOF() {
		s.close()
		return string(s.GetData(0)), nil
	}
	_, found, err := s.ReadStream(ReadOptions{Patterns: []string{pattern}})
	if err != nil {
		return string(s.GetData(0)), err
	}
	if !found {
		s.log.Debugf("waitfor: read_stream(%q) failed", pattern)
		return string(s.GetData(0)), fmt.Errorf("%w: %q", ErrNotFound, pattern)
	}
	return string(s.GetData(0)), nil
}

// Cmd sends each command as a line and waits for the prompt after it. The
// output of every command is concatenated. The first failure stops the
// sequence; the output gathered up to that point is returned with the error.
func (s *Session) Cmd(cmds ...string) (string, error) {
	if len(cmds) == 0 {
		cmds = []string{""}
	}
	var out strings.Builder
	for i, cmd := range cmds {
		if err := s.Println(cmd); err != nil {
			return out.String(), err
		}
		ret, err := s.WaitFor(s.prompt)
		out.WriteString(ret)
		if err != nil {
			s.log.Debugf("cmd: waitfor(%q) failed, aborting %d further commands", s.prompt, len(cmds)-i-1)
			return out.String(), err
		}
	}
	return out.String(), nil
}

// Expect reads until the input ends with one of the patterns and sends the
// reply paired with the pattern that matched. Patterns are tried in order.
// A single response with an empty pattern drains the input and then sends
// its reply unconditionally.
func (s *Session) Expect(responses ...Response) error {
	return s.expect(responses, true)
}

func (s *Session) expect(responses []Response, echo bool) error {
	if len(responses) == 1 && responses[0].Pattern == "" {
		s.log.Debug("expect: reading stream, with nothing to watch for")
		if _, err := s.Drain(); err != nil {
			return err
		}
		return s.send(responses[0].Reply, echo)
	}

	patterns := make([]string, 0, len(responses))
	for _, r := range responses {
		if r.Pattern != "" {
			s.log.Debugf("expect: watching for %q", r.Pattern)
			patterns = append(patterns, r.Pattern)
		}
	}
	if len(patterns) == 0 {
		return ErrNoPatterns
	}

	_, found, err := s.ReadStream(ReadOptions{Patterns: patterns})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrNotFound, patterns)
	}
	for _, r := range responses {
		if r.Pattern == s.lastMatch {
			s.log.Debugf("expect: found %q", r.Pattern)
			return s.send(r.Reply, echo)
		}
	}
	return fmt.Errorf("%w: %q", ErrNotFound, patterns)
}

// Login runs the dialog described by p, connecting first if the session is
// offline. It returns what the host printed once the login completed, or
// what had been read when it failed.
func (s *Session) Login(p LoginProfile) (string, error) {
	if p.Success == "" {
		if s.prompt == "" {
			return "", ErrNoLoginSuccess
		}
		s.log.Debugf("login_success defaulting to %q", s.prompt)
		p.Success = s.prompt
	}

	if !s.Online() {
		if err := s.Connect(); err != nil {
			return "", err
		}
	}
	if err := s.flush(); err != nil {
		return "", err
	}

	if p.LoginPrompt != "" {
		s.log.Debugf("login: waiting for login prompt: %q", p.LoginPrompt)
		if err := s.expect([]Response{{p.LoginPrompt, p.User + "\r"}}, true); err != nil {
			return string(s.GetData(0)), fmt.Errorf("telnet: login: no login prompt: %w", err)
		}
	}

	if p.PasswordPrompt != "" {
		s.log.Debugf("login: waiting for password prompt: %q", p.PasswordPrompt)
		if err := s.expect([]Response{{p.PasswordPrompt, p.Password + "\r"}}, false); err != nil {
			return string(s.GetData(0)), fmt.Errorf("telnet: login: no password prompt: %w", err)
		}
	}

	patterns := []string{p.Success}
	if p.Failure != "" {
		s.log.Debug("login: looking for login success or fail prompt")
		patterns = append(patterns, p.Failure)
	} else {
		s.log.Debug("login: looking for login success prompt")
	}
	_, found, err := s.ReadStream(ReadOptions{Patterns: patterns})
	if err != nil {
		return string(s.GetData(0)), err
	}
	if !found {
		return string(s.GetData(0)), fmt.Errorf("telnet: login: failed to complete login: %w", ErrNotFound)
	}
	if s.lastMatch != p.Success {
		return string(s.GetData(0)), ErrLoginFailed
	}
	s.log.Debug("login: login was successful")

	if p.Success != s.prompt {
		s.log.Debugf("login: waiting for command prompt: %q", s.prompt)
		ret, err := s.WaitFor(s.prompt)
		if err != nil {
			return ret, fmt.Errorf("telnet: login: didn't find prompt: %w", err)
		}
		return ret, nil
	}
	return string(s.GetData(0)), nil
}
