package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/stesla/telscript/telnet"
	"gopkg.in/yaml.v3"
)

var (
	scriptCmd = &cobra.Command{
		Use:   "script FILE",
		Short: "run the steps of a YAML script",
		Long: `A script is a list of steps. A bare string is a command, sent as a line
before waiting for the prompt. Any other step is a map with one of:

  waitfor: PATTERN           wait for PATTERN (or the prompt, if empty)
  send: TEXT                 send TEXT as is
  expect: PATTERN            wait for PATTERN and send reply
  reply: TEXT
  responses:                 several patterns, first match wins
    - {pattern: P, reply: R}
  login: {user: U, password: P, ...}`,
		Args: cobra.ExactArgs(1),
		RunE: script,
	}
)

func init() {
	rootCmd.AddCommand(scriptCmd)
}

// Script is either a bare list of steps or a map with a steps key.
type Script struct {
	Steps []Step `yaml:"steps"`
}

func (sc *Script) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		return value.Decode(&sc.Steps)
	}
	type plain Script
	return value.Decode((*plain)(sc))
}

// Step is one action of a script. Exactly one of its fields is set.
type Step struct {
	Cmd       string
	WaitFor   *string
	Send      *string
	Responses []telnet.Response
	Login     *telnet.LoginProfile
}

var errEmptyStep = errors.New("step does nothing")

func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&s.Cmd)
	}

	var fields struct {
		WaitFor   *string           `yaml:"waitfor"`
		Send      *string           `yaml:"send"`
		Expect    *string           `yaml:"expect"`
		Reply     string            `yaml:"reply"`
		Responses []telnet.Response `yaml:"responses"`
		Login     yaml.Node         `yaml:"login"`
	}
	if err := value.Decode(&fields); err != nil {
		return err
	}

	s.WaitFor = fields.WaitFor
	s.Send = fields.Send
	s.Responses = fields.Responses
	if fields.Expect != nil {
		s.Responses = append([]telnet.Response{{Pattern: *fields.Expect, Reply: fields.Reply}}, s.Responses...)
	}
	if !fields.Login.IsZero() {
		p := telnet.DefaultLoginProfile()
		if err := fields.Login.Decode(&p); err != nil {
			return err
		}
		s.Login = &p
	}

	n := 0
	for _, set := range []bool{s.WaitFor != nil, s.Send != nil, len(s.Responses) > 0, s.Login != nil} {
		if set {
			n++
		}
	}
	switch {
	case n == 0:
		return fmt.Errorf("line %d: %w", value.Line, errEmptyStep)
	case n > 1:
		return fmt.Errorf("line %d: a step may only do one thing", value.Line)
	}
	return nil
}

// run performs the step and copies whatever it read to w.
func (s Step) run(sess *telnet.Session, w io.Writer) error {
	var (
		out string
		err error
	)
	switch {
	case s.WaitFor != nil:
		out, err = sess.WaitFor(*s.WaitFor)
	case s.Send != nil:
		err = sess.Send(*s.Send)
	case len(s.Responses) > 0:
		err = sess.Expect(s.Responses...)
		out = string(sess.GetData(0))
	case s.Login != nil:
		out, err = sess.Login(*s.Login)
	default:
		out, err = sess.Cmd(s.Cmd)
	}
	if out != "" {
		io.WriteString(w, out)
	}
	return err
}

func loadScript(r io.Reader) (*Script, error) {
	var sc Script
	if err := yaml.NewDecoder(r).Decode(&sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Script) run(sess *telnet.Session, w io.Writer) error {
	for i, step := range sc.Steps {
		if err := step.run(sess, w); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func script(cmd *cobra.Command, args []string) (err error) {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	sc, err := loadScript(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	c, err := dial()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}()
	return sc.run(c.Session, c.out)
}
