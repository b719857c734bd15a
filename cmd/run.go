package cmd

import (
	"github.com/spf13/cobra"
)

var (
	runCmd = &cobra.Command{
		Use:   "run [command...]",
		Short: "log in, run each command and wait for the prompt after it",
		Long: `Connects to the host, logs in when login.user is configured, and sends
each command in turn, waiting for the prompt after each one. With no
commands it prints whatever the host sends until it goes quiet.`,
		RunE: run,
	}
)

func init() {
	rootCmd.AddCommand(runCmd)
}

func run(cmd *cobra.Command, args []string) (err error) {
	c, err := dial()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}()

	if err = c.login(); err != nil {
		return err
	}
	if len(args) == 0 {
		_, err = c.Drain()
		c.print(string(c.GetData(0)))
		return err
	}
	out, err := c.Cmd(args...)
	c.print(out)
	return err
}
