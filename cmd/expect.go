package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stesla/telscript/telnet"
)

var (
	expectCmd = &cobra.Command{
		Use:   "expect pattern=reply...",
		Short: "send the reply for whichever pattern the host prints first",
		Long: `Each argument pairs a pattern with a reply. The first pattern the host's
output ends with wins, in argument order. A lone "=reply" sends the reply
once the host goes quiet.`,
		Args: cobra.MinimumNArgs(1),
		RunE: expect,
	}
)

func init() {
	rootCmd.AddCommand(expectCmd)
}

func parseResponses(args []string) ([]telnet.Response, error) {
	responses := make([]telnet.Response, 0, len(args))
	for _, arg := range args {
		pattern, reply, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected pattern=reply, got %q", arg)
		}
		responses = append(responses, telnet.Response{Pattern: pattern, Reply: reply})
	}
	return responses, nil
}

func expect(cmd *cobra.Command, args []string) (err error) {
	responses, err := parseResponses(args)
	if err != nil {
		return err
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

	if err = c.login(); err != nil {
		return err
	}
	err = c.Expect(responses...)
	c.print(string(c.GetData(0)))
	return err
}
