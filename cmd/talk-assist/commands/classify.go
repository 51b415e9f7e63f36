package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/realtime-ai/talk-assist/pkg/command"
)

var classifyExec bool

var classifyCmd = &cobra.Command{
	Use:   "classify <text...>",
	Short: "Show which canned command a phrase triggers",
	Long: `Matches a phrase against the command table the assistant uses on
transcriptions. By default nothing is opened; --exec runs the handler and
prints its reply.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if !classifyExec {
			printMatch(cmd.OutOrStdout(), command.New(), text)
			return nil
		}
		if reply, ok := command.New().Classify(cmd.Context(), text); ok {
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "no command, the responder would answer")
		return nil
	},
}

func printMatch(w io.Writer, c *command.Classifier, text string) {
	name, ok := c.Match(text)
	if !ok {
		fmt.Fprintln(w, "no command, the responder would answer")
		return
	}
	fmt.Fprintf(w, "command: %s\n", name)
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyExec, "exec", false, "run the matched command")
}
