package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/realtime-ai/talk-assist/pkg/device"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		local, err := device.NewLocal()
		if err != nil {
			return err
		}
		defer local.Close()

		capture, err := local.CaptureDevices()
		if err != nil {
			return err
		}
		playback, err := local.PlaybackDevices()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printDevices(out, "Capture devices", capture)
		printDevices(out, "Playback devices", playback)
		return nil
	},
}

func printDevices(w io.Writer, title string, infos []device.Info) {
	fmt.Fprintf(w, "%s:\n", title)
	if len(infos) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, info := range infos {
		marker := " "
		if info.IsDefault {
			marker = "*"
		}
		fmt.Fprintf(w, " %s %d: %s\n", marker, info.Index, info.Name)
	}
}
