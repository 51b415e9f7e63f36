package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/realtime-ai/talk-assist/pkg/device"
	"github.com/realtime-ai/talk-assist/pkg/endpoint"
)

var (
	endpointOutput string
	endpointPace   bool
)

var endpointCmd = &cobra.Command{
	Use:   "endpoint <file.wav>",
	Short: "Endpoint a WAV file offline",
	Long: `Run the endpointer over a WAV file exactly as it runs on the microphone
and report the outcome. The file must use the configured sample rate;
multi-channel files are downmixed.

Examples:
  talk-assist endpoint sample.wav
  talk-assist endpoint sample.wav -o utterance.wav
  talk-assist endpoint sample.wav --pace   # feed frames in real time`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		ec, err := cfg.EndpointerConfig()
		if err != nil {
			return err
		}

		src, err := device.OpenFile(args[0], ec.FrameSamples)
		if err != nil {
			return err
		}
		if src.SampleRate() != ec.SampleRate {
			return fmt.Errorf("%s is %d Hz but audio.sample_rate is %d", src.Path(), src.SampleRate(), ec.SampleRate)
		}
		if endpointPace {
			src.WithPace(ec.FrameDuration())
		}

		scorer, err := newScorer(cfg, ec)
		if err != nil {
			return err
		}
		defer closeScorer(cfg, scorer)

		ep, err := endpoint.New(ec, scorer)
		if err != nil {
			return err
		}

		r := endpoint.Capture(cmd.Context(), src, ep)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "outcome: %s\n", r.Outcome)
		fmt.Fprintf(out, "frames processed: %d of %d\n", r.FramesProcessed, src.Len())
		if r.Err != nil {
			fmt.Fprintf(out, "error: %v\n", r.Err)
		}
		if u := r.Utterance; u != nil {
			fmt.Fprintf(out, "utterance: %s, %v, %d frames (%d lead-in, %d voiced, %d trailing)\n",
				u.ID, u.Duration(), u.Frames, u.LeadInFrames, u.VoicedFrames, u.TrailingFrames)
		}

		if endpointOutput != "" {
			if !r.HasAudio() {
				return fmt.Errorf("no utterance to write")
			}
			if err := r.Utterance.Save(endpointOutput); err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote %s\n", endpointOutput)
		}
		if r.Outcome.IsError() {
			return r.Err
		}
		return nil
	},
}

func init() {
	endpointCmd.Flags().StringVarP(&endpointOutput, "output", "o", "", "write the utterance to this WAV file")
	endpointCmd.Flags().BoolVar(&endpointPace, "pace", false, "deliver frames at real-time speed")
}
