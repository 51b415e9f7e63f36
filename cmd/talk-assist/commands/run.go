package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/realtime-ai/talk-assist/pkg/assistant"
	"github.com/realtime-ai/talk-assist/pkg/command"
	"github.com/realtime-ai/talk-assist/pkg/config"
	"github.com/realtime-ai/talk-assist/pkg/device"
	"github.com/realtime-ai/talk-assist/pkg/endpoint"
	"github.com/realtime-ai/talk-assist/pkg/status"
	"github.com/realtime-ai/talk-assist/pkg/tts"
)

var autoTranscribe bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interactive assistant",
	Long: `Run the assistant on the default audio devices.

Keys (followed by Enter):
  <Enter> or l   listen for one utterance
  c              cancel the capture in progress
  t              transcribe the last utterance and answer it
  r              answer the last transcription again
  p              play back the last utterance
  s <path>       save the last utterance as WAV
  q              say goodbye and quit

The status feed is served on ws://<status.addr>/status with Prometheus
metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runAssistant(ctx, getConfig(), os.Stdin, cmd.OutOrStdout())
	},
}

func init() {
	runCmd.Flags().BoolVar(&autoTranscribe, "auto", true, "transcribe and answer every captured utterance")
}

func runAssistant(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	ec, err := cfg.EndpointerConfig()
	if err != nil {
		return err
	}

	scorer, err := newScorer(cfg, ec)
	if err != nil {
		return err
	}
	defer closeScorer(cfg, scorer)

	transcriber, err := newTranscriber(cfg)
	if err != nil {
		return err
	}
	responder, err := newResponder(cfg)
	if err != nil {
		return err
	}
	provider, err := newTTSProvider(cfg)
	if err != nil {
		return err
	}

	local, err := device.NewLocal()
	if err != nil {
		return err
	}
	defer local.Close()

	sinks := status.Multi{status.NewTerminal(out)}
	var servers []assistant.Server
	if cfg.Status.Addr != "" {
		hubCfg := status.DefaultHubConfig()
		hubCfg.Addr = cfg.Status.Addr
		hub := status.NewHub(hubCfg)
		sinks = append(sinks, hub)
		servers = append(servers, hub)
	}

	acfg := assistant.Config{
		Endpoint: ec,
		Scorer:   scorer,
		Open: func(ctx context.Context) (endpoint.FrameSource, error) {
			stream, err := local.OpenCapture(ctx, device.CaptureConfig{
				SampleRate:   ec.SampleRate,
				FrameSamples: ec.FrameSamples,
				DeviceIndex:  cfg.Audio.DeviceIndex,
				QueueFrames:  cfg.Audio.QueueFrames,
			})
			if err != nil {
				return nil, err
			}
			return stream, nil
		},
		Transcriber:    transcriber,
		Language:       cfg.STT.Language,
		Classifier:     command.New(),
		Responder:      responder,
		Player:         local,
		Status:         sinks,
		Servers:        servers,
		RecordingPath:  cfg.RecordingPath,
		AutoTranscribe: autoTranscribe,
	}
	if provider != nil {
		speaker := tts.NewSpeaker(provider, local)
		speaker.Voice = cfg.TTS.Voice
		speaker.Language = cfg.TTS.Language
		acfg.Speaker = speaker
	}
	if cfg.RecordingsDir != "" {
		if err := os.MkdirAll(cfg.RecordingsDir, 0o755); err != nil {
			return fmt.Errorf("create recordings dir: %w", err)
		}
	}

	a, err := assistant.New(acfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(ctx) }()

	go func() {
		readKeys(ctx, a, in, out)
		cancel()
	}()

	return <-errCh
}

// readKeys drives the assistant from line-based input until EOF or "q".
func readKeys(ctx context.Context, a *assistant.Assistant, in io.Reader, out io.Writer) {
	fmt.Fprintln(out, "Press Enter to talk, q to quit.")
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, arg, _ := strings.Cut(line, " ")

		var err error
		switch key {
		case "", "l":
			err = a.Listen(ctx)
		case "c":
			if !a.Cancel() {
				fmt.Fprintln(out, "Not listening")
			}
		case "t":
			_, err = a.Transcribe(ctx)
		case "r":
			_, err = a.Respond(ctx)
		case "p":
			err = a.Playback(ctx)
		case "s":
			err = a.Save(ctx, strings.TrimSpace(arg))
		case "q":
			if err := a.Say(ctx, assistant.GoodbyeMessage); err != nil {
				log.Printf("[CLI] %v", err)
			}
			return
		default:
			fmt.Fprintf(out, "Unknown key %q\n", key)
		}
		if err != nil {
			log.Printf("[CLI] %v", err)
		}
	}
}
