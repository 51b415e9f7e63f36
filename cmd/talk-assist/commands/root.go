package commands

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/realtime-ai/talk-assist/pkg/config"
	"github.com/realtime-ai/talk-assist/pkg/trace"
)

var (
	// Global flags
	cfgFile string
	envFile string

	globalConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "talk-assist",
	Short: "Voice assistant with VAD endpointed capture",
	Long: `talk-assist listens on the microphone, cuts one utterance out of the
stream with voice activity detection, transcribes it, answers canned
commands or asks a language model, and speaks the reply.

Examples:
  # Interactive assistant with the default devices
  talk-assist run

  # Use a config file and a different .env
  talk-assist --config talk-assist.yaml --env-file prod.env run

  # Endpoint a recording offline
  talk-assist endpoint sample.wav -o utterance.wav

  # Find the capture device index for audio.device_index
  talk-assist devices

  # Check a phrase against the command table without opening anything
  talk-assist classify open youtube
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		globalConfig = cfg

		traceCfg, err := trace.ConfigFromEnv(os.LookupEnv)
		if err != nil {
			return err
		}
		if err := trace.Initialize(cmd.Context(), traceCfg); err != nil {
			log.Printf("[CLI] Tracing disabled: %v", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := trace.Shutdown(context.Background()); err != nil {
			log.Printf("[CLI] Trace shutdown: %v", err)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (defaults are used when empty)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(endpointCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(classifyCmd)
}

func getConfig() *config.Config {
	return globalConfig
}
