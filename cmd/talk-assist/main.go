// Package main provides the talk-assist CLI.
//
// Usage:
//
//	talk-assist [flags] <command> [args]
//
// Commands:
//
//	run       - Interactive voice assistant on the default microphone
//	endpoint  - Endpoint a WAV file offline and write the utterance
//	devices   - List audio devices
//	classify  - Show which canned command a phrase triggers
//
// Configuration:
//
//	Settings come from a YAML file (--config), a .env file and the
//	environment. See pkg/config for the recognized keys.
package main

import (
	"fmt"
	"os"

	"github.com/realtime-ai/talk-assist/cmd/talk-assist/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
