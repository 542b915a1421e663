package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	serviceURL string
	token      string
	debug      bool
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cloudlyctl",
		Short:         "CLI client for the Cloudly service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Logger = log.Output(zerolog.ConsoleWriter{
				Out:        os.Stderr,
				TimeFormat: "2006-01-02 15:04:05",
				NoColor:    true,
			})
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&serviceURL, "service-url", getEnv("CLOUDLY_SERVICE_URL", "http://localhost:8080"), "Base URL of the Cloudly service")
	rootCmd.PersistentFlags().StringVar(&token, "token", getEnv("CLOUDLY_TOKEN", "sk_local_cloudly_dev_key"), "Bearer token")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")

	rootCmd.AddCommand(newRecipientsCmd())
	rootCmd.AddCommand(newMessagesCmd())
	rootCmd.AddCommand(newAssistantCmd())
	rootCmd.AddCommand(newVoiceCmd())
	rootCmd.AddCommand(newTokenCmd())
	return rootCmd
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
