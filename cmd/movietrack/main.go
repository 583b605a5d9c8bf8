package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"movietrack/cmd/serve"
	"movietrack/cmd/users"
	"movietrack/config"
)

func main() {
	var opts config.LoadOptions

	rootCmd := &cobra.Command{
		Use:           "movietrack",
		Short:         "MovieTrack personal movie and series tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "Path to a config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "Path to a .env file; ignored when missing")

	rootCmd.AddCommand(serve.NewServeCommand(&opts))
	rootCmd.AddCommand(users.NewUsersCommand(&opts))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
