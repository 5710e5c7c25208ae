package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	serverURL  string
	userName   string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "streamctl",
	Short: "CLI client for the streamcloud media server",
	Long: `streamctl - CLI client for the streamcloud media server

Manage the media catalog, downloads, and watched feeds from the
command line.

Run 'streamcloudd' to start the server daemon.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8484", "Server URL")
	rootCmd.PersistentFlags().StringVar(&userName, "user", "admin", "User identity sent to the server")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("streamctl {{.Version}}\n")
}
