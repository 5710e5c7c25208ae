package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause all active downloads",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL, userName)
		if err := client.post("/api/v1/system/pause", nil, nil); err != nil {
			return err
		}
		fmt.Println("All downloads paused.")
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume all paused downloads",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL, userName)
		if err := client.post("/api/v1/system/resume", nil, nil); err != nil {
			return err
		}
		fmt.Println("All downloads resumed.")
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Clear the daemon's finished download results",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL, userName)
		if err := client.post("/api/v1/system/purge", nil, nil); err != nil {
			return err
		}
		fmt.Println("Download results purged.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pauseCmd, resumeCmd, purgeCmd)
}
