package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type statusPayload struct {
	Status string `json:"status"`
	Daemon string `json:"daemon"`
	Stats  *struct {
		DownloadSpeed int64 `json:"download_speed"`
		NumActive     int   `json:"num_active"`
		NumWaiting    int   `json:"num_waiting"`
		NumStopped    int   `json:"num_stopped"`
	} `json:"stats"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server and download daemon status",
	Args:  cobra.NoArgs,
	RunE:  runStatusCmd,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatusCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL, userName)

	var st statusPayload
	if err := client.get("/api/v1/system/status", &st); err != nil {
		return fmt.Errorf("status check failed: %w", err)
	}

	if jsonOutput {
		return printJSON(st)
	}

	fmt.Printf("Server:  %s\n", st.Status)
	fmt.Printf("Daemon:  %s\n", st.Daemon)
	if st.Stats != nil {
		fmt.Printf("Active:  %d (%.1f KiB/s)\n", st.Stats.NumActive, float64(st.Stats.DownloadSpeed)/1024)
		fmt.Printf("Waiting: %d\n", st.Stats.NumWaiting)
		fmt.Printf("Stopped: %d\n", st.Stats.NumStopped)
	}
	return nil
}
