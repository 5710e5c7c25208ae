package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

type downloadPayload struct {
	ID         int64     `json:"id"`
	Status     string    `json:"status"`
	SourceKind string    `json:"source_kind"`
	SourceURL  string    `json:"source_url"`
	Progress   float64   `json:"progress"`
	Error      string    `json:"error"`
	AddedAt    time.Time `json:"added_at"`
}

var downloadsCmd = &cobra.Command{
	Use:   "downloads",
	Short: "Manage download jobs",
}

var downloadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List download jobs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL, userName)
		activeOnly, _ := cmd.Flags().GetBool("active")

		path := "/api/v1/downloads"
		if activeOnly {
			path += "?active=true"
		}
		var jobs []downloadPayload
		if err := client.get(path, &jobs); err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(jobs)
		}
		if len(jobs) == 0 {
			fmt.Println("No downloads.")
			return nil
		}
		fmt.Printf("%-5s %-12s %-8s %8s  %s\n", "ID", "STATUS", "KIND", "PROGRESS", "SOURCE")
		for _, j := range jobs {
			fmt.Printf("%-5d %-12s %-8s %7.1f%%  %s\n", j.ID, j.Status, j.SourceKind, j.Progress, j.SourceURL)
		}
		return nil
	},
}

var downloadsAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Submit a new download",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL, userName)
		kind, _ := cmd.Flags().GetString("kind")

		var job downloadPayload
		body := map[string]string{"url": args[0], "kind": kind}
		if err := client.post("/api/v1/downloads", body, &job); err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(job)
		}
		fmt.Printf("Submitted download #%d (%s)\n", job.ID, job.Status)
		return nil
	},
}

var downloadsCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel a download job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid download ID: %s", args[0])
		}
		client := NewClient(serverURL, userName)
		if err := client.delete(fmt.Sprintf("/api/v1/downloads/%d", id)); err != nil {
			return err
		}
		fmt.Printf("Cancelled download #%d\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadsCmd)
	downloadsCmd.AddCommand(downloadsListCmd, downloadsAddCmd, downloadsCancelCmd)

	downloadsListCmd.Flags().Bool("active", false, "Only pending and running jobs")
	downloadsAddCmd.Flags().String("kind", "direct", "Source kind: direct, magnet, or file")
}
