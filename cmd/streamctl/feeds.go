package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type feedPayload struct {
	ID          int64      `json:"id"`
	URL         string     `json:"url"`
	Label       string     `json:"label"`
	Patterns    []string   `json:"patterns"`
	LastChecked *time.Time `json:"last_checked"`
}

var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "Manage watched RSS feeds",
}

var feedsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List watched feeds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL, userName)

		var feeds []feedPayload
		if err := client.get("/api/v1/feeds", &feeds); err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(feeds)
		}
		if len(feeds) == 0 {
			fmt.Println("No feeds.")
			return nil
		}
		for _, f := range feeds {
			checked := "never"
			if f.LastChecked != nil {
				checked = f.LastChecked.Format(time.RFC3339)
			}
			fmt.Printf("#%-4d %-20s %s (checked %s)\n", f.ID, f.Label, f.URL, checked)
			if len(f.Patterns) > 0 {
				fmt.Printf("      patterns: %s\n", strings.Join(f.Patterns, ", "))
			}
		}
		return nil
	},
}

var feedsAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Watch a new feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL, userName)
		label, _ := cmd.Flags().GetString("label")
		patterns, _ := cmd.Flags().GetStringSlice("pattern")

		var created feedPayload
		body := map[string]any{"url": args[0], "label": label, "patterns": patterns}
		if err := client.post("/api/v1/feeds", body, &created); err != nil {
			return err
		}
		fmt.Printf("Watching feed #%d: %s\n", created.ID, created.URL)
		return nil
	},
}

var feedsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Stop watching a feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid feed ID: %s", args[0])
		}
		client := NewClient(serverURL, userName)
		if err := client.delete(fmt.Sprintf("/api/v1/feeds/%d", id)); err != nil {
			return err
		}
		fmt.Printf("Removed feed #%d\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(feedsCmd)
	feedsCmd.AddCommand(feedsListCmd, feedsAddCmd, feedsRemoveCmd)

	feedsAddCmd.Flags().String("label", "", "Human-readable feed label")
	feedsAddCmd.Flags().StringSlice("pattern", nil, "Title pattern to match (repeatable; empty matches all)")
}
