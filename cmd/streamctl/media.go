package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

type mediaPayload struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Type     string   `json:"type"`
	Format   string   `json:"format"`
	Genres   []string `json:"genres"`
}

type mediaListPayload struct {
	Items []mediaPayload `json:"items"`
	Total int            `json:"total"`
}

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Browse the media catalog",
}

var mediaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL, userName)
		query, _ := cmd.Flags().GetString("search")
		category, _ := cmd.Flags().GetString("category")

		params := url.Values{}
		if query != "" {
			params.Set("q", query)
		}
		if category != "" {
			params.Set("category", category)
		}
		path := "/api/v1/media"
		if len(params) > 0 {
			path += "?" + params.Encode()
		}

		var list mediaListPayload
		if err := client.get(path, &list); err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(list)
		}
		if list.Total == 0 {
			fmt.Println("Catalog is empty.")
			return nil
		}
		fmt.Printf("%-36s %-10s %-6s %s\n", "ID", "CATEGORY", "TYPE", "TITLE")
		for _, m := range list.Items {
			fmt.Printf("%-36s %-10s %-6s %s\n", m.ID, m.Category, m.Type, m.Title)
		}
		fmt.Printf("\n%d total\n", list.Total)
		return nil
	},
}

var mediaDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a catalog entry and its files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL, userName)
		if err := client.delete("/api/v1/media/" + args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mediaCmd)
	mediaCmd.AddCommand(mediaListCmd, mediaDeleteCmd)

	mediaListCmd.Flags().String("search", "", "Filter by title substring")
	mediaListCmd.Flags().String("category", "", "Filter by category: movie, series, or animation")
}
