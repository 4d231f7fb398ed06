package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var flagTopK int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the index and print the matching chunks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.log.Sync()

		engine, store, err := a.newRetriever()
		if err != nil {
			return err
		}
		defer store.Close()

		topK := flagTopK
		if topK <= 0 {
			topK = a.cfg.TopK
		}

		query := strings.Join(args, " ")
		chunks, err := engine.Retrieve(cmd.Context(), query, topK)
		if err != nil {
			return err
		}

		if len(chunks) == 0 {
			fmt.Printf("No results for %q.\n", query)
			return nil
		}
		for i, c := range chunks {
			fmt.Printf("%d. [%s] %s\n   %s\n\n", i+1, c.Type, c.Filename, c.Content)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&flagTopK, "top-k", "k", 0, "number of chunks to return (default from config)")
	rootCmd.AddCommand(searchCmd)
}
