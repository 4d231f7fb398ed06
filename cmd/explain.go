package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var explainCmd = &cobra.Command{
	Use:   "explain <function>",
	Short: "Explain a function using the indexed codebase",
	Long: `Retrieves every indexed definition and call of the named function and
asks the configured LLM for a structured markdown explanation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.log.Sync()

		composer, store, err := a.newComposer()
		if err != nil {
			return err
		}
		defer store.Close()

		explanation, err := composer.ExplainFunction(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(explanation)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(explainCmd)
}
