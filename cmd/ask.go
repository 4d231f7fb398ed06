package cmd

import (
	"errors"
	"fmt"
	"strings"

	"codeatlas/internal/explain"

	"github.com/spf13/cobra"
)

var flagRaw bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a free-form question about the indexed codebase",
	Long: `Retrieves the chunks most relevant to the question and asks the
configured LLM for a structured answer: a summary, a detailed explanation,
and supporting code snippets. With --raw the model's unparsed response is
printed instead.`,
	Args: cobra.MinimumNArgs(1),
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

		question := strings.Join(args, " ")
		explanation, raw, err := composer.Explain(cmd.Context(), question)
		if flagRaw {
			if raw != "" {
				fmt.Println(raw)
			}
			if err != nil && !errors.Is(err, explain.ErrInvalidResponse) {
				return err
			}
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("Summary: %s\n\n%s\n", explanation.Summary, explanation.DetailedExplanation)
		for _, s := range explanation.CodeSnippets {
			fmt.Printf("\n%s:\n%s\n", s.Description, s.Snippet)
		}
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&flagRaw, "raw", false, "print the model's raw response without parsing")
	rootCmd.AddCommand(askCmd)
}
