package cmd

import (
	"encoding/json"
	"os"

	"codeatlas/internal/analyzer"
	"codeatlas/internal/loader"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flagRecords bool

var graphCmd = &cobra.Command{
	Use:   "graph <path>",
	Short: "Extract the call graph of a codebase as JSON",
	Long: `Analyzes the codebase at <path> and writes its name-based call graph
to stdout as JSON. With --records the raw per-file definitions and calls
are emitted instead of the resolved graph.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.log.Sync()

		files, err := loader.New(flagExtensions, a.log).Load(args[0])
		if err != nil {
			return err
		}

		records := analyzer.New(a.log).Analyze(cmd.Context(), files)
		a.log.Info("analysis complete",
			zap.Int("files", len(files)),
			zap.Int("parsed", len(records)))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if flagRecords {
			return enc.Encode(records)
		}
		return enc.Encode(analyzer.BuildGraph(records))
	},
}

func init() {
	graphCmd.Flags().BoolVar(&flagRecords, "records", false, "emit raw file records instead of the resolved graph")
	graphCmd.Flags().StringSliceVar(&flagExtensions, "ext", nil, "source extensions to analyze (default js,jsx,mjs,cjs,ts,tsx)")
	rootCmd.AddCommand(graphCmd)
}
