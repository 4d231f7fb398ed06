package cmd

import (
	"fmt"
	"time"

	"codeatlas/internal/analyzer"
	"codeatlas/internal/chunker"
	"codeatlas/internal/ingest"
	"codeatlas/internal/loader"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flagExtensions []string

var indexCmd = &cobra.Command{
	Use:   "index <path>",
	Short: "Analyze a codebase and ingest it into the vector index",
	Args:  cobra.ExactArgs(1),
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
		if len(files) == 0 {
			fmt.Println("No source files found.")
			return nil
		}

		records := analyzer.New(a.log).Analyze(cmd.Context(), files)
		a.log.Info("analysis complete",
			zap.Int("files", len(files)),
			zap.Int("parsed", len(records)))

		emb, err := a.newEmbedder()
		if err != nil {
			return err
		}
		store, err := a.openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		fmt.Printf("Indexing %s...\n", args[0])
		start := time.Now()

		pipeline := ingest.New(chunker.New(a.log), emb, store, a.log)
		result, runErr := pipeline.Run(cmd.Context(), records)
		elapsed := time.Since(start)

		if result != nil {
			fmt.Printf("\nDone in %s\n", elapsed.Round(time.Millisecond))
			fmt.Printf("  Files:   %d total, %d parsed, %d ingested\n",
				len(files), len(records), result.FilesIngested)
			fmt.Printf("  Vectors: %d\n", result.VectorsUpserted)
			for _, f := range result.Files {
				if f.Status == ingest.StatusIngested && f.FailedChunks == 0 {
					continue
				}
				fmt.Printf("  %-8s %s", f.Status, f.Path)
				if f.FailedChunks > 0 {
					fmt.Printf(" (%d/%d chunks failed)", f.FailedChunks, f.Chunks)
				}
				if f.Error != "" {
					fmt.Printf(": %s", f.Error)
				}
				fmt.Println()
			}
		}

		return runErr
	},
}

func init() {
	indexCmd.Flags().StringSliceVar(&flagExtensions, "ext", nil, "source extensions to analyze (default js,jsx,mjs,cjs,ts,tsx)")
	rootCmd.AddCommand(indexCmd)
}
