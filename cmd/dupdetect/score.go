package main

import (
	"fmt"

	"github.com/spf13/cobra"

	dupdetect "github.com/Silvia-F/di-duplicate-detection"
)

func newScoreCmd() *cobra.Command {
	var metric string
	cmd := &cobra.Command{
		Use:   "score <a> <b>",
		Short: "Print the similarity of two strings",
		Long: `Print the similarity of two strings, raw and truncated to one decimal the
way it appears in the output table. Useful for picking a threshold.`,
		Example: `  dupdetect score "John Smith " "Jon Smith "`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var m dupdetect.SimilarityMetric
			switch metric {
			case "damerau-levenshtein", "dl":
				m = dupdetect.DamerauLevenshteinMetric{}
			case "levenshtein":
				m = dupdetect.LevenshteinMetric{}
			default:
				return fmt.Errorf("unknown metric %q (want damerau-levenshtein or levenshtein)", metric)
			}
			s := m.Similarity(args[0], args[1])
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Similarity: %.4f\n", s)
			fmt.Fprintf(out, "Truncated:  %.1f\n", dupdetect.TruncateScore(s))
			return nil
		},
	}
	cmd.Flags().StringVarP(&metric, "metric", "m", "damerau-levenshtein", "Metric: damerau-levenshtein or levenshtein")
	return cmd
}
