package main

import (
	"fmt"

	"provider-discovery/internal/discovery/ranking"
	"provider-discovery/internal/models"

	"github.com/spf13/cobra"
)

type rankOptions struct {
	analysis        string
	providers       string
	max             int
	reviewThreshold int
	out             string
}

func newRankCmd() *cobra.Command {
	opts := &rankOptions{}
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank providers against a project analysis",
		Long:  "Scores every provider against the analysis produced by classify and prints the matches best first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var analysis models.ProjectAnalysis
			if err := readJSON(opts.analysis, &analysis); err != nil {
				return err
			}
			var providers []models.ProviderRecord
			if err := readJSON(opts.providers, &providers); err != nil {
				return err
			}

			ranker, err := ranking.NewRanker(ranking.DefaultWeights(), opts.reviewThreshold)
			if err != nil {
				return err
			}
			matches := ranker.Rank(analysis, providers)
			if opts.max > 0 && len(matches) > opts.max {
				matches = matches[:opts.max]
			}
			return writeJSON(cmd.OutOrStdout(), opts.out, matches)
		},
	}
	cmd.Flags().StringVarP(&opts.analysis, "analysis", "a", "", "path to a project analysis JSON (required)")
	cmd.Flags().StringVarP(&opts.providers, "providers", "p", "", "path to a JSON array of providers (required)")
	cmd.Flags().IntVar(&opts.max, "max", 0, "maximum matches to print; 0 prints all")
	cmd.Flags().IntVar(&opts.reviewThreshold, "review-threshold", 50, "review count that earns full experience points")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file; stdout when empty")
	for _, name := range []string{"analysis", "providers"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}
	return cmd
}
