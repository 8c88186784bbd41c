// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-scout/internal/fetch"
	"github.com/pdiddy/paper-scout/internal/pipeline"
	"github.com/pdiddy/paper-scout/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download PDFs for a saved search run",
	Long: `Fetch reads a result file and retrieves a PDF for every record it can,
trying the direct link, OpenAlex open-access resolution, and a fuzzy
arXiv title lookup in turn. Papers without a retrievable PDF are
skipped, not failed.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("results", "results.yaml", "result file from a search run")
	fetchCmd.Flags().String("dest", "papers", "destination directory, one subdirectory per group")
	fetchCmd.Flags().Int("workers", 0, "maximum concurrent downloads (default 8)")
	fetchCmd.Flags().Float64("similarity", 0, "minimum title similarity for fuzzy matches (default 0.8)")
	fetchCmd.Flags().String("mailto", "", "contact address for OpenAlex requests (default: .secrets/openalex-email)")
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	resultsPath, _ := cmd.Flags().GetString("results")
	dest, _ := cmd.Flags().GetString("dest")
	workers, _ := cmd.Flags().GetInt("workers")
	similarity, _ := cmd.Flags().GetFloat64("similarity")
	mailto, _ := cmd.Flags().GetString("mailto")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	rf, err := pipeline.ReadResults(resultsPath)
	if err != nil {
		return err
	}
	if rf.Total == 0 {
		return fmt.Errorf("result file %s has no records", resultsPath)
	}

	cfg := types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		DestRoot:            dest,
		MaxWorkers:          workers,
		SimilarityThreshold: similarity,
		OpenAlexMailto:      secretDefault("openalex-email", mailto),
	}

	summary, err := fetch.New(cfg).FetchGroups(cmd.Context(), rf.Groups, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Downloaded+summary.Skipped == 0 {
		return fmt.Errorf("no PDFs could be retrieved")
	}
	return nil
}
