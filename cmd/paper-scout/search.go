// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-scout/internal/pipeline"
	"github.com/pdiddy/paper-scout/internal/scholar"
	"github.com/pdiddy/paper-scout/internal/venues"
	"github.com/pdiddy/paper-scout/pkg/types"
)

const (
	defaultTimeout    = 60 * time.Second
	defaultQueryDelay = 1 * time.Second
	defaultUserAgent  = "paper-scout/0.1"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the citation graph for papers matching configured topics",
	Long: `Search runs every topic in the topics file against the Semantic Scholar
API, filters the results by venue, year, and keywords, and writes the
grouped records to a result file for the fetch and report stages.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("topics", "topics.yaml", "topics file with settings and research directions")
	searchCmd.Flags().String("venues", "venues.yaml", "venue definitions file")
	searchCmd.Flags().String("out", "results.yaml", "result file to write")
	searchCmd.Flags().String("group-by", "category", "grouping key: category or direction")
	searchCmd.Flags().String("api-key", "", "Semantic Scholar API key (default: .secrets/semantic-scholar-api-key)")
	searchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	searchCmd.Flags().Bool("bulk", false, "use one merged bulk query per topic instead of one query per keyword group")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	topicsPath, _ := cmd.Flags().GetString("topics")
	venuesPath, _ := cmd.Flags().GetString("venues")
	outPath, _ := cmd.Flags().GetString("out")
	groupBy, _ := cmd.Flags().GetString("group-by")
	apiKey, _ := cmd.Flags().GetString("api-key")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	bulk, _ := cmd.Flags().GetBool("bulk")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	defs, err := venues.Load(venuesPath)
	if err != nil {
		return err
	}
	for _, warning := range defs.Validate() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}

	tf, err := pipeline.LoadTopics(topicsPath)
	if err != nil {
		return err
	}
	if bulk {
		tf.Settings.Bulk = true
	}

	cfg := types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		ScholarAPIKey:   secretDefault("semantic-scholar-api-key", apiKey),
		InterQueryDelay: defaultQueryDelay,
	}
	client := &scholar.Client{
		Client: &http.Client{Timeout: cfg.Timeout},
		APIKey: cfg.ScholarAPIKey,
	}

	groups, warnings, err := pipeline.RunBatch(cmd.Context(), client, tf.Topics, tf.Settings,
		defs, cfg, pipeline.Grouping(groupBy), os.Stdout)
	if err != nil {
		return err
	}

	if err := pipeline.WriteResults(outPath, tf.Settings, groups, warnings); err != nil {
		return err
	}
	total := 0
	for _, records := range groups {
		total += len(records)
	}
	fmt.Printf("wrote %d records in %d groups to %s\n", total, len(groups), outPath)
	return nil
}
