// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-scout/internal/arxiv"
	"github.com/pdiddy/paper-scout/internal/pipeline"
	"github.com/pdiddy/paper-scout/pkg/types"
)

var arxivCmd = &cobra.Command{
	Use:   "arxiv",
	Short: "Collect recently updated arXiv preprints for configured topics",
	Long: `Arxiv searches arXiv for preprints updated within the recency window,
filters them by subject, author count, and keywords, and writes the
records grouped by direction to a result file.`,
	RunE: runArxiv,
}

func init() {
	arxivCmd.Flags().String("topics", "topics.yaml", "topics file with settings and research directions")
	arxivCmd.Flags().String("out", "preprints.yaml", "result file to write")
	arxivCmd.Flags().Int("window", 0, "recency window in days (default 7)")
	arxivCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	rootCmd.AddCommand(arxivCmd)
}

func runArxiv(cmd *cobra.Command, args []string) error {
	topicsPath, _ := cmd.Flags().GetString("topics")
	outPath, _ := cmd.Flags().GetString("out")
	window, _ := cmd.Flags().GetInt("window")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	tf, err := pipeline.LoadTopics(topicsPath)
	if err != nil {
		return err
	}
	if window > 0 {
		tf.Settings.SearchWindowDays = window
	}

	client := &arxiv.Client{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: defaultUserAgent,
	}

	var all []types.PaperRecord
	for _, topic := range tf.Topics {
		records, err := pipeline.RunWindow(cmd.Context(), client, topic, tf.Settings, os.Stdout)
		if err != nil {
			if cmd.Context().Err() != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "warning: topic %q skipped: %v\n", topic.Direction, err)
			continue
		}
		all = append(all, records...)
	}

	groups := pipeline.GroupByDirection(all)
	if err := pipeline.WriteResults(outPath, tf.Settings, groups, nil); err != nil {
		return err
	}
	fmt.Printf("wrote %d preprints in %d groups to %s\n", len(all), len(groups), outPath)
	return nil
}
