// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-scout/internal/server"
	"github.com/pdiddy/paper-scout/internal/venues"
	"github.com/pdiddy/paper-scout/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search pipeline over HTTP",
	Long: `Serve exposes the pipeline to the web front end: venue definitions,
ad-hoc searches, and downloadable spreadsheet reports.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":5001", "listen address")
	serveCmd.Flags().String("venues", "venues.yaml", "venue definitions file")
	serveCmd.Flags().StringSlice("origins", []string{"*"}, "allowed CORS origins")
	serveCmd.Flags().String("work-dir", "", "scratch directory for generated reports (default: temp)")
	serveCmd.Flags().String("api-key", "", "Semantic Scholar API key (default: .secrets/semantic-scholar-api-key)")
	serveCmd.Flags().String("locale", "en", "default report header language")
	serveCmd.Flags().String("mailto", "", "contact address for OpenAlex requests (default: .secrets/openalex-email)")
	serveCmd.Flags().Duration("timeout", 0, "HTTP request timeout for upstream APIs (default 60s)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	venuesPath, _ := cmd.Flags().GetString("venues")
	origins, _ := cmd.Flags().GetStringSlice("origins")
	workDir, _ := cmd.Flags().GetString("work-dir")
	apiKey, _ := cmd.Flags().GetString("api-key")
	locale, _ := cmd.Flags().GetString("locale")
	mailto, _ := cmd.Flags().GetString("mailto")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	if workDir == "" {
		dir, err := os.MkdirTemp("", "paper-scout-serve-*")
		if err != nil {
			return err
		}
		workDir = dir
	}

	defs, err := venues.Load(venuesPath)
	if err != nil {
		return err
	}
	for _, warning := range defs.Validate() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}

	searchCfg := types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		ScholarAPIKey:   secretDefault("semantic-scholar-api-key", apiKey),
		InterQueryDelay: defaultQueryDelay,
	}
	serverCfg := types.ServerConfig{
		Addr:           addr,
		AllowedOrigins: origins,
		WorkDir:        workDir,
	}

	fetchCfg := types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		OpenAlexMailto: secretDefault("openalex-email", mailto),
	}

	runner := server.NewPipelineRunner(defs, searchCfg)
	fetcher := server.NewPDFFetcher(fetchCfg)
	srv := server.New(defs, serverCfg, types.ReportConfig{Locale: locale}, runner, fetcher, os.Stdout)

	fmt.Printf("listening on %s\n", addr)
	return srv.ListenAndServe()
}
