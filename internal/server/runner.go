// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"io"
	"net/http"

	"github.com/pdiddy/paper-scout/internal/fetch"
	"github.com/pdiddy/paper-scout/internal/pipeline"
	"github.com/pdiddy/paper-scout/internal/scholar"
	"github.com/pdiddy/paper-scout/internal/venues"
	"github.com/pdiddy/paper-scout/pkg/types"
)

// pipelineRunner executes batches against the live citation-graph API.
type pipelineRunner struct {
	defs   *venues.Definitions
	cfg    types.SearchConfig
	client *scholar.Client
}

// NewPipelineRunner builds the production Runner.
func NewPipelineRunner(defs *venues.Definitions, cfg types.SearchConfig) Runner {
	return &pipelineRunner{
		defs: defs,
		cfg:  cfg,
		client: &scholar.Client{
			Client: &http.Client{Timeout: cfg.Timeout},
			APIKey: cfg.ScholarAPIKey,
		},
	}
}

func (p *pipelineRunner) Run(ctx context.Context, topics []types.Topic, settings types.Settings, groupBy pipeline.Grouping, w io.Writer) (types.GroupedResults, []string, error) {
	return pipeline.RunBatch(ctx, p.client, topics, settings, p.defs, p.cfg, groupBy, w)
}

// pdfFetcher runs the retrieval chain against the live sources. The
// destination root varies per report, so the Fetcher is built per call.
type pdfFetcher struct {
	cfg types.FetchConfig
}

// NewPDFFetcher builds the production PDFFetcher.
func NewPDFFetcher(cfg types.FetchConfig) PDFFetcher {
	return &pdfFetcher{cfg: cfg}
}

func (p *pdfFetcher) Fetch(ctx context.Context, groups types.GroupedResults, destRoot string, w io.Writer) (map[string]string, error) {
	cfg := p.cfg
	cfg.DestRoot = destRoot
	summary, err := fetch.New(cfg).FetchGroups(ctx, groups, w)
	if err != nil {
		return nil, err
	}
	return summary.DownloadedPaths(), nil
}
