// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/paper-scout/internal/arxiv"
	"github.com/pdiddy/paper-scout/pkg/types"
)

// openAlexAPIBase is the OpenAlex works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works/"

// defaultSimilarityThreshold accepts an arXiv title match when the
// normalized titles are at least this similar.
const defaultSimilarityThreshold = 0.8

// A strategy resolves a PDF URL for one record. Returning an empty URL
// with a nil error means the strategy has nothing for this record.
type strategy interface {
	name() string
	resolve(ctx context.Context, rec types.PaperRecord) (string, error)
}

// directURL uses the PDF link the search source already reported.
type directURL struct{}

func (directURL) name() string { return "direct" }

func (directURL) resolve(_ context.Context, rec types.PaperRecord) (string, error) {
	return rec.PDFURL, nil
}

// openAlex looks up the record's DOI and returns the best open-access
// PDF location, if the work has one.
type openAlex struct {
	client *http.Client
	cfg    types.FetchConfig
}

func (openAlex) name() string { return "openalex" }

type openAlexWork struct {
	BestOALocation *struct {
		PDFURL string `json:"pdf_url"`
	} `json:"best_oa_location"`
}

func (o openAlex) resolve(ctx context.Context, rec types.PaperRecord) (string, error) {
	if rec.DOI == "" {
		return "", nil
	}
	apiURL := openAlexAPIBase + "https://doi.org/" + rec.DOI
	if o.cfg.OpenAlexMailto != "" {
		apiURL += "?mailto=" + o.cfg.OpenAlexMailto
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating OpenAlex request: %w", err)
	}
	req.Header.Set("User-Agent", o.cfg.UserAgent)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var work openAlexWork
	if err := json.NewDecoder(resp.Body).Decode(&work); err != nil {
		return "", fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	if work.BestOALocation == nil {
		return "", nil
	}
	return work.BestOALocation.PDFURL, nil
}

// TitleFinder is the arXiv capability the lookup strategy needs.
// *arxiv.Client satisfies it.
type TitleFinder interface {
	FindByTitle(ctx context.Context, author, title string) (*arxiv.Entry, error)
}

// arxivLookup searches arXiv by title and accepts the top hit when the
// normalized titles are similar enough. Long titles with a subtitle
// after a colon get a second try on the part before the colon.
type arxivLookup struct {
	finder    TitleFinder
	threshold float64
}

func (arxivLookup) name() string { return "arxiv" }

func (a arxivLookup) resolve(ctx context.Context, rec types.PaperRecord) (string, error) {
	if rec.Title == "" {
		return "", nil
	}
	author := firstAuthor(rec.Authors)

	url, err := a.lookup(ctx, author, rec.Title)
	if url != "" {
		return url, nil
	}
	// A failed or missed lookup gets one retry on the pre-colon title.
	if prefix, _, found := strings.Cut(rec.Title, ":"); found && strings.TrimSpace(prefix) != "" {
		retryURL, retryErr := a.lookup(ctx, author, strings.TrimSpace(prefix))
		if retryURL != "" || retryErr == nil {
			return retryURL, retryErr
		}
		if err == nil {
			err = retryErr
		}
	}
	return "", err
}

func (a arxivLookup) lookup(ctx context.Context, author, title string) (string, error) {
	entry, err := a.finder.FindByTitle(ctx, author, title)
	if err != nil {
		return "", fmt.Errorf("arXiv title search: %w", err)
	}
	if entry == nil {
		return "", nil
	}
	threshold := a.threshold
	if threshold <= 0 {
		threshold = defaultSimilarityThreshold
	}
	if similarity(normalizeTitle(title), normalizeTitle(entry.Title)) < threshold {
		return "", nil
	}
	return entry.PDFURL, nil
}

func firstAuthor(authors string) string {
	first, _, _ := strings.Cut(authors, ",")
	return strings.TrimSpace(first)
}
