// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scholar consumes the Semantic Scholar graph API as a lazy,
// paginated sequence of paper objects.
package scholar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/paper-scout/internal/httputil"
	"github.com/pdiddy/paper-scout/pkg/types"
)

// API endpoints. Declared as vars so tests can substitute httptest servers.
var (
	searchAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"
	bulkAPIBase   = "https://api.semanticscholar.org/graph/v1/paper/search/bulk"
)

const searchFields = "paperId,url,title,abstract,venue,year,citationCount,authors,externalIds,openAccessPdf"

// relevanceOffsetCap is the API's hard limit on offset+limit for the
// relevance-ranked endpoint.
const relevanceOffsetCap = 1000

// Client queries the Semantic Scholar graph API.
type Client struct {
	Client *http.Client
	APIKey string
}

// Paper is one result object from the API.
type Paper struct {
	PaperID       string         `json:"paperId"`
	Title         string         `json:"title"`
	Abstract      string         `json:"abstract"`
	Venue         string         `json:"venue"`
	Year          int            `json:"year"`
	CitationCount int            `json:"citationCount"`
	URL           string         `json:"url"`
	Authors       []Author       `json:"authors"`
	ExternalIDs   ExternalIDs    `json:"externalIds"`
	OpenAccessPDF *OpenAccessPDF `json:"openAccessPdf"`
}

// Author is an author entry on a paper.
type Author struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

// ExternalIDs carries cross-source identifiers.
type ExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}

// OpenAccessPDF is the open-access artifact location, when one exists.
type OpenAccessPDF struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

// AuthorNames renders the author list as a comma-joined string.
func (p Paper) AuthorNames() string {
	names := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		if a.Name != "" {
			names = append(names, strings.TrimSpace(a.Name))
		}
	}
	return strings.Join(names, ", ")
}

// PDFLink returns the open-access PDF URL, or the arXiv PDF endpoint when
// only an arXiv ID is known, or "".
func (p Paper) PDFLink() string {
	if p.OpenAccessPDF != nil && p.OpenAccessPDF.URL != "" {
		return p.OpenAccessPDF.URL
	}
	if p.ExternalIDs.ArXiv != "" {
		return "https://arxiv.org/pdf/" + p.ExternalIDs.ArXiv
	}
	return ""
}

// Request holds the parameters for one paginated query.
type Request struct {
	// Query is the search string. The bulk endpoint accepts boolean syntax.
	Query string

	// Venues restricts matching to these API-facing venue strings.
	Venues []string

	// FieldsOfStudy restricts matching to these fields (e.g. "Computer Science").
	FieldsOfStudy []string

	// YearFrom restricts to papers published in or after this year. Zero disables.
	YearFrom int

	// Bulk selects the bulk endpoint (token pagination, no relevance
	// ranking) instead of the relevance-ranked endpoint.
	Bulk bool
}

type searchResponse struct {
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Next   int     `json:"next"`
	Token  string  `json:"token"`
	Data   []Paper `json:"data"`
}

// Search streams results page by page, calling yield for each paper.
// Returning false from yield stops the stream early without error; this
// is how callers cap result volume without fetching further pages.
func (c *Client) Search(ctx context.Context, req Request, cfg types.SearchConfig, yield func(Paper) bool) error {
	if strings.TrimSpace(req.Query) == "" {
		return fmt.Errorf("empty query")
	}
	if req.Bulk {
		return c.searchBulk(ctx, req, cfg, yield)
	}
	return c.searchRelevance(ctx, req, cfg, yield)
}

// searchRelevance pages the relevance-ranked endpoint with offset/limit.
func (c *Client) searchRelevance(ctx context.Context, req Request, cfg types.SearchConfig, yield func(Paper) bool) error {
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 100
	}

	offset := 0
	for {
		params := c.baseParams(req)
		params.Set("offset", fmt.Sprintf("%d", offset))
		params.Set("limit", fmt.Sprintf("%d", pageSize))

		var page searchResponse
		if err := c.getPage(ctx, searchAPIBase, params, cfg, &page); err != nil {
			return err
		}
		if len(page.Data) == 0 {
			return nil
		}
		for _, p := range page.Data {
			if !yield(p) {
				return nil
			}
		}

		offset += len(page.Data)
		if offset >= page.Total || offset >= relevanceOffsetCap {
			return nil
		}
	}
}

// searchBulk pages the bulk endpoint with continuation tokens.
func (c *Client) searchBulk(ctx context.Context, req Request, cfg types.SearchConfig, yield func(Paper) bool) error {
	token := ""
	for {
		params := c.baseParams(req)
		if token != "" {
			params.Set("token", token)
		}

		var page searchResponse
		if err := c.getPage(ctx, bulkAPIBase, params, cfg, &page); err != nil {
			return err
		}
		for _, p := range page.Data {
			if !yield(p) {
				return nil
			}
		}

		if page.Token == "" || len(page.Data) == 0 {
			return nil
		}
		token = page.Token
	}
}

func (c *Client) baseParams(req Request) url.Values {
	params := url.Values{}
	params.Set("query", req.Query)
	params.Set("fields", searchFields)
	if len(req.Venues) > 0 {
		params.Set("venue", strings.Join(req.Venues, ","))
	}
	if len(req.FieldsOfStudy) > 0 {
		params.Set("fieldsOfStudy", strings.Join(req.FieldsOfStudy, ","))
	}
	if req.YearFrom > 0 {
		params.Set("year", fmt.Sprintf("%d-", req.YearFrom))
	}
	return params
}

func (c *Client) getPage(ctx context.Context, base string, params url.Values, cfg types.SearchConfig, page *searchResponse) error {
	reqURL := base + "?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("User-Agent", cfg.UserAgent)
	if c.APIKey != "" {
		httpReq.Header.Set("x-api-key", c.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, c.Client, httpReq, 0)
	if err != nil {
		return fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(page); err != nil {
		return fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}
	return nil
}
