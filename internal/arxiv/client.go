// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package arxiv consumes the arXiv Atom API: windowed recently-updated
// searches and point lookups used for PDF resolution.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// apiBase is the arXiv query endpoint. Declared as a var so tests can
// substitute an httptest server.
var apiBase = "https://export.arxiv.org/api/query"

// pageSize is the number of entries requested per Atom page.
const pageSize = 100

// Client queries the arXiv API.
type Client struct {
	Client    *http.Client
	UserAgent string
}

// Entry is one paper entry from the Atom feed.
type Entry struct {
	ID              string
	Title           string
	Summary         string
	Comment         string
	Published       time.Time
	Updated         time.Time
	Authors         []string
	Categories      []string
	PrimaryCategory string
	PDFURL          string
	DOI             string
}

// Atom feed XML structures.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID              string         `xml:"id"`
	Title           string         `xml:"title"`
	Summary         string         `xml:"summary"`
	Comment         string         `xml:"comment"`
	Published       string         `xml:"published"`
	Updated         string         `xml:"updated"`
	Authors         []atomAuthor   `xml:"author"`
	Links           []atomLink     `xml:"link"`
	Categories      []atomCategory `xml:"category"`
	PrimaryCategory atomCategory   `xml:"primary_category"`
	DOI             string         `xml:"doi"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

// SearchWindow returns entries whose update date falls inside [since, now),
// reading pages sorted by last-updated date and stopping at the first
// out-of-window entry. The early termination is valid only because the
// feed is date-sorted. limit caps the total entries fetched from the API.
func (c *Client) SearchWindow(ctx context.Context, query string, since time.Time, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 1000
	}

	var out []Entry
	for start := 0; start < limit; start += pageSize {
		max := pageSize
		if rem := limit - start; rem < max {
			max = rem
		}
		entries, err := c.page(ctx, query, "lastUpdatedDate", start, max)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return out, nil
		}
		for _, e := range entries {
			if e.Updated.Before(since) {
				return out, nil
			}
			out = append(out, e)
		}
		if len(entries) < max {
			return out, nil
		}
	}
	return out, nil
}

// Search returns up to limit entries ranked by relevance.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	return c.page(ctx, query, "relevance", 0, limit)
}

// FindByTitle queries for author plus title as free text and returns the
// top relevance hit, or nil when the feed is empty. Callers gate
// acceptance on title similarity.
func (c *Client) FindByTitle(ctx context.Context, author, title string) (*Entry, error) {
	q := strings.TrimSpace(author + " " + title)
	if q == "" {
		return nil, fmt.Errorf("empty lookup query")
	}
	entries, err := c.page(ctx, "all:"+q, "relevance", 0, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (c *Client) page(ctx context.Context, query, sortBy string, start, max int) ([]Entry, error) {
	params := url.Values{}
	params.Set("search_query", query)
	params.Set("start", fmt.Sprintf("%d", start))
	params.Set("max_results", fmt.Sprintf("%d", max))
	params.Set("sortBy", sortBy)
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	entries := make([]Entry, 0, len(feed.Entries))
	for _, raw := range feed.Entries {
		entries = append(entries, toEntry(raw))
	}
	return entries, nil
}

func toEntry(raw atomEntry) Entry {
	e := Entry{
		ID:              strings.TrimSpace(raw.ID),
		Title:           collapseWhitespace(raw.Title),
		Summary:         strings.TrimSpace(raw.Summary),
		Comment:         strings.TrimSpace(raw.Comment),
		PrimaryCategory: raw.PrimaryCategory.Term,
		DOI:             strings.TrimSpace(raw.DOI),
	}

	for _, a := range raw.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			e.Authors = append(e.Authors, name)
		}
	}
	for _, cat := range raw.Categories {
		if cat.Term != "" {
			e.Categories = append(e.Categories, cat.Term)
		}
	}

	if t, err := time.Parse(time.RFC3339, raw.Published); err == nil {
		e.Published = t
	}
	if t, err := time.Parse(time.RFC3339, raw.Updated); err == nil {
		e.Updated = t
	}

	for _, link := range raw.Links {
		if link.Title == "pdf" || link.Type == "application/pdf" {
			e.PDFURL = link.Href
			break
		}
	}
	if e.PDFURL == "" {
		if id := ExtractID(e.ID); id != "" {
			e.PDFURL = "https://arxiv.org/pdf/" + id
		}
	}
	return e
}

// ExtractID pulls the arXiv ID from an abs URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041"), stripping
// any version suffix.
func ExtractID(absURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(absURL, prefix)
	if idx < 0 {
		return ""
	}
	id := absURL[idx+len(prefix):]

	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		digits := id[vIdx+1:]
		if digits != "" && strings.Trim(digits, "0123456789") == "" {
			id = id[:vIdx]
		}
	}
	return id
}

// collapseWhitespace squashes the newline-indented titles the Atom feed
// produces into single-spaced text.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
