// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves PDF artifacts for grouped paper records. Each
// record runs through a chain of resolution strategies; a record no
// strategy can serve is a miss, not an error.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdiddy/paper-scout/internal/arxiv"
	"github.com/pdiddy/paper-scout/pkg/types"
)

// defaultMaxWorkers bounds the retrieval pool when the config leaves it
// unset.
const defaultMaxWorkers = 8

// Result records the outcome for one paper.
type Result struct {
	PaperID string
	Title   string
	Path    string // relative to the destination root, empty on miss
	Source  string // strategy that produced the PDF
	Err     error  // download failure after all strategies were tried
}

// Summary aggregates a batch run.
type Summary struct {
	Downloaded int
	Skipped    int
	Missed     int
	Results    []Result
}

// DownloadedPaths maps paper IDs to their saved paths, covering both
// fresh downloads and files that already existed.
func (s Summary) DownloadedPaths() map[string]string {
	paths := make(map[string]string)
	for _, r := range s.Results {
		if r.Path != "" {
			paths[r.PaperID] = r.Path
		}
	}
	return paths
}

// Fetcher downloads PDFs using a bounded worker pool.
type Fetcher struct {
	client     *http.Client
	strategies []strategy
	cfg        types.FetchConfig
}

// New builds a Fetcher with the standard strategy chain: the direct
// link from the search source, then OpenAlex open-access resolution,
// then a fuzzy arXiv title lookup.
func New(cfg types.FetchConfig) *Fetcher {
	client := &http.Client{Timeout: cfg.Timeout}
	finder := &arxiv.Client{Client: client, UserAgent: cfg.UserAgent}
	return newFetcher(cfg, client, finder)
}

func newFetcher(cfg types.FetchConfig, client *http.Client, finder TitleFinder) *Fetcher {
	return &Fetcher{
		client: client,
		strategies: []strategy{
			directURL{},
			openAlex{client: client, cfg: cfg},
			arxivLookup{finder: finder, threshold: cfg.SimilarityThreshold},
		},
		cfg: cfg,
	}
}

// FetchGroups retrieves PDFs for every record in every group, writing
// each group into its own subdirectory of the destination root. Worker
// count scales with batch size, one worker per four papers, clamped to
// the configured maximum.
func (f *Fetcher) FetchGroups(ctx context.Context, groups types.GroupedResults, w io.Writer) (Summary, error) {
	type job struct {
		group string
		rec   types.PaperRecord
	}

	var jobs []job
	for group, records := range groups {
		dir := filepath.Join(f.cfg.DestRoot, sanitizeFilename(group))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Summary{}, fmt.Errorf("creating directory %s: %w", dir, err)
		}
		for _, rec := range records {
			jobs = append(jobs, job{group: group, rec: rec})
		}
	}
	if len(jobs) == 0 {
		return Summary{}, nil
	}

	workers := (len(jobs) + 3) / 4
	maxWorkers := f.cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = defaultMaxWorkers
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}

	jobCh := make(chan job)
	resultCh := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				resultCh <- f.fetchOne(ctx, j.group, j.rec)
			}
		}()
	}
	go func() {
		defer close(jobCh)
		for _, j := range jobs {
			select {
			case jobCh <- j:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var summary Summary
	for r := range resultCh {
		summary.Results = append(summary.Results, r)
		switch {
		case r.Err != nil:
			summary.Missed++
			fmt.Fprintf(w, "failed:  %s (%v)\n", r.Title, r.Err)
		case r.Path == "":
			summary.Missed++
			fmt.Fprintf(w, "no pdf:  %s\n", r.Title)
		case r.Source == "existing":
			summary.Skipped++
			fmt.Fprintf(w, "skipped: %s (already exists)\n", r.Path)
		default:
			summary.Downloaded++
			fmt.Fprintf(w, "saved:   %s (%s)\n", r.Path, r.Source)
		}
	}
	fmt.Fprintf(w, "\nFetch summary: %d downloaded, %d skipped, %d missed (total: %d)\n",
		summary.Downloaded, summary.Skipped, summary.Missed, len(summary.Results))
	return summary, ctx.Err()
}

// fetchOne runs the strategy chain for a single record. A strategy
// that errors or whose URL fails to download falls through to the next
// one.
func (f *Fetcher) fetchOne(ctx context.Context, group string, rec types.PaperRecord) Result {
	result := Result{PaperID: rec.PaperID, Title: rec.Title}

	relPath := RelPath(group, rec)
	destPath := filepath.Join(f.cfg.DestRoot, relPath)
	if _, err := os.Stat(destPath); err == nil {
		result.Path = relPath
		result.Source = "existing"
		return result
	}

	var lastErr error
	for _, s := range f.strategies {
		if ctx.Err() != nil {
			result.Err = ctx.Err()
			return result
		}
		url, err := s.resolve(ctx, rec)
		if err != nil {
			lastErr = err
			continue
		}
		if url == "" {
			continue
		}
		if err := f.download(ctx, url, destPath); err != nil {
			lastErr = err
			continue
		}
		result.Path = relPath
		result.Source = s.name()
		return result
	}
	result.Err = lastErr
	return result
}

// download fetches url to destPath via a temporary file, renaming on
// success so partial downloads never land under the final name.
func (f *Fetcher) download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// RelPath is the deterministic location of a record's PDF relative to
// the destination root. The report stage uses it to find fetched files.
func RelPath(group string, rec types.PaperRecord) string {
	return filepath.Join(sanitizeFilename(group), recordFilename(rec))
}

// recordFilename renders "[<venue> <year>] <title>.pdf" with characters
// that are unsafe on common filesystems replaced.
func recordFilename(rec types.PaperRecord) string {
	name := fmt.Sprintf("[%s %d] %s", rec.VenueName, rec.Year, rec.Title)
	return sanitizeFilename(name) + ".pdf"
}

var unsafeChars = strings.NewReplacer(
	"/", " ", "\\", " ", ":", " ", "*", " ", "?", " ",
	`"`, " ", "<", " ", ">", " ", "|", " ",
)

func sanitizeFilename(s string) string {
	s = unsafeChars.Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	const maxLen = 150
	if len(s) > maxLen {
		s = strings.TrimSpace(s[:maxLen])
	}
	if s == "" {
		s = "untitled"
	}
	return s
}
