// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pdiddy/paper-scout/internal/arxiv"
	"github.com/pdiddy/paper-scout/pkg/types"
)

// fakeFinder replays canned arXiv entries per queried title and records
// the queries it receives.
type fakeFinder struct {
	entries map[string]*arxiv.Entry
	queries []string
}

func (f *fakeFinder) FindByTitle(_ context.Context, _, title string) (*arxiv.Entry, error) {
	f.queries = append(f.queries, title)
	return f.entries[title], nil
}

func testFetcher(t *testing.T, finder TitleFinder) (*Fetcher, string) {
	t.Helper()
	if finder == nil {
		finder = &fakeFinder{}
	}
	root := t.TempDir()
	cfg := types.FetchConfig{DestRoot: root}
	return newFetcher(cfg, http.DefaultClient, finder), root
}

func record(id, title, venue string, year int) types.PaperRecord {
	return types.PaperRecord{PaperID: id, Title: title, VenueName: venue, Year: year}
}

func TestFetchDirectURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4 direct"))
	}))
	defer ts.Close()

	f, root := testFetcher(t, nil)
	rec := record("p1", "Some Paper", "NeurIPS", 2023)
	rec.PDFURL = ts.URL + "/paper.pdf"

	summary, err := f.FetchGroups(context.Background(), types.GroupedResults{"Machine Learning": {rec}}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("FetchGroups() error: %v", err)
	}
	if summary.Downloaded != 1 || summary.Missed != 0 {
		t.Fatalf("summary = %+v, want 1 downloaded", summary)
	}

	wantPath := filepath.Join(root, "Machine Learning", "[NeurIPS 2023] Some Paper.pdf")
	data, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(data) != "%PDF-1.4 direct" {
		t.Errorf("file content = %q", data)
	}
}

// A dead direct link is not fatal: the chain falls through to OpenAlex
// resolution via the record's DOI.
func TestFetchDirectFailureFallsBackToOpenAlex(t *testing.T) {
	pdf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/dead.pdf" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("%PDF-1.4 oa"))
	}))
	defer pdf.Close()

	oa := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "10.1145/1234567") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"best_oa_location": {"pdf_url": "` + pdf.URL + `/oa.pdf"}}`))
	}))
	defer oa.Close()

	origBase := openAlexAPIBase
	openAlexAPIBase = oa.URL + "/"
	defer func() { openAlexAPIBase = origBase }()

	f, root := testFetcher(t, nil)
	rec := record("p1", "Recovered Paper", "CVPR", 2022)
	rec.PDFURL = pdf.URL + "/dead.pdf"
	rec.DOI = "10.1145/1234567"

	summary, err := f.FetchGroups(context.Background(), types.GroupedResults{"Computer Vision": {rec}}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("FetchGroups() error: %v", err)
	}
	if summary.Downloaded != 1 {
		t.Fatalf("summary = %+v, want 1 downloaded", summary)
	}
	if summary.Results[0].Source != "openalex" {
		t.Errorf("Source = %q, want openalex", summary.Results[0].Source)
	}
	if _, err := os.Stat(filepath.Join(root, "Computer Vision", "[CVPR 2022] Recovered Paper.pdf")); err != nil {
		t.Errorf("downloaded file missing: %v", err)
	}
}

func TestFetchArxivFuzzyHit(t *testing.T) {
	pdf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4 arxiv"))
	}))
	defer pdf.Close()

	title := "Efficient Quantization of Large Language Models"
	finder := &fakeFinder{entries: map[string]*arxiv.Entry{
		// Same title with different hyphenation still clears the threshold.
		title: {Title: "Efficient Quantization of Large-Language Models", PDFURL: pdf.URL + "/x.pdf"},
	}}

	f, _ := testFetcher(t, finder)
	summary, err := f.FetchGroups(context.Background(),
		types.GroupedResults{"g": {record("p1", title, "NeurIPS", 2023)}}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("FetchGroups() error: %v", err)
	}
	if summary.Downloaded != 1 {
		t.Fatalf("summary = %+v, want 1 downloaded", summary)
	}
	if summary.Results[0].Source != "arxiv" {
		t.Errorf("Source = %q, want arxiv", summary.Results[0].Source)
	}
}

// A top hit below the similarity threshold is a miss, not an error.
func TestFetchArxivLowSimilarityMiss(t *testing.T) {
	title := "Quantization for Transformers"
	finder := &fakeFinder{entries: map[string]*arxiv.Entry{
		title: {Title: "A Completely Unrelated Study of Beetles", PDFURL: "http://example.com/x.pdf"},
	}}

	f, _ := testFetcher(t, finder)
	summary, err := f.FetchGroups(context.Background(),
		types.GroupedResults{"g": {record("p1", title, "NeurIPS", 2023)}}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("FetchGroups() error: %v", err)
	}
	if summary.Missed != 1 || summary.Downloaded != 0 {
		t.Fatalf("summary = %+v, want 1 missed", summary)
	}
	r := summary.Results[0]
	if r.Err != nil {
		t.Errorf("Err = %v, want nil for a silent miss", r.Err)
	}
	if r.Path != "" {
		t.Errorf("Path = %q, want empty", r.Path)
	}
}

func TestFetchArxivPreColonRetry(t *testing.T) {
	pdf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4"))
	}))
	defer pdf.Close()

	full := "GPTQ: Accurate Post-Training Quantization for Generative Pre-trained Transformers"
	finder := &fakeFinder{entries: map[string]*arxiv.Entry{
		// Nothing for the full title; the pre-colon prefix finds the entry.
		"GPTQ": {Title: "GPTQ", PDFURL: pdf.URL + "/gptq.pdf"},
	}}

	f, _ := testFetcher(t, finder)
	summary, err := f.FetchGroups(context.Background(),
		types.GroupedResults{"g": {record("p1", full, "ICLR", 2023)}}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("FetchGroups() error: %v", err)
	}
	if summary.Downloaded != 1 {
		t.Fatalf("summary = %+v, want 1 downloaded", summary)
	}
	if len(finder.queries) != 2 || finder.queries[0] != full || finder.queries[1] != "GPTQ" {
		t.Errorf("queries = %v, want full title then pre-colon prefix", finder.queries)
	}
}

// flakyFinder fails its first call and serves canned entries afterwards.
type flakyFinder struct {
	fakeFinder
	calls int
}

func (f *flakyFinder) FindByTitle(ctx context.Context, author, title string) (*arxiv.Entry, error) {
	f.calls++
	if f.calls == 1 {
		f.queries = append(f.queries, title)
		return nil, errors.New("arXiv API returned HTTP 503")
	}
	return f.fakeFinder.FindByTitle(ctx, author, title)
}

// A failed full-title lookup still gets the pre-colon retry.
func TestFetchArxivRetryAfterLookupError(t *testing.T) {
	pdf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4"))
	}))
	defer pdf.Close()

	full := "SmoothQuant: Accurate and Efficient Post-Training Quantization"
	finder := &flakyFinder{fakeFinder: fakeFinder{entries: map[string]*arxiv.Entry{
		"SmoothQuant": {Title: "SmoothQuant", PDFURL: pdf.URL + "/sq.pdf"},
	}}}

	f, _ := testFetcher(t, finder)
	summary, err := f.FetchGroups(context.Background(),
		types.GroupedResults{"g": {record("p1", full, "ICML", 2023)}}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("FetchGroups() error: %v", err)
	}
	if summary.Downloaded != 1 || summary.Missed != 0 {
		t.Fatalf("summary = %+v, want 1 downloaded", summary)
	}
	if len(finder.queries) != 2 || finder.queries[1] != "SmoothQuant" {
		t.Errorf("queries = %v, want full title then pre-colon prefix", finder.queries)
	}
}

func TestFetchSkipsExisting(t *testing.T) {
	f, root := testFetcher(t, nil)
	rec := record("p1", "Already Here", "NeurIPS", 2023)

	dir := filepath.Join(root, "g")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	existing := filepath.Join(dir, "[NeurIPS 2023] Already Here.pdf")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	summary, err := f.FetchGroups(context.Background(), types.GroupedResults{"g": {rec}}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("FetchGroups() error: %v", err)
	}
	if summary.Skipped != 1 || summary.Downloaded != 0 {
		t.Fatalf("summary = %+v, want 1 skipped", summary)
	}
	data, _ := os.ReadFile(existing)
	if string(data) != "old" {
		t.Errorf("existing file was overwritten")
	}
}

func TestFetchPoolProcessesWholeBatch(t *testing.T) {
	var hits atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("%PDF-1.4"))
	}))
	defer ts.Close()

	f, _ := testFetcher(t, nil)
	groups := types.GroupedResults{}
	for _, g := range []string{"a", "b"} {
		for i := 0; i < 10; i++ {
			rec := record(g+string(rune('0'+i)), "Paper "+g+string(rune('0'+i)), "NeurIPS", 2023)
			rec.PDFURL = ts.URL + "/p.pdf"
			groups[g] = append(groups[g], rec)
		}
	}

	summary, err := f.FetchGroups(context.Background(), groups, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("FetchGroups() error: %v", err)
	}
	if summary.Downloaded != 20 {
		t.Errorf("Downloaded = %d, want 20", summary.Downloaded)
	}
	if hits.Load() != 20 {
		t.Errorf("server hits = %d, want 20", hits.Load())
	}
	if len(summary.DownloadedPaths()) != 20 {
		t.Errorf("downloaded path set size = %d, want 20", len(summary.DownloadedPaths()))
	}
}

func TestFetchEmptyBatch(t *testing.T) {
	f, _ := testFetcher(t, nil)
	summary, err := f.FetchGroups(context.Background(), types.GroupedResults{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("FetchGroups() error: %v", err)
	}
	if len(summary.Results) != 0 {
		t.Errorf("Results = %+v, want empty", summary.Results)
	}
}

func TestRecordFilename(t *testing.T) {
	tests := []struct {
		name string
		rec  types.PaperRecord
		want string
	}{
		{
			"plain",
			record("x", "Clean Title", "NeurIPS", 2023),
			"[NeurIPS 2023] Clean Title.pdf",
		},
		{
			"unsafe characters",
			record("x", `Speed/Accuracy: Trade-offs?`, "CVPR", 2022),
			"[CVPR 2022] Speed Accuracy Trade-offs.pdf",
		},
		{
			"long title truncated",
			record("x", strings.Repeat("word ", 60), "ICML", 2021),
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recordFilename(tt.rec)
			if tt.want != "" && got != tt.want {
				t.Errorf("recordFilename() = %q, want %q", got, tt.want)
			}
			if len(got) > 160 {
				t.Errorf("filename too long: %d chars", len(got))
			}
		})
	}
}
