// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/paper-scout/internal/aggregate"
	"github.com/pdiddy/paper-scout/internal/scholar"
	"github.com/pdiddy/paper-scout/internal/venues"
	"github.com/pdiddy/paper-scout/pkg/types"
)

const testDefsYAML = `
venues:
  NeurIPS:
    venue: ["neural information processing systems", "neurips"]
    category: "Machine Learning"
  CVPR:
    venue: ["computer vision and pattern recognition"]
    category: "Computer Vision"
arXiv:
  venue: ["arxiv"]
  category: "Preprint"
defaults:
  title_exclude_keywords: ["survey", "review"]
  skip_abstract_filter_venues: ["arXiv"]
`

func testDefs(t *testing.T) *venues.Definitions {
	t.Helper()
	d, err := venues.Parse([]byte(testDefsYAML))
	if err != nil {
		t.Fatalf("venues.Parse() error: %v", err)
	}
	return d
}

// fakeSearcher replays the same canned papers for every query and
// records the requests it receives.
type fakeSearcher struct {
	papers   []scholar.Paper
	err      error
	requests []scholar.Request
}

func (f *fakeSearcher) Search(_ context.Context, req scholar.Request, _ types.SearchConfig, yield func(scholar.Paper) bool) error {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return f.err
	}
	for _, p := range f.papers {
		if !yield(p) {
			return nil
		}
	}
	return nil
}

func testTopic() types.Topic {
	return types.Topic{
		Direction:        "model compression",
		QueryKeywords:    [][]string{{"LLM", "Quantization"}},
		AbstractKeywords: [][]string{{"quantization"}},
	}
}

func TestRunFilterChain(t *testing.T) {
	s := &fakeSearcher{papers: []scholar.Paper{
		{PaperID: "p1", Title: "A Survey of Quantization", Year: 2023, Venue: "NeurIPS"},
		{PaperID: "p2", Title: "Old Quantization Paper", Year: 2019, Venue: "NeurIPS", Abstract: "quantization"},
		{PaperID: "p3", Title: "Off-topic Venue", Year: 2023, Venue: "Workshop on Pottery", Abstract: "quantization"},
		{PaperID: "p4", Title: "Wrong Abstract", Year: 2023, Venue: "NeurIPS", Abstract: "about pruning only"},
		{PaperID: "p5", Title: "Keeper", Year: 2023, Venue: "NeurIPS 2023", Abstract: "4-bit quantization results", CitationCount: 7},
	}}

	out, err := Run(context.Background(), s, testTopic(), types.Settings{MinYear: 2021}, testDefs(t), types.SearchConfig{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(out.Records) != 1 {
		t.Fatalf("got %d records, want 1: %+v", len(out.Records), out.Records)
	}
	rec := out.Records[0]
	if rec.PaperID != "p5" || rec.VenueName != "NeurIPS" || rec.Category != "Machine Learning" {
		t.Errorf("record = %+v, want p5 canonicalized to NeurIPS / Machine Learning", rec)
	}
	if rec.Direction != "model compression" {
		t.Errorf("Direction = %q, want topic direction", rec.Direction)
	}
	if rec.MatchedKeywords != "quantization" {
		t.Errorf("MatchedKeywords = %q, want %q", rec.MatchedKeywords, "quantization")
	}

	want := Stats{Raw: 5, TitleExcluded: 1, BelowYear: 1, VenueUnmatched: 1, AbstractRejected: 1, Accepted: 1}
	if out.Stats != want {
		t.Errorf("Stats = %+v, want %+v", out.Stats, want)
	}
}

// Title exclusion runs before everything else, so an excluded title in
// an unmatched venue counts as excluded, not unmatched.
func TestRunTitleExclusionShortCircuits(t *testing.T) {
	s := &fakeSearcher{papers: []scholar.Paper{
		{PaperID: "p1", Title: "Review of Things", Year: 1900, Venue: "Nowhere"},
	}}

	out, err := Run(context.Background(), s, testTopic(), types.Settings{MinYear: 2021}, testDefs(t), types.SearchConfig{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if out.Stats.TitleExcluded != 1 || out.Stats.BelowYear != 0 || out.Stats.VenueUnmatched != 0 {
		t.Errorf("Stats = %+v, want only TitleExcluded=1", out.Stats)
	}
}

func TestRunSkipAbstractVenue(t *testing.T) {
	// arXiv is on the defaults skip list: the non-matching abstract must
	// not reject the paper.
	s := &fakeSearcher{papers: []scholar.Paper{
		{PaperID: "p1", Title: "Keeper", Year: 2023, Venue: "arXiv.org", Abstract: "nothing relevant"},
	}}

	out, err := Run(context.Background(), s, testTopic(), types.Settings{}, testDefs(t), types.SearchConfig{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(out.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(out.Records))
	}
	if out.Records[0].MatchedKeywords != "" {
		t.Errorf("MatchedKeywords = %q, want empty for skipped filter", out.Records[0].MatchedKeywords)
	}
}

// A min_citations entry on a venue drops lightly-cited matches while
// better-established venue-mates pass.
func TestRunCitationFloor(t *testing.T) {
	defs, err := venues.Parse([]byte(`
venues:
  NeurIPS:
    venue: ["neurips"]
    category: "Machine Learning"
arXiv:
  venue: ["arxiv"]
  category: "Preprint"
  min_citations: 15
defaults:
  skip_abstract_filter_venues: ["arXiv"]
`))
	if err != nil {
		t.Fatalf("venues.Parse() error: %v", err)
	}

	s := &fakeSearcher{papers: []scholar.Paper{
		{PaperID: "p1", Title: "Fresh Preprint", Year: 2023, Venue: "arXiv.org", CitationCount: 3},
		{PaperID: "p2", Title: "Established Preprint", Year: 2023, Venue: "arXiv.org", CitationCount: 40},
		{PaperID: "p3", Title: "Uncited but Reviewed", Year: 2023, Venue: "NeurIPS", Abstract: "quantization"},
	}}

	out, err := Run(context.Background(), s, testTopic(), types.Settings{}, defs, types.SearchConfig{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(out.Records) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(out.Records), out.Records)
	}
	for _, r := range out.Records {
		if r.PaperID == "p1" {
			t.Errorf("lightly-cited preprint %q passed the citation floor", r.Title)
		}
	}
	if out.Stats.BelowCitations != 1 {
		t.Errorf("BelowCitations = %d, want 1", out.Stats.BelowCitations)
	}
}

func TestRunMissingAbstractPasses(t *testing.T) {
	s := &fakeSearcher{papers: []scholar.Paper{
		{PaperID: "p1", Title: "No Abstract Available", Year: 2023, Venue: "NeurIPS"},
	}}

	out, err := Run(context.Background(), s, testTopic(), types.Settings{}, testDefs(t), types.SearchConfig{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(out.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(out.Records))
	}
}

func TestRunVenueRestriction(t *testing.T) {
	s := &fakeSearcher{}
	topic := testTopic()
	topic.Venues = []string{"NeurIPS", "Bogus"}

	var buf bytes.Buffer
	out, err := Run(context.Background(), s, topic, types.Settings{}, testDefs(t), types.SearchConfig{}, &buf)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(s.requests) != 1 {
		t.Fatalf("made %d requests, want 1", len(s.requests))
	}
	wantVenues := []string{"neural information processing systems", "neurips"}
	got := s.requests[0].Venues
	if len(got) != len(wantVenues) || got[0] != wantVenues[0] || got[1] != wantVenues[1] {
		t.Errorf("request venues = %v, want %v", got, wantVenues)
	}
	if !strings.Contains(buf.String(), `unknown venue key "Bogus"`) {
		t.Errorf("missing unknown-key warning in output: %q", buf.String())
	}
	if len(out.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one entry", out.Warnings)
	}
}

func TestRunNoResolvableVenues(t *testing.T) {
	s := &fakeSearcher{}
	topic := testTopic()
	topic.Venues = []string{"Bogus"}

	out, err := Run(context.Background(), s, topic, types.Settings{}, testDefs(t), types.SearchConfig{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(s.requests) != 0 {
		t.Errorf("made %d requests, want 0", len(s.requests))
	}
	if len(out.Records) != 0 {
		t.Errorf("got %d records, want 0", len(out.Records))
	}
}

func TestRunNoVenueRestrictionUsesWholeTable(t *testing.T) {
	s := &fakeSearcher{}
	_, err := Run(context.Background(), s, testTopic(), types.Settings{}, testDefs(t), types.SearchConfig{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(s.requests) != 1 {
		t.Fatalf("made %d requests, want 1", len(s.requests))
	}
	// Whole table: NeurIPS (2) + CVPR (1) + arXiv (1).
	if len(s.requests[0].Venues) != 4 {
		t.Errorf("request venues = %v, want all 4 patterns", s.requests[0].Venues)
	}
}

func TestRunNoKeywordGroups(t *testing.T) {
	topic := testTopic()
	topic.QueryKeywords = nil

	_, err := Run(context.Background(), &fakeSearcher{}, topic, types.Settings{}, testDefs(t), types.SearchConfig{}, &bytes.Buffer{})
	if !errors.Is(err, aggregate.ErrNoKeywordGroups) {
		t.Errorf("Run() error = %v, want ErrNoKeywordGroups", err)
	}
}

func TestRunTopicExcludeOverridesDefaults(t *testing.T) {
	s := &fakeSearcher{papers: []scholar.Paper{
		{PaperID: "p1", Title: "A Survey of Quantization", Year: 2023, Venue: "NeurIPS", Abstract: "quantization"},
	}}
	settings := types.Settings{TitleExcludeKeywords: []string{"benchmark"}}

	out, err := Run(context.Background(), s, testTopic(), settings, testDefs(t), types.SearchConfig{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	// "survey" is only in the table defaults; explicit settings replace them.
	if len(out.Records) != 1 {
		t.Errorf("got %d records, want 1", len(out.Records))
	}
}

func TestSortRecords(t *testing.T) {
	records := []types.PaperRecord{
		{PaperID: "d", VenueName: "NeurIPS", Year: 2022, Citations: 50},
		{PaperID: "a", VenueName: "CVPR", Year: 2021, Citations: 3},
		{PaperID: "c", VenueName: "NeurIPS", Year: 2023, Citations: 1},
		{PaperID: "b", VenueName: "CVPR", Year: 2021, Citations: 9},
	}

	SortRecords(records)

	wantOrder := []string{"b", "a", "c", "d"}
	for i, want := range wantOrder {
		if records[i].PaperID != want {
			t.Fatalf("position %d: got %s, want %s (order %+v)", i, records[i].PaperID, want, records)
		}
	}
}

func TestGroupByCategory(t *testing.T) {
	records := []types.PaperRecord{
		{PaperID: "a", Category: "Machine Learning"},
		{PaperID: "b", Category: "Computer Vision"},
		{PaperID: "c", Category: "Machine Learning"},
	}

	grouped := GroupByCategory(records)
	if len(grouped) != 2 {
		t.Fatalf("got %d groups, want 2", len(grouped))
	}
	ml := grouped["Machine Learning"]
	if len(ml) != 2 || ml[0].PaperID != "a" || ml[1].PaperID != "c" {
		t.Errorf("Machine Learning group = %+v, want a then c", ml)
	}
}

func TestLoadTopics(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topics.yaml")
	content := `
settings:
  min_year: 2021
  limit_per_topic: 50
topics:
  - direction: "model compression"
    query_keywords:
      - ["LLM", "Quantization"]
  - direction: "retrieval"
    query_keywords:
      - ["RAG"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tf, err := LoadTopics(path)
	if err != nil {
		t.Fatalf("LoadTopics() error: %v", err)
	}
	if tf.Settings.MinYear != 2021 || tf.Settings.LimitPerTopic != 50 {
		t.Errorf("Settings = %+v", tf.Settings)
	}
	if len(tf.Topics) != 2 || tf.Topics[0].Direction != "model compression" {
		t.Errorf("Topics = %+v", tf.Topics)
	}
	if len(tf.Topics[0].QueryKeywords) != 1 || tf.Topics[0].QueryKeywords[0][1] != "Quantization" {
		t.Errorf("QueryKeywords = %+v", tf.Topics[0].QueryKeywords)
	}
}

func TestLoadTopicsErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"no topics", "settings:\n  min_year: 2021\n", "no topics"},
		{"missing direction", "topics:\n  - query_keywords: [[\"a\"]]\n", "no direction"},
		{"duplicate direction", "topics:\n  - direction: x\n  - direction: x\n", "duplicate direction"},
		{"invalid yaml", "topics: [", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadTopics(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadTopics() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}

	if _, err := LoadTopics(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Error("LoadTopics() on missing file succeeded")
	}
}

func TestWriteReadResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.yaml")
	groups := types.GroupedResults{
		"Machine Learning": {{PaperID: "a", Title: "Paper A", VenueName: "NeurIPS", Year: 2023}},
		"Computer Vision":  {{PaperID: "b"}, {PaperID: "c"}},
	}
	settings := types.Settings{MinYear: 2021}

	if err := WriteResults(path, settings, groups, []string{"one warning"}); err != nil {
		t.Fatalf("WriteResults() error: %v", err)
	}

	rf, err := ReadResults(path)
	if err != nil {
		t.Fatalf("ReadResults() error: %v", err)
	}
	if rf.Total != 3 {
		t.Errorf("Total = %d, want 3", rf.Total)
	}
	if rf.Settings.MinYear != 2021 {
		t.Errorf("Settings = %+v", rf.Settings)
	}
	got := rf.Groups["Machine Learning"]
	if len(got) != 1 || got[0].Title != "Paper A" {
		t.Errorf("Machine Learning group = %+v", got)
	}
	if len(rf.Warnings) != 1 {
		t.Errorf("Warnings = %v", rf.Warnings)
	}
}
