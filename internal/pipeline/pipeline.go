// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline composes the venue matcher, keyword filter, and query
// aggregator into per-topic search runs producing filtered, sorted,
// grouped paper records.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/pdiddy/paper-scout/internal/aggregate"
	"github.com/pdiddy/paper-scout/internal/keyword"
	"github.com/pdiddy/paper-scout/internal/scholar"
	"github.com/pdiddy/paper-scout/internal/venues"
	"github.com/pdiddy/paper-scout/pkg/types"
)

// Stats counts the fate of raw records through the filter chain.
type Stats struct {
	Raw              int
	Duplicates       int
	TitleExcluded    int
	BelowYear        int
	VenueUnmatched   int
	BelowCitations   int
	AbstractRejected int
	Accepted         int
}

// Output holds one topic's sorted records plus run diagnostics.
type Output struct {
	Records  []types.PaperRecord
	Stats    Stats
	Warnings []string
}

// Run executes the search pipeline for one topic: resolve the venue
// restriction, aggregate the deduplicated raw set, filter, and sort.
// Configuration errors (no keyword groups) are returned so the caller
// can skip the topic and continue the batch.
func Run(ctx context.Context, s aggregate.Searcher, topic types.Topic, settings types.Settings, defs *venues.Definitions, cfg types.SearchConfig, w io.Writer) (Output, error) {
	var out Output

	apiVenues := defs.AllAPIVenues()
	if len(topic.Venues) > 0 {
		resolved, unresolved := defs.APIVenues(topic.Venues)
		for _, key := range unresolved {
			msg := fmt.Sprintf("[%s] unknown venue key %q, skipping", topic.Direction, key)
			out.Warnings = append(out.Warnings, msg)
			fmt.Fprintf(w, "warning: %s\n", msg)
		}
		if len(resolved) == 0 {
			msg := fmt.Sprintf("[%s] no venue key resolved, nothing to search", topic.Direction)
			out.Warnings = append(out.Warnings, msg)
			fmt.Fprintf(w, "warning: %s\n", msg)
			return out, nil
		}
		apiVenues = resolved
	}

	agg, err := aggregate.Aggregate(ctx, s, topic.QueryKeywords, aggregate.Options{
		Venues:        apiVenues,
		FieldsOfStudy: settings.FieldsOfStudy,
		YearFrom:      settings.MinYear,
		Cap:           settings.LimitPerTopic,
		Bulk:          settings.Bulk,
	}, cfg, w)
	if err != nil {
		return out, fmt.Errorf("[%s] %w", topic.Direction, err)
	}
	out.Stats.Raw = len(agg.Papers) + agg.Duplicates
	out.Stats.Duplicates = agg.Duplicates
	out.Warnings = append(out.Warnings, agg.QueryErrors...)

	exclude := settings.TitleExcludeKeywords
	if len(exclude) == 0 {
		exclude = defs.Defaults().TitleExcludeKeywords
	}

	for _, p := range agg.Papers {
		if rec, ok := filterPaper(p, topic, settings, exclude, defs, &out.Stats); ok {
			rec.Direction = topic.Direction
			out.Records = append(out.Records, rec)
		}
	}
	out.Stats.Accepted = len(out.Records)

	SortRecords(out.Records)
	return out, nil
}

// filterPaper applies the filter chain to one raw paper and, on
// acceptance, constructs the immutable output record. Order matters:
// title exclusion short-circuits everything else.
func filterPaper(p scholar.Paper, topic types.Topic, settings types.Settings, exclude []string, defs *venues.Definitions, stats *Stats) (types.PaperRecord, bool) {
	if hit, _ := keyword.Excluded(p.Title, exclude); hit {
		stats.TitleExcluded++
		return types.PaperRecord{}, false
	}

	if settings.MinYear > 0 && p.Year < settings.MinYear {
		stats.BelowYear++
		return types.PaperRecord{}, false
	}

	name, category, ok := defs.Match(p.Venue)
	if !ok {
		stats.VenueUnmatched++
		return types.PaperRecord{}, false
	}

	// Per-venue citation floor from the definitions file.
	if def, ok := defs.Lookup(name); ok && def.MinCitations > 0 && p.CitationCount < def.MinCitations {
		stats.BelowCitations++
		return types.PaperRecord{}, false
	}

	matched := ""
	if len(topic.AbstractKeywords) > 0 &&
		!defs.SkipAbstract(name, topic.SkipAbstractVenues) &&
		p.Abstract != "" {
		ok, terms := keyword.MatchGroups(p.Abstract, topic.AbstractKeywords)
		if !ok {
			stats.AbstractRejected++
			return types.PaperRecord{}, false
		}
		matched = joinTerms(terms)
	}

	return types.PaperRecord{
		PaperID:         p.PaperID,
		Title:           p.Title,
		Authors:         p.AuthorNames(),
		Year:            p.Year,
		VenueName:       name,
		Category:        category,
		Citations:       p.CitationCount,
		URL:             p.URL,
		PDFURL:          p.PDFLink(),
		DOI:             p.ExternalIDs.DOI,
		Abstract:        p.Abstract,
		MatchedKeywords: matched,
	}, true
}

func joinTerms(terms []string) string {
	out := ""
	for i, t := range terms {
		if i > 0 {
			out += ", "
		}
		out += t
	}
	return out
}

// SortRecords applies the default total order: canonical venue name
// ascending, year descending, citation count descending.
func SortRecords(records []types.PaperRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.VenueName != b.VenueName {
			return a.VenueName < b.VenueName
		}
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		return a.Citations > b.Citations
	})
}

// GroupByCategory buckets sorted records by their venue category.
// Each record belongs to exactly one category.
func GroupByCategory(records []types.PaperRecord) types.GroupedResults {
	grouped := make(types.GroupedResults)
	for _, r := range records {
		grouped[r.Category] = append(grouped[r.Category], r)
	}
	return grouped
}

// GroupByDirection buckets records by the topic that produced them.
func GroupByDirection(records []types.PaperRecord) types.GroupedResults {
	grouped := make(types.GroupedResults)
	for _, r := range records {
		grouped[r.Direction] = append(grouped[r.Direction], r)
	}
	return grouped
}
