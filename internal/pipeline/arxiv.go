// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pdiddy/paper-scout/internal/aggregate"
	"github.com/pdiddy/paper-scout/internal/arxiv"
	"github.com/pdiddy/paper-scout/internal/keyword"
	"github.com/pdiddy/paper-scout/pkg/types"
)

// defaultWindowDays bounds the recency window when the settings leave
// it unset.
const defaultWindowDays = 7

// WindowSearcher is the arXiv capability the windowed run needs.
// *arxiv.Client satisfies it.
type WindowSearcher interface {
	SearchWindow(ctx context.Context, query string, since time.Time, limit int) ([]arxiv.Entry, error)
}

// RunWindow searches arXiv for one topic's recently updated preprints.
// The query joins the topic's keyword groups as OR-of-AND; results are
// filtered by subject, author count, and abstract keywords, then
// returned newest-updated first.
func RunWindow(ctx context.Context, s WindowSearcher, topic types.Topic, settings types.Settings, w io.Writer) ([]types.PaperRecord, error) {
	hasGroup := false
	for _, g := range topic.QueryKeywords {
		if len(g) > 0 {
			hasGroup = true
			break
		}
	}
	if !hasGroup {
		return nil, fmt.Errorf("[%s] %w", topic.Direction, aggregate.ErrNoKeywordGroups)
	}

	days := settings.SearchWindowDays
	if days <= 0 {
		days = defaultWindowDays
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	query := keyword.GroupQuery(topic.QueryKeywords)
	entries, err := s.SearchWindow(ctx, query, since, settings.LimitPerTopic)
	if err != nil {
		return nil, fmt.Errorf("[%s] arxiv search: %w", topic.Direction, err)
	}

	exclude := settings.TitleExcludeKeywords
	var records []types.PaperRecord
	for _, e := range entries {
		if hit, _ := keyword.Excluded(e.Title, exclude); hit {
			continue
		}
		if topic.MinAuthors > 0 && len(e.Authors) < topic.MinAuthors {
			continue
		}
		if len(topic.Subjects) > 0 && !hasSubject(e.Categories, topic.Subjects) {
			continue
		}
		matched := ""
		if len(topic.AbstractKeywords) > 0 {
			ok, terms := keyword.MatchGroups(e.Summary, topic.AbstractKeywords)
			if !ok {
				continue
			}
			matched = joinTerms(terms)
		}
		records = append(records, entryRecord(e, topic.Direction, matched))
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Updated > records[j].Updated
	})
	fmt.Fprintf(w, "[%s] %d of %d recent preprints kept\n", topic.Direction, len(records), len(entries))
	return records, nil
}

func hasSubject(categories, subjects []string) bool {
	for _, c := range categories {
		for _, s := range subjects {
			if c == s {
				return true
			}
		}
	}
	return false
}

func entryRecord(e arxiv.Entry, direction, matched string) types.PaperRecord {
	return types.PaperRecord{
		PaperID:         arxiv.ExtractID(e.ID),
		Title:           e.Title,
		Authors:         joinTerms(e.Authors),
		Year:            e.Published.Year(),
		VenueName:       "arXiv",
		Category:        e.PrimaryCategory,
		URL:             e.ID,
		PDFURL:          e.PDFURL,
		DOI:             e.DOI,
		Abstract:        e.Summary,
		MatchedKeywords: matched,
		Direction:       direction,
		Published:       e.Published.Format("2006-01-02"),
		Updated:         e.Updated.Format("2006-01-02"),
	}
}
