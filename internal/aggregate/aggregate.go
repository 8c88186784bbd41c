// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate issues search API queries, deduplicates the streamed
// results by paper identifier, and caps volume per query.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/paper-scout/internal/keyword"
	"github.com/pdiddy/paper-scout/internal/scholar"
	"github.com/pdiddy/paper-scout/pkg/types"
)

// ErrNoKeywordGroups reports a topic with no usable query keyword group.
// A configuration error: the topic is skipped, the batch continues.
var ErrNoKeywordGroups = errors.New("no non-empty query keyword groups")

// Searcher is the slice of the scholar client the aggregator depends on.
type Searcher interface {
	Search(ctx context.Context, req scholar.Request, cfg types.SearchConfig, yield func(scholar.Paper) bool) error
}

// Options holds the per-aggregation constraints.
type Options struct {
	// Venues restricts queries to these API-facing venue strings.
	Venues []string

	// FieldsOfStudy restricts queries to these fields.
	FieldsOfStudy []string

	// YearFrom restricts queries to this year onward. Zero disables.
	YearFrom int

	// Cap bounds the items streamed per query (precise mode) or per
	// aggregation (bulk mode). Zero means uncapped.
	Cap int

	// Bulk merges all keyword groups into a single OR-combined request
	// instead of one request per group. Trades API call count against
	// per-call result completeness; upstream matching semantics differ
	// from precise mode (API-side full-text OR vs AND within a group).
	Bulk bool
}

// Output holds the deduplicated result set and per-query statistics.
type Output struct {
	Papers      []scholar.Paper
	Duplicates  int
	QueryErrors []string
}

// Aggregate runs one query per keyword group (precise mode) or a single
// merged query (bulk mode) and returns the deduplicated results.
// Identifier dedup is first-seen wins. A failing individual query is
// logged to w and skipped; it never aborts the aggregation.
func Aggregate(ctx context.Context, s Searcher, groups [][]string, opts Options, cfg types.SearchConfig, w io.Writer) (Output, error) {
	if opts.Bulk {
		return aggregateBulk(ctx, s, groups, opts, cfg, w)
	}
	return aggregatePrecise(ctx, s, groups, opts, cfg, w)
}

func aggregatePrecise(ctx context.Context, s Searcher, groups [][]string, opts Options, cfg types.SearchConfig, w io.Writer) (Output, error) {
	var queries []string
	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		queries = append(queries, strings.Join(group, " "))
	}
	if len(queries) == 0 {
		return Output{}, ErrNoKeywordGroups
	}

	var out Output
	seen := make(map[string]struct{})

	for i, query := range queries {
		if i > 0 && cfg.InterQueryDelay > 0 {
			time.Sleep(cfg.InterQueryDelay)
		}

		streamed := 0
		err := s.Search(ctx, scholar.Request{
			Query:         query,
			Venues:        opts.Venues,
			FieldsOfStudy: opts.FieldsOfStudy,
			YearFrom:      opts.YearFrom,
		}, cfg, func(p scholar.Paper) bool {
			streamed++
			collect(&out, seen, p)
			return opts.Cap <= 0 || streamed < opts.Cap
		})
		if err != nil {
			msg := fmt.Sprintf("query %q: %v", query, err)
			out.QueryErrors = append(out.QueryErrors, msg)
			fmt.Fprintf(w, "warning: %s\n", msg)
		}
	}
	return out, nil
}

func aggregateBulk(ctx context.Context, s Searcher, groups [][]string, opts Options, cfg types.SearchConfig, w io.Writer) (Output, error) {
	query := keyword.GroupQuery(groups)
	if query == "" {
		return Output{}, ErrNoKeywordGroups
	}

	var out Output
	seen := make(map[string]struct{})

	streamed := 0
	err := s.Search(ctx, scholar.Request{
		Query:         query,
		Venues:        opts.Venues,
		FieldsOfStudy: opts.FieldsOfStudy,
		YearFrom:      opts.YearFrom,
		Bulk:          true,
	}, cfg, func(p scholar.Paper) bool {
		streamed++
		collect(&out, seen, p)
		return opts.Cap <= 0 || streamed < opts.Cap
	})
	if err != nil {
		msg := fmt.Sprintf("bulk query %q: %v", query, err)
		out.QueryErrors = append(out.QueryErrors, msg)
		fmt.Fprintf(w, "warning: %s\n", msg)
	}
	return out, nil
}

// collect adds a streamed paper unless its identifier was already seen.
// Papers without an identifier are dropped: they cannot participate in
// deduplication and the record type requires one.
func collect(out *Output, seen map[string]struct{}, p scholar.Paper) {
	if p.PaperID == "" {
		return
	}
	if _, dup := seen[p.PaperID]; dup {
		out.Duplicates++
		return
	}
	seen[p.PaperID] = struct{}{}
	out.Papers = append(out.Papers, p)
}
