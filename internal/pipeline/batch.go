// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/paper-scout/internal/aggregate"
	"github.com/pdiddy/paper-scout/internal/venues"
	"github.com/pdiddy/paper-scout/pkg/types"
)

// Grouping selects the key records are bucketed under.
type Grouping string

const (
	ByCategory  Grouping = "category"
	ByDirection Grouping = "direction"
)

// RunBatch executes every topic in order and groups the combined
// records. A topic whose configuration is unusable is reported and
// skipped; the batch continues.
func RunBatch(ctx context.Context, s aggregate.Searcher, topics []types.Topic, settings types.Settings, defs *venues.Definitions, cfg types.SearchConfig, groupBy Grouping, w io.Writer) (types.GroupedResults, []string, error) {
	var all []types.PaperRecord
	var warnings []string

	for _, topic := range topics {
		fmt.Fprintf(w, "searching topic %q\n", topic.Direction)
		out, err := Run(ctx, s, topic, settings, defs, cfg, w)
		if err != nil {
			if ctx.Err() != nil {
				return nil, warnings, ctx.Err()
			}
			msg := fmt.Sprintf("topic %q skipped: %v", topic.Direction, err)
			warnings = append(warnings, msg)
			fmt.Fprintf(w, "warning: %s\n", msg)
			continue
		}
		warnings = append(warnings, out.Warnings...)
		all = append(all, out.Records...)
		fmt.Fprintf(w, "topic %q: %d of %d raw records kept\n",
			topic.Direction, out.Stats.Accepted, out.Stats.Raw)
	}

	if groupBy == ByDirection {
		return GroupByDirection(all), warnings, nil
	}
	return GroupByCategory(all), warnings, nil
}
