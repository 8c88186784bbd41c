// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-scout pipeline.
package types

// PaperRecord is the unit of output produced at the aggregation boundary.
// Downstream stages only read it: filtering either accepts or drops a
// record, it never mutates one.
type PaperRecord struct {
	// PaperID is the source-assigned identifier used for deduplication.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors is the author list rendered as a comma-joined string.
	Authors string `json:"authors" yaml:"authors"`

	// Year is the publication year.
	Year int `json:"year" yaml:"year"`

	// VenueName is the canonical venue name assigned by the venue matcher.
	VenueName string `json:"venue_name" yaml:"venue_name"`

	// Category is the grouping label from the venue definition.
	Category string `json:"category" yaml:"category"`

	// Citations is the citation count reported by the source.
	Citations int `json:"citations" yaml:"citations"`

	// URL is the landing page for the paper.
	URL string `json:"url" yaml:"url"`

	// PDFURL is a direct artifact URL when the source provides one.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// DOI is set when the source reports one; the retriever uses it for
	// open-access resolution.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Abstract is the paper abstract or summary.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// MatchedKeywords lists the abstract keywords that matched, rendered
	// sorted and comma-joined. Reporting only.
	MatchedKeywords string `json:"matched_keywords,omitempty" yaml:"matched_keywords,omitempty"`

	// Direction names the topic that produced this record.
	Direction string `json:"direction,omitempty" yaml:"direction,omitempty"`

	// Published and Updated are "YYYY-MM-DD" dates, set by the preprint
	// source for windowed searches.
	Published string `json:"published,omitempty" yaml:"published,omitempty"`
	Updated   string `json:"updated,omitempty" yaml:"updated,omitempty"`
}

// GroupedResults maps a group key (category or direction name) to an
// ordered list of records. This is the output contract handed to the
// export and retrieval stages.
type GroupedResults map[string][]PaperRecord

// Topic is one named search direction within a batch. Immutable during a
// single search execution.
type Topic struct {
	// Direction names the topic.
	Direction string `json:"direction" yaml:"direction"`

	// QueryKeywords holds keyword groups sent to the search API. Terms
	// within a group are ANDed; groups are ORed against each other.
	QueryKeywords [][]string `json:"query_keywords" yaml:"query_keywords"`

	// AbstractKeywords holds keyword groups evaluated locally against the
	// abstract text, with the same group semantics. Empty means no
	// abstract filtering.
	AbstractKeywords [][]string `json:"abstract_keywords,omitempty" yaml:"abstract_keywords,omitempty"`

	// Venues restricts the search to these canonical venue keys. Empty
	// means all known venues.
	Venues []string `json:"venues,omitempty" yaml:"venues,omitempty"`

	// SkipAbstractVenues lists canonical venues for which the abstract
	// keyword filter is bypassed, in addition to the definitions-file
	// defaults.
	SkipAbstractVenues []string `json:"skip_abstract_venues,omitempty" yaml:"skip_abstract_venues,omitempty"`

	// Subjects restricts windowed preprint searches to these categories
	// (e.g. "cs.CL"). Ignored by the citation-graph source.
	Subjects []string `json:"subjects,omitempty" yaml:"subjects,omitempty"`

	// MinAuthors drops windowed preprint results with fewer authors.
	MinAuthors int `json:"min_authors,omitempty" yaml:"min_authors,omitempty"`
}

// Settings holds the global constraints for one search execution.
type Settings struct {
	// MinYear drops records published before this year. Zero disables.
	MinYear int `json:"min_year" yaml:"min_year"`

	// LimitPerTopic caps the number of results per topic.
	LimitPerTopic int `json:"limit_per_topic" yaml:"limit_per_topic"`

	// TitleExcludeKeywords rejects any record whose title contains one of
	// these terms. Always applied when non-empty.
	TitleExcludeKeywords []string `json:"title_exclude_keywords,omitempty" yaml:"title_exclude_keywords,omitempty"`

	// FieldsOfStudy restricts citation-graph queries (e.g. "Computer Science").
	FieldsOfStudy []string `json:"fields_of_study,omitempty" yaml:"fields_of_study,omitempty"`

	// Bulk selects the bulk aggregation strategy: one merged request per
	// topic instead of one request per keyword group.
	Bulk bool `json:"bulk" yaml:"bulk"`

	// SearchWindowDays bounds windowed preprint searches (default 7).
	SearchWindowDays int `json:"search_window_days,omitempty" yaml:"search_window_days,omitempty"`
}
