// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders grouped paper records as spreadsheet workbooks
// and bundles run artifacts for delivery.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/paper-scout/pkg/types"
)

// maxSheetNameLen is the sheet name limit imposed by the xlsx format.
const maxSheetNameLen = 31

// maxColWidth caps auto-sized column widths so abstracts do not blow
// the layout up.
const maxColWidth = 60

var headersEN = []string{"Venue", "Year", "Title", "Authors", "Citations", "Matched Keywords", "Updated", "URL", "Downloaded"}
var headersZH = []string{"会议/期刊", "年份", "标题", "作者", "引用数", "命中关键词", "更新日期", "链接", "已下载"}

// WriteXLSX writes one sheet per group, rows in the order the records
// arrive in. The downloaded set marks records whose PDF was retrieved.
func WriteXLSX(path string, groups types.GroupedResults, downloaded map[string]string, cfg types.ReportConfig) error {
	f := excelize.NewFile()
	defer f.Close()

	headers := headersEN
	if cfg.Locale == "zh" {
		headers = headersZH
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return fmt.Errorf("no groups to export")
	}

	used := make(map[string]bool)
	for i, group := range names {
		sheet := sheetName(group, used)
		if i == 0 {
			// Reuse the workbook's default sheet for the first group.
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("renaming sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("creating sheet %s: %w", sheet, err)
			}
		}
		if err := writeSheet(f, sheet, headers, groups[group], downloaded); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, records []types.PaperRecord, downloaded map[string]string) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("writing header row: %w", err)
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len([]rune(h))
	}

	for i, rec := range records {
		mark := ""
		if _, ok := downloaded[rec.PaperID]; ok {
			mark = "yes"
		}
		row := []interface{}{
			rec.VenueName,
			rec.Year,
			rec.Title,
			rec.Authors,
			rec.Citations,
			rec.MatchedKeywords,
			rec.Updated,
			rec.URL,
			mark,
		}
		cell := "A" + strconv.Itoa(i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
		for j, v := range row {
			if n := len([]rune(fmt.Sprint(v))); n > widths[j] {
				widths[j] = n
			}
		}
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("column name: %w", err)
		}
		w := float64(width + 2)
		if w > maxColWidth {
			w = maxColWidth
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return fmt.Errorf("setting column width: %w", err)
		}
	}
	return nil
}

// sheetName renders a group name as a legal, unique sheet name: the
// characters xlsx forbids are replaced and the result truncated to 31.
func sheetName(group string, used map[string]bool) string {
	name := strings.NewReplacer(
		":", " ", "\\", " ", "/", " ", "?", " ",
		"*", " ", "[", " ", "]", " ",
	).Replace(group)
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Group"
	}
	name = truncate(name, maxSheetNameLen)

	if !used[name] {
		used[name] = true
		return name
	}
	for i := 2; ; i++ {
		suffix := " " + strconv.Itoa(i)
		candidate := truncate(name, maxSheetNameLen-len(suffix)) + suffix
		if !used[candidate] {
			used[candidate] = true
			return candidate
		}
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}
