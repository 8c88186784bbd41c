// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-scout/internal/fetch"
	"github.com/pdiddy/paper-scout/internal/pipeline"
	"github.com/pdiddy/paper-scout/internal/report"
	"github.com/pdiddy/paper-scout/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a saved search run as a spreadsheet",
	Long: `Report reads a result file and writes an xlsx workbook with one sheet
per group. With --papers-dir, records whose PDF was fetched are marked
and the workbook plus PDFs can be bundled into a zip archive.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().String("results", "results.yaml", "result file from a search run")
	reportCmd.Flags().String("out", "report.xlsx", "workbook file to write")
	reportCmd.Flags().String("locale", "en", "header language: en or zh")
	reportCmd.Flags().String("papers-dir", "", "fetched PDFs directory, used for the downloaded column")
	reportCmd.Flags().String("zip", "", "also bundle the workbook and PDFs into this zip archive")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	resultsPath, _ := cmd.Flags().GetString("results")
	outPath, _ := cmd.Flags().GetString("out")
	locale, _ := cmd.Flags().GetString("locale")
	papersDir, _ := cmd.Flags().GetString("papers-dir")
	zipPath, _ := cmd.Flags().GetString("zip")

	rf, err := pipeline.ReadResults(resultsPath)
	if err != nil {
		return err
	}

	downloaded := map[string]string{}
	if papersDir != "" {
		downloaded = scanDownloads(papersDir, rf.Groups)
	}

	if err := report.WriteXLSX(outPath, rf.Groups, downloaded, types.ReportConfig{Locale: locale}); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d records, %d with PDFs)\n", outPath, rf.Total, len(downloaded))

	if zipPath == "" {
		return nil
	}
	return writeBundle(zipPath, outPath, papersDir, downloaded)
}

// scanDownloads locates fetched PDFs on disk so the workbook can mark
// them. The fetch stage names files deterministically from the record.
func scanDownloads(papersDir string, groups types.GroupedResults) map[string]string {
	downloaded := make(map[string]string)
	for group, records := range groups {
		for _, rec := range records {
			rel := fetch.RelPath(group, rec)
			if _, err := os.Stat(filepath.Join(papersDir, rel)); err == nil {
				downloaded[rec.PaperID] = rel
			}
		}
	}
	return downloaded
}

// writeBundle stages the workbook next to the fetched PDFs and zips the
// lot, keeping the per-group layout inside the archive.
func writeBundle(zipPath, workbookPath, papersDir string, downloaded map[string]string) error {
	staging, err := os.MkdirTemp("", "paper-scout-bundle-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)

	copyIn := func(src, rel string) error {
		data, err := os.ReadFile(src)
		if err != nil {
			return err
		}
		dst := filepath.Join(staging, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		return os.WriteFile(dst, data, 0o644)
	}

	paths := []string{filepath.Base(workbookPath)}
	if err := copyIn(workbookPath, paths[0]); err != nil {
		return err
	}
	for _, rel := range downloaded {
		if err := copyIn(filepath.Join(papersDir, rel), rel); err != nil {
			return err
		}
		paths = append(paths, rel)
	}

	f, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer f.Close()
	if err := report.BundleZip(f, staging, paths); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d PDFs)\n", zipPath, len(downloaded))
	return nil
}
