// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pdiddy/paper-scout/internal/pipeline"
	"github.com/pdiddy/paper-scout/internal/report"
	"github.com/pdiddy/paper-scout/pkg/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

type venueEntry struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Patterns []string `json:"patterns"`
}

type venuesResponse struct {
	Venues               []venueEntry `json:"venues"`
	TitleExcludeKeywords []string     `json:"title_exclude_keywords"`
	SkipAbstractVenues   []string     `json:"skip_abstract_venues"`
}

func (s *Server) handleVenues(w http.ResponseWriter, r *http.Request) {
	resp := venuesResponse{
		TitleExcludeKeywords: s.defs.Defaults().TitleExcludeKeywords,
		SkipAbstractVenues:   s.defs.Defaults().SkipAbstractFilterVenues,
	}
	for _, name := range s.defs.Names() {
		def, _ := s.defs.Lookup(name)
		resp.Venues = append(resp.Venues, venueEntry{
			Name:     name,
			Category: def.Category,
			Patterns: def.Patterns,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type searchRequest struct {
	Settings types.Settings `json:"settings"`
	Topics   []types.Topic  `json:"topics"`
	GroupBy  string         `json:"group_by,omitempty"`
	Locale   string         `json:"locale,omitempty"`

	// IncludePDFs asks a report request to fetch the PDFs and bundle
	// them with the workbook into a zip archive. Ignored by /search.
	IncludePDFs bool `json:"include_pdfs,omitempty"`
}

type searchResponse struct {
	Groups   types.GroupedResults `json:"groups"`
	Total    int                  `json:"total"`
	Warnings []string             `json:"warnings,omitempty"`
}

func (req *searchRequest) validate() error {
	if len(req.Topics) == 0 {
		return fmt.Errorf("at least one topic is required")
	}
	for i, t := range req.Topics {
		if t.Direction == "" {
			return fmt.Errorf("topic %d has no direction", i)
		}
	}
	return nil
}

func (req *searchRequest) grouping() pipeline.Grouping {
	if req.GroupBy == string(pipeline.ByDirection) {
		return pipeline.ByDirection
	}
	return pipeline.ByCategory
}

func (s *Server) runSearch(r *http.Request, req searchRequest) (searchResponse, error) {
	groups, warnings, err := s.runner.Run(r.Context(), req.Topics, req.Settings, req.grouping(), s.logw)
	if err != nil {
		return searchResponse{}, err
	}
	resp := searchResponse{Groups: groups, Warnings: warnings}
	for _, records := range groups {
		resp.Total += len(records)
	}
	return resp, nil
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.runSearch(r, req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type createReportResponse struct {
	ReportID string   `json:"report_id"`
	Total    int      `json:"total"`
	Warnings []string `json:"warnings,omitempty"`
}

// handleCreateReport runs a search and renders the result as a
// workbook, stored for one subsequent download. With include_pdfs the
// PDFs are fetched and bundled with the workbook into a zip archive.
func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.runSearch(r, req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if resp.Total == 0 {
		writeError(w, http.StatusUnprocessableEntity, "search produced no records")
		return
	}

	locale := req.Locale
	if locale == "" {
		locale = s.report.Locale
	}
	if err := os.MkdirAll(s.cfg.WorkDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("preparing work directory: %v", err))
		return
	}
	staging, err := os.MkdirTemp(s.cfg.WorkDir, "report-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("preparing work directory: %v", err))
		return
	}
	defer os.RemoveAll(staging)

	var downloaded map[string]string
	if req.IncludePDFs {
		downloaded, err = s.fetcher.Fetch(r.Context(), resp.Groups, staging, s.logw)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("fetching PDFs: %v", err))
			return
		}
	}

	workbook := "papers-" + time.Now().Format("2006-01-02") + ".xlsx"
	path := filepath.Join(staging, workbook)
	if err := report.WriteXLSX(path, resp.Groups, downloaded, types.ReportConfig{Locale: locale}); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("rendering report: %v", err))
		return
	}

	var (
		name string
		mime string
		data []byte
	)
	if req.IncludePDFs {
		paths := []string{workbook}
		for _, rel := range downloaded {
			paths = append(paths, rel)
		}
		var buf bytes.Buffer
		if err := report.BundleZip(&buf, staging, paths); err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("bundling report: %v", err))
			return
		}
		name = strings.TrimSuffix(workbook, ".xlsx") + ".zip"
		mime = "application/zip"
		data = buf.Bytes()
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("reading report: %v", err))
			return
		}
		name = workbook
		mime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}

	id := s.store.Put(name, mime, data)
	writeJSON(w, http.StatusCreated, createReportResponse{
		ReportID: id,
		Total:    resp.Total,
		Warnings: resp.Warnings,
	})
}

// handleGetReport serves a stored report once and evicts it.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := s.store.Take(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	w.Header().Set("Content-Type", entry.MIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entry.Name))
	w.Write(entry.Data)
}
