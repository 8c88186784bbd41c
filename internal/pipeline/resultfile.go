// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-scout/pkg/types"
)

// ResultFile is the saved output of a search run, re-readable by the
// fetch and report stages so they do not have to repeat the search.
type ResultFile struct {
	GeneratedAt time.Time            `yaml:"generated_at"`
	Settings    types.Settings       `yaml:"settings"`
	Groups      types.GroupedResults `yaml:"groups"`
	Total       int                  `yaml:"total"`
	Warnings    []string             `yaml:"warnings,omitempty"`
}

// WriteResults saves grouped search output as YAML.
func WriteResults(path string, settings types.Settings, groups types.GroupedResults, warnings []string) error {
	total := 0
	for _, records := range groups {
		total += len(records)
	}
	rf := ResultFile{
		GeneratedAt: time.Now().UTC(),
		Settings:    settings,
		Groups:      groups,
		Total:       total,
		Warnings:    warnings,
	}
	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling results: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadResults loads a previously saved search run.
func ReadResults(path string) (*ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results file: %w", err)
	}
	var rf ResultFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing results file %s: %w", path, err)
	}
	return &rf, nil
}
