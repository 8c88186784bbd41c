// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-scout/pkg/types"
)

// TopicsFile is the on-disk batch description: shared settings plus one
// topic per research direction.
type TopicsFile struct {
	Settings types.Settings `yaml:"settings"`
	Topics   []types.Topic  `yaml:"topics"`
}

// LoadTopics reads and validates a topics file. A batch with no topics
// is a configuration error.
func LoadTopics(path string) (*TopicsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topics file: %w", err)
	}
	var tf TopicsFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing topics file %s: %w", path, err)
	}
	if len(tf.Topics) == 0 {
		return nil, fmt.Errorf("topics file %s defines no topics", path)
	}
	seen := make(map[string]bool)
	for i, t := range tf.Topics {
		if t.Direction == "" {
			return nil, fmt.Errorf("topics file %s: topic %d has no direction", path, i)
		}
		if seen[t.Direction] {
			return nil, fmt.Errorf("topics file %s: duplicate direction %q", path, t.Direction)
		}
		seen[t.Direction] = true
	}
	return &tf, nil
}
