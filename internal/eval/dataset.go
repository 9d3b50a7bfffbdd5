package eval

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/referralab/urgentia/internal/model"
	"gopkg.in/yaml.v3"
)

// The labeled evaluation corpus ships inside the binary, so an evaluation
// run needs no fixture files on disk.
//
//go:embed dataset.yaml
var datasetYAML []byte

// LoadDataset parses the embedded corpus and verifies its integrity
func LoadDataset() (*model.Dataset, error) {
	var ds model.Dataset
	if err := yaml.Unmarshal(datasetYAML, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}

	if err := validateDataset(&ds); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}

	return &ds, nil
}

func validateDataset(ds *model.Dataset) error {
	if len(ds.Cases) == 0 {
		return fmt.Errorf("no cases")
	}

	seen := make(map[string]bool, len(ds.Cases))
	for i, c := range ds.Cases {
		if c.CaseID == "" {
			return fmt.Errorf("case %d: missing case_id", i)
		}
		if seen[c.CaseID] {
			return fmt.Errorf("duplicate case id %s", c.CaseID)
		}
		seen[c.CaseID] = true

		if strings.TrimSpace(c.ReferralText) == "" {
			return fmt.Errorf("case %s: empty referral text", c.CaseID)
		}

		switch c.GroundTruth.Priority {
		case "Emergent", "Urgent", "Routine":
		default:
			return fmt.Errorf("case %s: unexpected priority %q", c.CaseID, c.GroundTruth.Priority)
		}

		if c.GroundTruth.UrgencyScore < 1 || c.GroundTruth.UrgencyScore > 10 {
			return fmt.Errorf("case %s: urgency score %d out of range", c.CaseID, c.GroundTruth.UrgencyScore)
		}
	}

	return nil
}
