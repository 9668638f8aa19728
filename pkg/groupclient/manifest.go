package groupclient

import (
	"encoding/json"
	"fmt"
)

// Manifest describes a deployment group. A manifest file may hold several documents;
// their layers are concatenated in order.
//
//	createdBy: alice
//	layers:
//	  - elevation
//	  - roads
type Manifest struct {
	DeploymentGroupID string   `json:"deploymentGroupId,omitempty"`
	CreatedBy         string   `json:"createdBy,omitempty"`
	Layers            []string `json:"layers"`
}

func manifestFromDocuments(documents []json.RawMessage) (*Manifest, error) {
	manifest := &Manifest{
		Layers: make([]string, 0),
	}

	for i, document := range documents {
		doc := &Manifest{}
		err := json.Unmarshal(document, doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}

		if err := merge(&manifest.DeploymentGroupID, doc.DeploymentGroupID, "deploymentGroupId"); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		if err := merge(&manifest.CreatedBy, doc.CreatedBy, "createdBy"); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		manifest.Layers = append(manifest.Layers, doc.Layers...)
	}

	return manifest, nil
}

func merge(dst *string, value, field string) error {
	switch {
	case len(value) == 0:
	case len(*dst) == 0:
		*dst = value
	case *dst != value:
		return fmt.Errorf("conflicting values for %s: '%s' and '%s'", field, *dst, value)
	}
	return nil
}
