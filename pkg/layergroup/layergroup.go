// Package layergroup holds the canonical representation of a GeoServer layer group,
// together with the mappings to and from the wire formats GeoServer speaks.
package layergroup

import (
	"fmt"
	"regexp"
)

const maxLayerNameLength = 255

// GeoServer accepts workspace-qualified names such as "piazza:layer".
var layerNameRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.:\-]*$`)

// LayerGroup is the state of one layer group. Name equals the deployment group ID.
// Styles are positionally unrelated to layers; only their count matters.
type LayerGroup struct {
	Name   string
	Layers []string
	Styles []string
}

type BuildError struct {
	Layer  string
	Reason string
}

func (err *BuildError) Error() string {
	return fmt.Sprintf("layer %q: %s", err.Layer, err.Reason)
}

func ValidateLayerName(layer string) error {
	switch {
	case len(layer) == 0:
		return &BuildError{Layer: layer, Reason: "empty layer name"}
	case len(layer) > maxLayerNameLength:
		return &BuildError{Layer: layer, Reason: fmt.Sprintf("layer name longer than %d characters", maxLayerNameLength)}
	case !layerNameRegex.MatchString(layer):
		return &BuildError{Layer: layer, Reason: "layer name contains characters not accepted by GeoServer"}
	}
	return nil
}

// Build creates a fresh layer group from a list of layer names.
// Duplicates are dropped, first occurrence wins.
func Build(name string, layers []string) (*LayerGroup, error) {
	if len(name) == 0 {
		return nil, &BuildError{Reason: "layer group has no name"}
	}

	group := &LayerGroup{
		Name:   name,
		Layers: make([]string, 0, len(layers)),
		Styles: make([]string, 0, len(layers)),
	}

	if err := group.Merge(layers); err != nil {
		return nil, err
	}

	return group, nil
}

// Merge appends every layer not already part of the group. All names are validated
// before the group is modified. Merging names already present is a no-op.
func (g *LayerGroup) Merge(layers []string) error {
	for _, layer := range layers {
		if err := ValidateLayerName(layer); err != nil {
			return err
		}
	}

	for _, layer := range layers {
		if !g.HasLayer(layer) {
			g.Layers = append(g.Layers, layer)
		}
	}

	return nil
}

func (g *LayerGroup) HasLayer(layer string) bool {
	for _, existing := range g.Layers {
		if existing == layer {
			return true
		}
	}
	return false
}

func (g *LayerGroup) Copy() *LayerGroup {
	return &LayerGroup{
		Name:   g.Name,
		Layers: append(make([]string, 0, len(g.Layers)), g.Layers...),
		Styles: append(make([]string, 0, len(g.Styles)), g.Styles...),
	}
}
