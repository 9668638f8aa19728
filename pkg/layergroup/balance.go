package layergroup

// DefaultStyle tells GeoServer to use the layer's own default style.
const DefaultStyle = ""

// Balance returns a copy of the group where the number of styles equals the number of layers.
// GeoServer rejects layer groups where the two counts differ, even when every style is the default.
// Missing styles are appended as DefaultStyle; surplus styles are removed from the front.
// Layers are never touched. Apply this last, right before encoding.
func Balance(g LayerGroup) LayerGroup {
	balanced := *g.Copy()

	for len(balanced.Styles) != len(balanced.Layers) {
		if len(balanced.Styles) < len(balanced.Layers) {
			balanced.Styles = append(balanced.Styles, DefaultStyle)
		} else {
			balanced.Styles = balanced.Styles[1:]
		}
	}

	return balanced
}

func (g *LayerGroup) Balanced() bool {
	return len(g.Styles) == len(g.Layers)
}
