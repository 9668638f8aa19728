package layergroup

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"
	"unicode/utf8"
)

// GeoServer reads and writes layer groups in different shapes. Reads are decoded from
// either XML or JSON into LayerGroup; writes are always encoded as JSON from LayerGroup.
// The wire structs below are private to each direction and never shared.

const publishedTypeLayer = "layer"

type EncodingError struct {
	Group string
	Err   error
}

func (err *EncodingError) Error() string {
	return fmt.Sprintf("encode layer group %q: %s", err.Group, err.Err)
}

func (err *EncodingError) Unwrap() error {
	return err.Err
}

type DecodeError struct {
	Format string
	Err    error
}

func (err *DecodeError) Error() string {
	return fmt.Sprintf("decode %s layer group: %s", err.Format, err.Err)
}

func (err *DecodeError) Unwrap() error {
	return err.Err
}

// Write shape, accepted by POST and PUT on the layergroups endpoint.

type jsonWriteEnvelope struct {
	LayerGroup jsonWriteLayerGroup `json:"layerGroup"`
}

type jsonWriteLayerGroup struct {
	Name         string                `json:"name"`
	Publishables jsonWritePublishables `json:"publishables"`
	Styles       jsonWriteStyles       `json:"styles"`
}

type jsonWritePublishables struct {
	Published []jsonWritePublished `json:"published"`
}

type jsonWritePublished struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

type jsonWriteStyles struct {
	Style []string `json:"style"`
}

// EncodeJSON produces the request body GeoServer expects when creating or updating a layer group.
func EncodeJSON(g *LayerGroup) ([]byte, error) {
	if g == nil {
		return nil, &EncodingError{Err: fmt.Errorf("no layer group")}
	}
	if len(g.Name) == 0 {
		return nil, &EncodingError{Err: fmt.Errorf("layer group has no name")}
	}

	envelope := jsonWriteEnvelope{
		LayerGroup: jsonWriteLayerGroup{
			Name: g.Name,
			Publishables: jsonWritePublishables{
				Published: make([]jsonWritePublished, 0, len(g.Layers)),
			},
			Styles: jsonWriteStyles{
				Style: make([]string, 0, len(g.Styles)),
			},
		},
	}

	for _, values := range [][]string{{g.Name}, g.Layers, g.Styles} {
		for _, value := range values {
			if !utf8.ValidString(value) {
				return nil, &EncodingError{Group: g.Name, Err: fmt.Errorf("value %q is not valid UTF-8", value)}
			}
		}
	}

	for _, layer := range g.Layers {
		envelope.LayerGroup.Publishables.Published = append(envelope.LayerGroup.Publishables.Published, jsonWritePublished{
			Type: publishedTypeLayer,
			Name: layer,
		})
	}
	envelope.LayerGroup.Styles.Style = append(envelope.LayerGroup.Styles.Style, g.Styles...)

	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, &EncodingError{Group: g.Name, Err: err}
	}

	return data, nil
}

// XML read shape. Only the fields we need are mapped; everything else in the response is ignored.

type xmlLayerGroup struct {
	XMLName   xml.Name       `xml:"layerGroup"`
	Name      string         `xml:"name"`
	Published []xmlReference `xml:"publishables>published"`
	Styles    []xmlReference `xml:"styles>style"`
}

// A reference is either <x>value</x>, <x><name>value</name>...</x> or an empty <x/>.
type xmlReference struct {
	Text string `xml:",chardata"`
	Name string `xml:"name"`
}

func (r xmlReference) value() string {
	if name := strings.TrimSpace(r.Name); len(name) > 0 {
		return name
	}
	return strings.TrimSpace(r.Text)
}

// DecodeXML reads a layer group as returned by GET .../layergroups/{name}.xml.
func DecodeXML(data []byte) (*LayerGroup, error) {
	doc := &xmlLayerGroup{}
	err := xml.Unmarshal(data, doc)
	if err != nil {
		return nil, &DecodeError{Format: "xml", Err: err}
	}

	group := &LayerGroup{
		Name:   strings.TrimSpace(doc.Name),
		Layers: make([]string, 0, len(doc.Published)),
		Styles: make([]string, 0, len(doc.Styles)),
	}
	for _, published := range doc.Published {
		group.Layers = append(group.Layers, published.value())
	}
	for _, style := range doc.Styles {
		group.Styles = append(group.Styles, style.value())
	}

	return group, nil
}

// JSON read shape. GeoServer serializes a list with a single entry as the entry itself,
// and an empty container as the empty string.

type jsonReadEnvelope struct {
	LayerGroup jsonReadLayerGroup `json:"layerGroup"`
}

type jsonReadLayerGroup struct {
	Name         string               `json:"name"`
	Publishables jsonReadPublishables `json:"publishables"`
	Styles       jsonReadStyles       `json:"styles"`
}

type jsonReadPublishables struct {
	Published oneOrMany[jsonReference] `json:"published"`
}

func (p *jsonReadPublishables) UnmarshalJSON(data []byte) error {
	if blank(data) {
		*p = jsonReadPublishables{}
		return nil
	}
	type plain jsonReadPublishables
	return json.Unmarshal(data, (*plain)(p))
}

type jsonReadStyles struct {
	Style oneOrMany[jsonReference] `json:"style"`
}

func (s *jsonReadStyles) UnmarshalJSON(data []byte) error {
	if blank(data) {
		*s = jsonReadStyles{}
		return nil
	}
	type plain jsonReadStyles
	return json.Unmarshal(data, (*plain)(s))
}

type oneOrMany[T any] []T

func (o *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = nil
		return nil
	}

	if data[0] == '[' {
		var many []T
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*o = many
		return nil
	}

	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*o = oneOrMany[T]{one}
	return nil
}

// A JSON reference is either a bare string or an object carrying a name.
type jsonReference string

func (r *jsonReference) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}

	var name string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*r = jsonReference(strings.TrimSpace(name))
		return nil
	}

	object := struct {
		Name string `json:"name"`
	}{}
	if err := json.Unmarshal(data, &object); err != nil {
		return fmt.Errorf("reference must be a string or an object: %w", err)
	}
	*r = jsonReference(strings.TrimSpace(object.Name))
	return nil
}

func blank(data []byte) bool {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return true
	}
	var s string
	if data[0] == '"' && json.Unmarshal(data, &s) == nil {
		return len(strings.TrimSpace(s)) == 0
	}
	return false
}

// DecodeJSON reads a layer group as returned by GET .../layergroups/{name}.json.
func DecodeJSON(data []byte) (*LayerGroup, error) {
	envelope := &jsonReadEnvelope{}
	err := json.Unmarshal(data, envelope)
	if err != nil {
		return nil, &DecodeError{Format: "json", Err: err}
	}

	doc := envelope.LayerGroup
	group := &LayerGroup{
		Name:   strings.TrimSpace(doc.Name),
		Layers: make([]string, 0, len(doc.Publishables.Published)),
		Styles: make([]string, 0, len(doc.Styles.Style)),
	}
	for _, published := range doc.Publishables.Published {
		group.Layers = append(group.Layers, string(published))
	}
	for _, style := range doc.Styles.Style {
		group.Styles = append(group.Styles, string(style))
	}

	return group, nil
}
