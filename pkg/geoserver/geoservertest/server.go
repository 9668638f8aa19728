// Package geoservertest provides an in-memory GeoServer that serves the layer group
// REST endpoints, for use in tests.
package geoservertest

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/craigwongva/pz-access/pkg/layergroup"
)

const Workspace = "piazza"

type Request struct {
	Method string
	Path   string
	Body   []byte
}

type failure struct {
	statusCode int
	body       string
}

// Server mimics the parts of GeoServer that matter here: layer groups are stored as
// submitted, style parity is enforced on writes, and single-element lists are rendered
// as scalars in JSON responses.
type Server struct {
	*httptest.Server

	lock     sync.Mutex
	groups   map[string]layergroup.LayerGroup
	requests []Request
	failures map[string]failure
}

func NewServer() *Server {
	s := &Server{
		groups:   make(map[string]layergroup.LayerGroup),
		failures: make(map[string]failure),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	return s
}

// Store puts a layer group directly into the server, bypassing validation.
func (s *Server) Store(group layergroup.LayerGroup) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.groups[group.Name] = *group.Copy()
}

func (s *Server) Group(name string) (*layergroup.LayerGroup, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	group, ok := s.groups[name]
	if !ok {
		return nil, false
	}
	return group.Copy(), true
}

func (s *Server) Requests() []Request {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]Request{}, s.requests...)
}

// FailWith makes every subsequent request with the given method return the status code and body.
func (s *Server) FailWith(method string, statusCode int, body string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.failures[method] = failure{statusCode: statusCode, body: body}
}

func (s *Server) Recover(method string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.failures, method)
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.lock.Lock()
	defer s.lock.Unlock()

	s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Body: body})

	if f, ok := s.failures[r.Method]; ok {
		w.WriteHeader(f.statusCode)
		io.WriteString(w, f.body)
		return
	}

	prefix := fmt.Sprintf("/rest/workspaces/%s/layergroups", Workspace)
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	resource := strings.TrimPrefix(r.URL.Path, prefix)

	if resource == ".json" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.create(w, body)
		return
	}

	name, format, ok := splitResource(resource)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.get(w, name, format)
	case http.MethodPut:
		s.update(w, name, body)
	case http.MethodDelete:
		s.delete(w, name)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func splitResource(resource string) (name, format string, ok bool) {
	resource = strings.TrimPrefix(resource, "/")
	dot := strings.LastIndex(resource, ".")
	if dot <= 0 || strings.Contains(resource, "/") {
		return "", "", false
	}
	return resource[:dot], resource[dot+1:], true
}

func (s *Server) create(w http.ResponseWriter, body []byte) {
	group, err := layergroup.DecodeJSON(body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, err.Error())
		return
	}
	if _, exists := s.groups[group.Name]; exists {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "Layer group named '%s' already exists in workspace %s", group.Name, Workspace)
		return
	}
	if !group.Balanced() {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "Layer group has different number of styles than layers")
		return
	}
	s.groups[group.Name] = *group
	w.WriteHeader(http.StatusCreated)
	io.WriteString(w, group.Name)
}

func (s *Server) update(w http.ResponseWriter, name string, body []byte) {
	if _, exists := s.groups[name]; !exists {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "No such layer group %s in workspace %s", name, Workspace)
		return
	}
	group, err := layergroup.DecodeJSON(body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, err.Error())
		return
	}
	if !group.Balanced() {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "Layer group has different number of styles than layers")
		return
	}
	group.Name = name
	s.groups[name] = *group
	w.WriteHeader(http.StatusOK)
}

func (s *Server) delete(w http.ResponseWriter, name string) {
	if _, exists := s.groups[name]; !exists {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "No such layer group %s in workspace %s", name, Workspace)
		return
	}
	delete(s.groups, name)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) get(w http.ResponseWriter, name, format string) {
	group, exists := s.groups[name]
	if !exists {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "No such layer group %s in workspace %s", name, Workspace)
		return
	}

	switch format {
	case "xml":
		w.Header().Set("Content-Type", "application/xml")
		w.Write(s.renderXML(group))
	case "json":
		w.Header().Set("Content-Type", "application/json")
		w.Write(s.renderJSON(group))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *Server) href(kind, name, format string) string {
	return fmt.Sprintf("%s/rest/workspaces/%s/%s/%s.%s", s.URL, Workspace, kind, name, format)
}

func escape(value string) string {
	buf := &bytes.Buffer{}
	xml.EscapeText(buf, []byte(value))
	return buf.String()
}

func (s *Server) renderXML(group layergroup.LayerGroup) []byte {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "<layerGroup>\n  <name>%s</name>\n  <mode>SINGLE</mode>\n", escape(group.Name))
	fmt.Fprintf(buf, "  <workspace>\n    <name>%s</name>\n  </workspace>\n", Workspace)
	buf.WriteString("  <publishables>\n")
	for _, layer := range group.Layers {
		fmt.Fprintf(buf, "    <published type=\"layer\">\n      <name>%s</name>\n", escape(layer))
		fmt.Fprintf(buf, "      <atom:link xmlns:atom=\"http://www.w3.org/2005/Atom\" rel=\"alternate\" href=\"%s\" type=\"application/xml\"/>\n", escape(s.href("layers", layer, "xml")))
		buf.WriteString("    </published>\n")
	}
	buf.WriteString("  </publishables>\n  <styles>\n")
	for _, style := range group.Styles {
		if len(style) == 0 {
			buf.WriteString("    <style/>\n")
			continue
		}
		fmt.Fprintf(buf, "    <style>\n      <name>%s</name>\n    </style>\n", escape(style))
	}
	buf.WriteString("  </styles>\n</layerGroup>\n")
	return buf.Bytes()
}

// GeoServer's JSON has a single list entry rendered as the entry itself,
// and an empty list rendered as an empty string.
func collapse(entries []interface{}) interface{} {
	switch len(entries) {
	case 0:
		return ""
	case 1:
		return entries[0]
	default:
		return entries
	}
}

func (s *Server) renderJSON(group layergroup.LayerGroup) []byte {
	published := make([]interface{}, 0, len(group.Layers))
	for _, layer := range group.Layers {
		published = append(published, map[string]string{
			"@type": "layer",
			"name":  layer,
			"href":  s.href("layers", layer, "json"),
		})
	}

	styles := make([]interface{}, 0, len(group.Styles))
	for _, style := range group.Styles {
		if len(style) == 0 {
			styles = append(styles, "")
			continue
		}
		styles = append(styles, map[string]string{
			"name": style,
			"href": s.href("styles", style, "json"),
		})
	}

	var publishables interface{} = ""
	if len(published) > 0 {
		publishables = map[string]interface{}{"published": collapse(published)}
	}
	var styleList interface{} = ""
	if len(styles) > 0 {
		styleList = map[string]interface{}{"style": collapse(styles)}
	}

	data, _ := json.Marshal(map[string]interface{}{
		"layerGroup": map[string]interface{}{
			"name":         group.Name,
			"mode":         "SINGLE",
			"workspace":    map[string]string{"name": Workspace},
			"publishables": publishables,
			"styles":       styleList,
		},
	})
	return data
}
