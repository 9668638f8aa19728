package groupclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aymerick/raymond"
	"github.com/ghodss/yaml"
	log "github.com/sirupsen/logrus"
	yamlv2 "gopkg.in/yaml.v2"
)

// TemplateVariables are the values available to handlebars expressions in manifest files.
type TemplateVariables map[string]any

// LoadTemplateVariables reads variables from a YAML file, if given, and applies
// KEY=VALUE overrides on top. A bare KEY is set to true.
func LoadTemplateVariables(path string, overrides []string) (TemplateVariables, error) {
	vars := TemplateVariables{}

	if len(path) > 0 {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: open file: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &vars); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	for _, override := range overrides {
		key, value, found := strings.Cut(override, "=")
		if len(key) == 0 {
			continue
		}
		var v any = true
		if found {
			v = value
		}
		if previous, ok := vars[key]; ok {
			log.Warnf("Overwriting template variable '%s'; previous value was '%v'", key, previous)
		}
		log.Infof("Setting template variable '%s' to '%v'", key, v)
		vars[key] = v
	}

	return vars, nil
}

// ReadManifestDocuments renders the manifest file at path and returns every
// YAML document in it, converted to JSON.
func ReadManifestDocuments(path string, vars TemplateVariables) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: open file: %w", path, err)
	}

	rendered, err := render(data, vars)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", path, oneLine(err))
	}

	documents, err := splitDocuments(rendered)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", path, oneLine(err))
	}

	return documents, nil
}

// Files without variables are used as-is, so that literal braces survive.
func render(data []byte, vars TemplateVariables) ([]byte, error) {
	if len(vars) == 0 {
		return data, nil
	}

	template, err := raymond.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	output, err := template.Exec(vars)
	if err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}

	return []byte(output), nil
}

func splitDocuments(data []byte) ([]json.RawMessage, error) {
	documents := make([]json.RawMessage, 0)
	decoder := yamlv2.NewDecoder(bytes.NewReader(data))

	for {
		var content interface{}
		err := decoder.Decode(&content)
		if errors.Is(err, io.EOF) {
			return documents, nil
		} else if err != nil {
			return nil, err
		}

		// yaml.v2 yields map[interface{}]interface{}, which encoding/json refuses;
		// round-trip through ghodss/yaml to get JSON object keys.
		raw, err := yamlv2.Marshal(content)
		if err != nil {
			return nil, err
		}
		document, err := yaml.YAMLToJSON(raw)
		if err != nil {
			return nil, err
		}

		documents = append(documents, document)
	}
}

func oneLine(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", ": ")
}
