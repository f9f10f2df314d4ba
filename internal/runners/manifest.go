package runners

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dhima/filplus-aggregator/internal/aggregation"
	"github.com/dhima/filplus-aggregator/internal/models"
	"github.com/xeipuuv/gojsonschema"
)

const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["runners"],
  "properties": {
    "runners": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "outputs"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "requires": {"type": "string"},
          "depends": {"type": "array", "items": {"type": "string", "minLength": 1}},
          "outputs": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["table", "query"],
              "additionalProperties": false,
              "properties": {
                "table": {"type": "string", "pattern": "^[A-Za-z][A-Za-z0-9_]*$"},
                "from": {"type": "string", "enum": ["source", "derived"]},
                "query": {"type": "string", "minLength": 1}
              }
            }
          }
        }
      }
    }
  }
}`

// Manifest declares query runners in JSON.
type Manifest struct {
	Runners []ManifestRunner `json:"runners"`
}

// ManifestRunner is one runner entry of a manifest.
type ManifestRunner struct {
	Name     string                `json:"name"`
	Requires string                `json:"requires,omitempty"`
	Depends  []models.LogicalTable `json:"depends,omitempty"`
	Outputs  []TableQuery          `json:"outputs"`
}

// ParseManifest validates raw against the manifest schema and builds its
// runners in declaration order.
func ParseManifest(raw []byte) ([]aggregation.Runner, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(manifestSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, NewValidationError("invalid manifest: %v", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, NewValidationError("invalid manifest: %s", strings.Join(msgs, "; "))
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, NewValidationError("invalid manifest: %v", err)
	}

	out := make([]aggregation.Runner, 0, len(m.Runners))
	for _, r := range m.Runners {
		outputs := make([]TableQuery, len(r.Outputs))
		for i, o := range r.Outputs {
			if o.From == "" {
				o.From = OriginSource
			}
			outputs[i] = o
		}
		out = append(out, NewQueryRunner(r.Name, outputs, r.Depends, r.Requires))
	}
	return out, nil
}

// LoadManifest reads and parses the manifest at path.
func LoadManifest(path string) ([]aggregation.Runner, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read runner manifest: %w", err)
	}
	return ParseManifest(raw)
}

// Build returns the runners to register: the manifest at path when set, the
// built-in catalogue otherwise.
func Build(path string) ([]aggregation.Runner, error) {
	if path == "" {
		return Catalogue(), nil
	}
	return LoadManifest(path)
}
