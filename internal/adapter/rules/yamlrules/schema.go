package yamlrules

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed rules.schema.json
var schemaJSON []byte

const schemaURL = "https://pickit.local/schemas/rules.schema.json"

type schemas struct {
	document *jsonschema.Schema
	rule     *jsonschema.Schema
}

func compileSchemas() (schemas, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return schemas{}, fmt.Errorf("add rule schema: %w", err)
	}
	doc, err := c.Compile(schemaURL)
	if err != nil {
		return schemas{}, fmt.Errorf("compile rule schema: %w", err)
	}
	rule, err := c.Compile(schemaURL + "#/$defs/rule")
	if err != nil {
		return schemas{}, fmt.Errorf("compile rule schema: %w", err)
	}
	return schemas{document: doc, rule: rule}, nil
}

// validateYAML checks a YAML document against s. YAML is decoded generically
// and pushed through JSON so numbers and maps take the shapes the validator
// expects.
func validateYAML(s *jsonschema.Schema, raw []byte) error {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return err
	}
	if generic == nil {
		generic = map[string]any{}
	}
	b, err := json.Marshal(generic)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return s.Validate(v)
}
