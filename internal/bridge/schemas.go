package bridge

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var (
	observationSchema = mustCompile("schemas/observation.schema.json")
	stateSchema       = mustCompile("schemas/state.schema.json")
	ackSchema         = mustCompile("schemas/ack.schema.json")
)

func mustCompile(name string) *jsonschema.Schema {
	data, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("bridge: missing schema %s: %v", name, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, bytes.NewReader(data)); err != nil {
		panic(fmt.Sprintf("bridge: bad schema %s: %v", name, err))
	}
	return c.MustCompile(name)
}

// validateFrame checks raw JSON against a compiled schema before the
// typed unmarshal, so malformed emulator frames fail with a useful
// message instead of zero values.
func validateFrame(s *jsonschema.Schema, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("frame failed validation: %w", err)
	}
	return nil
}
