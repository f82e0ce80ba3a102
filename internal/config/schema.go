package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of the configuration file.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	schema := r.Reflect(&Config{})
	schema.Title = "dtcli Configuration"
	schema.Description = "Schema for config.yml in the dtcli config directory."

	// Every setting has a default.
	schema.Required = nil

	return json.MarshalIndent(schema, "", "  ")
}
