package vm

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Config is the VM's externally loadable configuration, per SPEC_FULL.md
// "Configuration": SWF version, action cap, and debug level, so an
// embedding CLI or test harness can hand the VM a vm.json without
// recompiling.
type Config struct {
	SWFVersion uint8  `json:"swfVersion"`
	ActionCap  int    `json:"actionCap"`
	Debug      bool   `json:"debug"`
	LogLevel   string `json:"logLevel"`
}

// configSchema is the JSON Schema every loaded Config is validated against,
// grounded on the teacher's validation.go: compile via jsonschema.Compiler,
// add the document as an in-memory resource, compile, then Validate a
// generic decoded value (not the typed Config) since jsonschema validates
// against arbitrary JSON, not Go structs.
const configSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"swfVersion": {"type": "integer", "minimum": 1, "maximum": 255},
		"actionCap": {"type": "integer", "minimum": 1},
		"debug": {"type": "boolean"},
		"logLevel": {"type": "string", "enum": ["debug", "info", "warn", "error"]}
	},
	"additionalProperties": false
}`

// LoadConfig reads and validates a vm.json configuration file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vm: read config: %w", err)
	}
	return ParseConfig(raw)
}

// ParseConfig validates raw JSON against configSchema before unmarshaling
// it into a Config, so a malformed or unknown field is rejected with a
// schema-level error rather than silently ignored by encoding/json.
func ParseConfig(raw []byte) (*Config, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	const url = "schema://vm-config.json"
	if err := compiler.AddResource(url, strings.NewReader(configSchema)); err != nil {
		return nil, fmt.Errorf("vm: add config schema resource: %w", err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("vm: compile config schema: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("vm: parse config JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("vm: config validation failed: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("vm: decode config: %w", err)
	}
	if cfg.ActionCap <= 0 {
		cfg.ActionCap = 1000
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return &cfg, nil
}
