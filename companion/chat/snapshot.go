package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// snapshotSchema describes the persisted and exported conversation document.
const snapshotSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["role", "content"],
    "properties": {
      "role": {"type": "string", "enum": ["user", "assistant", "ai"]},
      "content": {"type": "string"}
    }
  }
}`

var snapshotSchemaLoader = gojsonschema.NewStringLoader(snapshotSchema)

// ValidateSnapshot checks data against the snapshot schema.
func ValidateSnapshot(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("snapshot is not valid JSON")
	}

	result, err := gojsonschema.Validate(snapshotSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		var errors []string
		for _, err := range result.Errors() {
			errors = append(errors, err.String())
		}
		return fmt.Errorf("schema validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// DecodeSnapshot validates and decodes a snapshot. Legacy "ai" roles come
// back as assistant turns.
func DecodeSnapshot(data []byte) ([]Turn, error) {
	if err := ValidateSnapshot(data); err != nil {
		return nil, err
	}

	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	for i := range turns {
		turns[i].Role = normalizeRole(turns[i].Role)
	}
	return turns, nil
}

// EncodeSnapshot renders turns as a two-space indented JSON array.
// A nil or empty log encodes as [].
func EncodeSnapshot(turns []Turn) ([]byte, error) {
	if turns == nil {
		turns = []Turn{}
	}
	data, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// ExportFileName names an export file after the day it was taken.
func ExportFileName(t time.Time) string {
	return "conversation-" + t.Format("2006-01-02") + ".json"
}
