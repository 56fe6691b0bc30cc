package machines

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// devicesSchema gates raw device payloads before they can reach the
// projector. Optional fields default to zero values downstream; the
// schema only pins the shapes that would otherwise corrupt the view.
const devicesSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "name", "type"],
    "properties": {
      "id": {"type": "integer", "minimum": 0},
      "name": {"type": "string", "minLength": 1},
      "type": {"enum": ["physical", "virtual", "lvm-vg", "cache-set"]},
      "parent_type": {"type": "string"},
      "size": {"type": "integer", "minimum": 0},
      "available_size": {"type": "integer", "minimum": 0},
      "used_size": {"type": "integer", "minimum": 0},
      "is_boot": {"type": "boolean"},
      "tags": {"type": "array", "items": {"type": "string"}},
      "filesystem": {"$ref": "#/definitions/filesystem"},
      "partitions": {
        "type": "array",
        "items": {
          "type": "object",
          "required": ["id", "name"],
          "properties": {
            "id": {"type": "integer", "minimum": 0},
            "name": {"type": "string", "minLength": 1},
            "size": {"type": "integer", "minimum": 0},
            "filesystem": {"$ref": "#/definitions/filesystem"}
          }
        }
      }
    }
  },
  "definitions": {
    "filesystem": {
      "type": ["object", "null"],
      "properties": {
        "id": {"type": "integer"},
        "fstype": {"type": ["string", "null"]},
        "mount_point": {"type": ["string", "null"]},
        "mount_options": {"type": ["string", "null"]}
      }
    }
  }
}`

// ValidateDevicesPayload checks a raw JSON device list against the
// schema and returns all violations in one error.
func ValidateDevicesPayload(raw []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(devicesSchema)
	documentLoader := gojsonschema.NewBytesLoader(raw)
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("devices payload: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("devices payload: %s", strings.Join(msgs, "; "))
}
