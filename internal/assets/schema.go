package assets

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const familySchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["uri"],
  "additionalProperties": false,
  "properties": {
    "uri": {"type": "string", "pattern": "^[a-z0-9_]+:[a-z0-9_]+$"},
    "parent": {"type": "string", "pattern": "^[a-z0-9_]+:[a-z0-9_]+$"},
    "kind": {"enum": ["symmetric", "horizontal", "all_sides"]},
    "freeform": {"type": "boolean"},
    "template": {"type": "boolean"},
    "shape": {"type": "string"},
    "shapes": {"type": "array", "items": {"type": "string"}},
    "categories": {"type": "array", "items": {"type": "string"}},
    "base": {"$ref": "#/definitions/section"},
    "sections": {
      "type": "object",
      "propertyNames": {"enum": ["front", "left", "back", "right", "top", "bottom"]},
      "additionalProperties": {"$ref": "#/definitions/section"}
    }
  },
  "definitions": {
    "section": {
      "type": "object",
      "properties": {
        "hardness": {"type": "integer", "minimum": 0},
        "luminance": {"type": "integer", "minimum": 0, "maximum": 15},
        "mass": {"type": "number", "minimum": 0},
        "tint": {"type": "array", "items": {"type": "number"}, "minItems": 3, "maxItems": 3},
        "components": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "attach_support_required": {"type": "boolean"},
            "side_support": {
              "type": "object",
              "additionalProperties": false,
              "properties": {
                "bottom": {"type": "boolean"},
                "top": {"type": "boolean"},
                "sides": {"type": "boolean"},
                "drop_delay_ms": {"type": "integer", "minimum": 0}
              }
            }
          }
        }
      }
    }
  }
}`

const shapeSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["uri"],
  "additionalProperties": false,
  "properties": {
    "uri": {"type": "string", "pattern": "^[a-z0-9_]+:[a-z0-9_]+$"},
    "full_sides": {"$ref": "#/definitions/sides"},
    "mesh_sides": {"$ref": "#/definitions/sides"}
  },
  "definitions": {
    "sides": {
      "type": "array",
      "uniqueItems": true,
      "items": {"enum": ["top", "bottom", "left", "right", "front", "back"]}
    }
  }
}`

var (
	familySchema = jsonschema.MustCompileString("family.schema.json", familySchemaJSON)
	shapeSchema  = jsonschema.MustCompileString("shape.schema.json", shapeSchemaJSON)
)

// validateDocument проверяет YAML-документ, уже разобранный в any, по схеме.
// Значение проходит через JSON, чтобы числа и карты имели типы, ожидаемые валидатором.
func validateDocument(schema *jsonschema.Schema, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("документ не представим в JSON: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	return schema.Validate(v)
}
