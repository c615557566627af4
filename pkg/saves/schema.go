package saves

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const worldSchemaURL = "https://orderstone.local/schemas/world-save-v3.json"

const worldSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["schema_version", "id", "name", "seed", "created", "last_played", "blocks", "players", "entities", "chests", "world_settings"],
  "properties": {
    "schema_version": {"const": 3},
    "id": {"type": "string", "pattern": "^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$"},
    "name": {"type": "string", "maxLength": 64},
    "seed": {"type": "integer"},
    "created": {"type": "string"},
    "last_played": {"type": "string"},
    "blocks": {
      "type": "object",
      "propertyNames": {"pattern": "^-?[0-9]+,-?[0-9]+$"},
      "additionalProperties": {"type": "string", "minLength": 1}
    },
    "chunks": {"type": "array", "items": {"type": "integer"}},
    "players": {
      "type": "object",
      "additionalProperties": {"$ref": "#/definitions/player"}
    },
    "host": {"$ref": "#/definitions/player"},
    "entities": {"type": "array", "items": {"type": "object"}},
    "chests": {
      "type": "object",
      "required": ["inventories", "player_placed"],
      "properties": {
        "inventories": {
          "type": "object",
          "propertyNames": {"pattern": "^-?[0-9]+,-?[0-9]+$"},
          "additionalProperties": {"$ref": "#/definitions/slots"}
        },
        "player_placed": {
          "type": "array",
          "items": {"type": "string", "pattern": "^-?[0-9]+,-?[0-9]+$"}
        },
        "loot_tables": {"type": "object", "additionalProperties": {"type": "string"}}
      }
    },
    "world_settings": {
      "type": "object",
      "required": ["time", "day", "weather"],
      "properties": {
        "time": {"type": "number"},
        "day": {"type": "boolean"},
        "day_count": {"type": "integer", "minimum": 0},
        "weather": {"enum": ["clear", "rain"]}
      }
    }
  },
  "definitions": {
    "stack": {
      "oneOf": [
        {"type": "null"},
        {
          "type": "object",
          "required": ["type", "count"],
          "properties": {
            "type": {"type": "string", "minLength": 1},
            "count": {"type": "integer", "minimum": 1}
          }
        }
      ]
    },
    "slots": {"type": "array", "items": {"$ref": "#/definitions/stack"}},
    "player": {
      "type": "object",
      "required": ["username", "x", "y", "health", "max_health", "inventory"],
      "properties": {
        "username": {"type": "string"},
        "x": {"type": "number"},
        "y": {"type": "number"},
        "health": {"type": "integer"},
        "max_health": {"type": "integer", "minimum": 1},
        "hunger": {"type": "integer"},
        "max_hunger": {"type": "integer", "minimum": 1},
        "inventory": {"$ref": "#/definitions/slots"},
        "backpack": {"$ref": "#/definitions/slots"},
        "selected": {"type": "integer", "minimum": 0},
        "permission": {"enum": ["guest", "player", "moderator", "admin", "owner"]},
        "coins": {"type": "integer", "minimum": 0},
        "characters": {
          "type": "object",
          "properties": {
            "selected": {"type": "string"},
            "unlocked": {"type": "array", "items": {"type": "string"}}
          }
        }
      }
    }
  }
}`

var worldValidator = jsonschema.MustCompileString(worldSchemaURL, worldSchema)

// Validate checks a migrated document against the current schema.
func Validate(doc interface{}) error {
	if err := worldValidator.Validate(doc); err != nil {
		return fmt.Errorf("saves: invalid world save: %w", err)
	}
	return nil
}
