// Package schema validates externally sourced JSON documents before the
// engine touches them. A state document fetched from the gist store or a
// traffic payload fetched from the API that fails validation aborts the
// run; reconciling against garbage would corrupt permanent totals.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidDocument is returned when a JSON document fails schema
// validation. The wrapped message lists every violation.
var ErrInvalidDocument = errors.New("document failed schema validation")

// stateSchema describes the persisted accumulation document. Unknown
// fields are allowed so newer writers don't break older readers; known
// fields must have the right shape.
const stateSchema = `{
	"type": "object",
	"required": ["schemaVersion", "totals", "dailyHistory"],
	"properties": {
		"schemaVersion": {"type": "integer", "minimum": 1},
		"trackingStartDate": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
		"subjectCreatedDate": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
		"totals": {
			"type": "object",
			"additionalProperties": {"type": "integer", "minimum": 0}
		},
		"lastSeenCounts": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"additionalProperties": {"type": "integer", "minimum": 0}
			}
		},
		"dailyHistory": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["date"],
				"properties": {
					"date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
					"counts": {
						"type": "object",
						"additionalProperties": {"type": "integer", "minimum": 0}
					},
					"uniques": {
						"type": "object",
						"additionalProperties": {"type": "integer", "minimum": 0}
					}
				}
			}
		}
	}
}`

// trafficSchema describes the GitHub traffic API response for the
// clones and views endpoints.
const trafficSchema = `{
	"type": "object",
	"properties": {
		"count": {"type": "integer", "minimum": 0},
		"uniques": {"type": "integer", "minimum": 0},
		"clones": {"$ref": "#/definitions/days"},
		"views": {"$ref": "#/definitions/days"}
	},
	"definitions": {
		"days": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["timestamp", "count", "uniques"],
				"properties": {
					"timestamp": {"type": "string"},
					"count": {"type": "integer", "minimum": 0},
					"uniques": {"type": "integer", "minimum": 0}
				}
			}
		}
	}
}`

var (
	stateValidator   = gojsonschema.NewStringLoader(stateSchema)
	trafficValidator = gojsonschema.NewStringLoader(trafficSchema)
)

// ValidateState checks a raw state document against the state schema.
func ValidateState(raw []byte) error {
	return validate(stateValidator, raw, "state")
}

// ValidateTraffic checks a raw traffic API payload against the traffic
// schema.
func ValidateTraffic(raw []byte) error {
	return validate(trafficValidator, raw, "traffic")
}

func validate(schemaLoader gojsonschema.JSONLoader, raw []byte, kind string) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validate %s document: %w", kind, err)
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}

	return fmt.Errorf("%s document: %w: %s", kind, ErrInvalidDocument, strings.Join(violations, "; "))
}
