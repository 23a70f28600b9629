package utils

import (
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// RepairJSON fixes common hand-editing damage in JSON documents: missing quotes,
// single quotes, trailing commas, comments and unclosed brackets.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("JSON_REPAIR_FAILED: %v", err)
	}
	return repaired, nil
}

// ParseHJSON converts Human JSON (comments, unquoted keys, optional commas)
// into standard JSON.
func ParseHJSON(data []byte) ([]byte, error) {
	var result interface{}
	if err := hjson.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("HJSON_PARSE_ERROR: %v", err)
	}
	out, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("JSON_MARSHAL_ERROR: %v", err)
	}
	return out, nil
}

// SmartDecode decodes data into v trying, in order:
//  1. Standard JSON
//  2. Hjson (comments, unquoted keys)
//  3. JSON repair (truncated or damaged documents)
//
// Every strategy decodes through encoding/json so struct tags stay authoritative.
func SmartDecode(data []byte, v interface{}) error {
	firstErr := json.Unmarshal(data, v)
	if firstErr == nil {
		return nil
	}

	if converted, err := ParseHJSON(data); err == nil {
		if err := json.Unmarshal(converted, v); err == nil {
			return nil
		}
	}

	if repaired, err := RepairJSON(string(data)); err == nil {
		if err := json.Unmarshal([]byte(repaired), v); err == nil {
			return nil
		}
	}

	return fmt.Errorf("SMART_PARSE_FAILED: all parsing strategies failed: %w", firstErr)
}
