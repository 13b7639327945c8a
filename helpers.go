package oekoboiler

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// unmarshalResponse unmarshals JSON data with consistent error formatting.
func unmarshalResponse[T any](data []byte, resourceName string) (*T, error) {
	var resp T
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w (body: %s)", resourceName, err, truncatePreview(data))
	}
	return &resp, nil
}

// truncatePreview returns a truncated string for error messages.
func truncatePreview(data []byte) string {
	s := string(data)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}

// errorMessage extracts a human readable message from an Ayla error body.
// The services answer either {"error": "..."} or {"errors": {"field": ["..."]}}.
func errorMessage(body []byte) string {
	var errResp struct {
		Error  string              `json:"error"`
		Errors map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Error != "" {
			return errResp.Error
		}
		if len(errResp.Errors) > 0 {
			parts := make([]string, 0, len(errResp.Errors))
			for field, msgs := range errResp.Errors {
				parts = append(parts, field+": "+strings.Join(msgs, ", "))
			}
			slices.Sort(parts)
			return strings.Join(parts, "; ")
		}
	}
	if len(body) == 0 {
		return "empty response"
	}
	return truncatePreview(body)
}
