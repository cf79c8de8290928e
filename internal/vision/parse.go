package vision

import (
	"encoding/json"
	"strings"
)

// wireResult is the JSON shape every adapter asks the model for.
type wireResult struct {
	VehicleModel string   `json:"vehicleModel"`
	LicensePlate string   `json:"licensePlate"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
}

// ParseResponse interprets a model reply. Missing fields get display
// defaults; a reply that is not a JSON object yields FailedResult.
func ParseResponse(raw string) *AnalysisResult {
	body := extractJSON(raw)
	if body == "" {
		return FailedResult(raw)
	}

	var w wireResult
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return FailedResult(raw)
	}

	result := &AnalysisResult{
		VehicleModel: strings.TrimSpace(w.VehicleModel),
		LicensePlate: strings.TrimSpace(w.LicensePlate),
		Description:  strings.TrimSpace(w.Description),
		Tags:         cleanTags(w.Tags),
		RawResponse:  raw,
	}
	if result.VehicleModel == "" {
		result.VehicleModel = ModelNotIdentified
	}
	if result.LicensePlate == "" {
		result.LicensePlate = PlateNotVisible
	}
	if result.Description == "" {
		result.Description = DefaultDescription
	}
	if len(result.Tags) == 0 {
		result.Tags = []string{DefaultTag}
	}
	return result
}

// extractJSON returns the outermost {...} span of raw, which tolerates
// Markdown code fences and chatter around the object.
func extractJSON(raw string) string {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

// cleanTags trims tags and drops empty and duplicate entries, keeping the
// first occurrence's position.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
