package screening

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"github.com/stampedhq/onboard/pkg/models"
)

// arrayPattern grabs everything from the first '[' to the last ']'.
var arrayPattern = regexp.MustCompile(`\[[\s\S]*\]`)

// ExtractFindings pulls a JSON array of findings out of raw model output.
// Surrounding prose is ignored. Malformed JSON is run through jsonrepair
// before giving up. Empty output means no findings.
func ExtractFindings(raw string, today time.Time) ([]models.Finding, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return []models.Finding{}, nil
	}
	if m := arrayPattern.FindString(candidate); m != "" {
		candidate = m
	}

	items, err := decodeArray(candidate)
	if err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(candidate)
		if repairErr != nil {
			return nil, fmt.Errorf("decoding findings: %w", err)
		}
		items, err = decodeArray(repaired)
		if err != nil {
			return nil, fmt.Errorf("decoding repaired findings: %w", err)
		}
	}

	findings := make([]models.Finding, 0, len(items))
	for _, item := range items {
		var fields map[string]any
		// Non-object entries become all-default findings.
		_ = json.Unmarshal(item, &fields)
		findings = append(findings, NormalizeFinding(fields, today))
	}
	return findings, nil
}

func decodeArray(s string) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// NormalizeFinding fills every missing or empty field of a decoded finding
// with its default: "No title", an empty description, today's date,
// "Unknown" source, Medium severity and Other category.
func NormalizeFinding(fields map[string]any, today time.Time) models.Finding {
	return models.Finding{
		Title:       field(fields, "title", "No title"),
		Description: field(fields, "description", ""),
		Date:        field(fields, "date", today.Format(dateLayout)),
		Source:      field(fields, "source", "Unknown"),
		Severity:    canonicalSeverity(field(fields, "severity", string(models.SeverityMedium))),
		Category:    canonicalCategory(field(fields, "category", string(models.CategoryOther))),
	}
}

func field(fields map[string]any, key, def string) string {
	v, ok := fields[key]
	if !ok || v == nil {
		return def
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case bool:
		if !t {
			return def
		}
		s = "true"
	case float64:
		if t == 0 {
			return def
		}
		s = fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return def
		}
		s = string(b)
	}
	if s == "" {
		return def
	}
	return s
}

// canonicalSeverity fixes the casing of known severities. Anything outside
// the closed set becomes Medium.
func canonicalSeverity(s string) models.FindingSeverity {
	s = strings.TrimSpace(s)
	for _, known := range models.FindingSeverities {
		if strings.EqualFold(s, string(known)) {
			return known
		}
	}
	return models.SeverityMedium
}

// canonicalCategory is canonicalSeverity for categories; the fallback is Other.
func canonicalCategory(s string) models.FindingCategory {
	s = strings.TrimSpace(s)
	for _, known := range models.FindingCategories {
		if strings.EqualFold(s, string(known)) {
			return known
		}
	}
	return models.CategoryOther
}
