package assist

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"02.01.2006",
	"02.01.06",
	"02-01-2006",
	"02/01/2006",
}

// parseHint parses a model reply. A date that cannot be read is dropped rather than guessed.
func parseHint(text string) (*Hint, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var raw struct {
		Date  *string  `json:"date"`
		Total *float64 `json:"total"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	hint := &Hint{}
	if raw.Total != nil {
		hint.Total = *raw.Total
	}
	if raw.Date != nil {
		hint.Date = normalizeDate(*raw.Date)
	}
	return hint, nil
}

func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	for _, format := range dateFormats {
		if d, err := time.Parse(format, s); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return ""
}
