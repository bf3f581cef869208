package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"pharma-catalog/internal/models"
)

// Draft is the decoded completion object. Keys are whatever the model sent.
type Draft map[string]any

// Fields keeps the recognised keys whose values are usable and drops the rest.
func (d Draft) Fields() models.ProductPatch {
	return models.ParseProductPatchLenient(d)
}

var fence = regexp.MustCompile("```[A-Za-z0-9_-]*")

// Parse turns a completion into a Draft. Field presence is not checked.
func Parse(raw string) (Draft, error) {
	text := strings.TrimSpace(raw)

	// A closing fence after the object still counts as complete output.
	tail := strings.TrimSpace(strings.TrimSuffix(text, "```"))
	if !strings.HasSuffix(tail, "}") {
		return nil, &Error{
			Kind:    KindTruncated,
			Message: "AI response was cut off before the JSON object closed; shorten the input or retry",
			Excerpt: truncate(text, maxExcerptRune),
		}
	}

	cleaned := strings.TrimSpace(fence.ReplaceAllString(text, ""))
	if start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}"); start >= 0 && end > start {
		cleaned = cleaned[start : end+1]
	}

	var draft Draft
	if err := json.Unmarshal([]byte(cleaned), &draft); err != nil {
		return nil, &Error{
			Kind:    KindMalformed,
			Message: "AI response is not valid JSON",
			Excerpt: truncate(text, maxExcerptRune),
			Err:     err,
		}
	}
	if draft == nil {
		draft = Draft{}
	}
	return draft, nil
}
