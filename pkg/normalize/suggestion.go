package normalize

import "fmt"

// Suggestion is the canonical representation of one autocomplete entry.
type Suggestion struct {
	Title   string `json:"title"`
	Type    string `json:"type"`
	Raw     any    `json:"raw"`
	Warning string `json:"warning,omitempty"`
}

// NormalizeSuggestion turns one raw autocomplete entry into a Suggestion.
// Never panics; failures degrade with Warning set.
func NormalizeSuggestion(raw any) (s Suggestion) {
	defer func() {
		if r := recover(); r != nil {
			s = Suggestion{Type: TypeUnknown, Raw: raw, Warning: fmt.Sprintf("suggestion normalization failed: %v", r)}
		}
	}()

	if str, ok := raw.(string); ok {
		return Suggestion{Title: str, Type: TypeSuggestion, Raw: raw}
	}
	obj, _ := raw.(map[string]any)
	typ := firstString(obj, "type", "category", "suggestionType")
	if typ == "" {
		if firstString(obj, "videoId") != "" {
			typ = TypeSong
		} else {
			typ = TypeSuggestion
		}
	}
	return Suggestion{
		Title: firstString(obj, "title", "query", "name", "suggestion", "term", "text"),
		Type:  typ,
		Raw:   raw,
	}
}

// ExtractSuggestions finds and normalizes the autocomplete entries in a
// raw response: a top-level array directly, a "suggestions" field next,
// and finally every array-valued field.
func ExtractSuggestions(raw any) []Suggestion {
	if arr, ok := raw.([]any); ok {
		return suggestionsFrom(arr)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return []Suggestion{}
	}
	if arr, ok := obj["suggestions"].([]any); ok {
		return suggestionsFrom(arr)
	}
	out := []Suggestion{}
	for _, k := range sortedKeys(obj) {
		if arr, ok := obj[k].([]any); ok {
			out = append(out, suggestionsFrom(arr)...)
		}
	}
	return out
}

func suggestionsFrom(arr []any) []Suggestion {
	out := make([]Suggestion, 0, len(arr))
	for _, e := range arr {
		out = append(out, NormalizeSuggestion(e))
	}
	return out
}
