package models

// MaxDescriptionLen bounds result descriptions so reports stay compact.
const MaxDescriptionLen = 200

// SearchResult is one hit from one provider for one keyword. Produced per
// briefing invocation, never persisted.
type SearchResult struct {
	Rank        int    `json:"rank"` // 1-based within the provider's result set
	Provider    string `json:"provider"`
	Keyword     string `json:"keyword"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Truncate caps the description at MaxDescriptionLen runes.
func (r *SearchResult) Truncate() {
	runes := []rune(r.Description)
	if len(runes) > MaxDescriptionLen {
		r.Description = string(runes[:MaxDescriptionLen])
	}
}
