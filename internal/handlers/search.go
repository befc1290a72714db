package handlers

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"time"

	"github.com/workfree/search-briefing/internal/briefing"
	"github.com/workfree/search-briefing/internal/notify"
	"github.com/workfree/search-briefing/internal/report"
)

// SearchHandler serves one-shot search and search-and-email requests,
// sharing the briefing pipeline's provider fan-out.
type SearchHandler struct {
	Runner *briefing.Runner
}

type searchInput struct {
	Keyword    string   `json:"keyword"`
	Engines    []string `json:"engines"`
	MaxResults int      `json:"max_results"`
}

func (in *searchInput) normalize() {
	if len(in.Engines) == 0 {
		in.Engines = []string{"google", "naver"}
	}
	if in.MaxResults <= 0 {
		in.MaxResults = 10
	}
}

// Search runs one keyword across the requested engines and returns the
// merged result set. Body: {"keyword": "...", "engines": ["google"], "max_results": 10}.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var input searchInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Keyword == "" {
		JSONError(w, "invalid JSON or missing keyword", http.StatusBadRequest)
		return
	}
	input.normalize()

	results := h.Runner.Gather(r.Context(), []string{input.Keyword}, input.Engines, input.MaxResults)
	if len(results) == 0 {
		JSONError(w, "no results found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"keyword":       input.Keyword,
		"total_results": len(results),
		"results":       results,
		"timestamp":     time.Now().Format(time.RFC3339),
	})
}

type emailInput struct {
	searchInput
	RecipientEmail string `json:"recipient_email"`
}

// SearchAndEmail runs one keyword search and emails the report to the
// requested recipient.
func (h *SearchHandler) SearchAndEmail(w http.ResponseWriter, r *http.Request) {
	var input emailInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Keyword == "" {
		JSONError(w, "invalid JSON or missing keyword", http.StatusBadRequest)
		return
	}
	if _, err := mail.ParseAddress(input.RecipientEmail); err != nil {
		JSONValidationError(w, "validation failed",
			map[string]string{"recipient_email": "invalid email address"}, http.StatusBadRequest)
		return
	}
	input.normalize()

	results := h.Runner.Gather(r.Context(), []string{input.Keyword}, input.Engines, input.MaxResults)
	if len(results) == 0 {
		JSONError(w, "no results found", http.StatusNotFound)
		return
	}

	artifact, err := h.Runner.Builder.Build(results)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	now := time.Now()
	msg := notify.Message{
		Recipient:      input.RecipientEmail,
		Subject:        "[Briefing] \"" + input.Keyword + "\" search results",
		Body:           "Attached are the search results for \"" + input.Keyword + "\".\n",
		AttachmentName: report.Filename(h.Runner.Builder, []string{input.Keyword}, now),
		Attachment:     artifact,
		ContentType:    h.Runner.Builder.ContentType(),
	}
	if err := h.Runner.Notifier.Send(r.Context(), msg); err != nil {
		JSONError(w, "notification failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":       true,
		"keyword":       input.Keyword,
		"recipient":     input.RecipientEmail,
		"results_count": len(results),
		"timestamp":     now.Format(time.RFC3339),
	})
}
