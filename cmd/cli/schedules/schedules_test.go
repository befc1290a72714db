package schedules

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

// captureOutput helps capture stdout during command execution.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String()
}

func TestRegisterSchedule_PayloadKeys(t *testing.T) {
	var got map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/schedule" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("X-API-Token") != "cli-token" {
			t.Errorf("token header = %q", r.Header.Get("X-API-Token"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"job_id": "briefing_alice"})
	}))
	defer srv.Close()

	_ = os.Setenv("BRIEFING_API_URL", srv.URL)
	defer os.Unsetenv("BRIEFING_API_URL")
	_ = os.Setenv("BRIEFING_API_TOKEN", "cli-token")
	defer os.Unsetenv("BRIEFING_API_TOKEN")

	cmd := registerScheduleCmd()
	_ = cmd.Flags().Set("user", "alice")
	_ = cmd.Flags().Set("email", "alice@example.com")
	_ = cmd.Flags().Set("keyword", "golang")
	_ = cmd.Flags().Set("time", "09:00")
	_ = cmd.Flags().Set("weekday", "0")
	_ = cmd.Flags().Set("weekday", "2")
	_ = cmd.Flags().Set("max-results", "5")
	_ = cmd.Flags().Set("provider", "demo")

	out := captureOutput(t, func() {
		cmd.Run(cmd, []string{})
	})

	// The body must use the API's field names, "providers" in particular.
	if _, ok := got["providers"]; !ok {
		t.Fatalf("request body missing providers: %v", got)
	}
	if _, ok := got["engines"]; ok {
		t.Errorf("request body must not use engines for schedules: %v", got)
	}
	providers, _ := got["providers"].([]any)
	if len(providers) != 1 || providers[0] != "demo" {
		t.Errorf("providers = %v", got["providers"])
	}
	if got["user_id"] != "alice" || got["email"] != "alice@example.com" || got["time"] != "09:00" {
		t.Errorf("unexpected body: %v", got)
	}
	keywords, _ := got["keywords"].([]any)
	if len(keywords) != 1 || keywords[0] != "golang" {
		t.Errorf("keywords = %v", got["keywords"])
	}
	if !strings.Contains(out, "briefing_alice") {
		t.Errorf("expected job id in output, got: %s", out)
	}
}

func TestRemoveSchedule_PathAndMethod(t *testing.T) {
	var gotMethod, gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]any{"user_id": "alice", "removed": true})
	}))
	defer srv.Close()

	_ = os.Setenv("BRIEFING_API_URL", srv.URL)
	defer os.Unsetenv("BRIEFING_API_URL")

	cmd := removeScheduleCmd()
	out := captureOutput(t, func() {
		cmd.Run(cmd, []string{"alice"})
	})

	if gotMethod != "DELETE" || gotPath != "/schedule/alice" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
	if !strings.Contains(out, "removed") {
		t.Errorf("unexpected output: %s", out)
	}
}
