package briefing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/workfree/search-briefing/internal/models"
	"github.com/workfree/search-briefing/internal/notify"
	"github.com/workfree/search-briefing/internal/search"
)

type fakeProvider struct {
	name string
	hits int
	err  error
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Search(_ context.Context, keyword string, limit int) ([]models.SearchResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	n := p.hits
	if limit < n {
		n = limit
	}
	out := make([]models.SearchResult, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, models.SearchResult{
			Rank: i, Provider: p.name, Keyword: keyword,
			Title: p.name + " result", URL: "https://example.com",
		})
	}
	return out, nil
}

type fakeBuilder struct {
	err error
}

func (b fakeBuilder) Build(results []models.SearchResult) ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return []byte("report"), nil
}
func (fakeBuilder) Extension() string   { return "csv" }
func (fakeBuilder) ContentType() string { return "text/csv" }

type fakeNotifier struct {
	sent []notify.Message
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, msg notify.Message) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *fakeNotifier) Configured() bool { return true }

func newTestRunner(notifier *fakeNotifier, providers ...search.Provider) *Runner {
	return &Runner{
		Registry:     search.NewRegistry(providers...),
		Builder:      fakeBuilder{},
		Notifier:     notifier,
		QueryTimeout: time.Second,
		Log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func testSchedule(providers ...string) models.Schedule {
	return models.Schedule{
		UserID:     "alice",
		Recipient:  "alice@example.com",
		Keywords:   []string{"golang", "cloud"},
		Hour:       9,
		Weekdays:   []int{0},
		MaxResults: 3,
		Providers:  providers,
	}
}

func TestRunner_Job_SendsReport(t *testing.T) {
	notifier := &fakeNotifier{}
	r := newTestRunner(notifier,
		&fakeProvider{name: "google", hits: 2},
		&fakeProvider{name: "naver", hits: 1})

	cb := r.Job(testSchedule("google", "naver"))
	if err := cb(context.Background()); err != nil {
		t.Fatalf("callback: %v", err)
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(notifier.sent))
	}
	msg := notifier.sent[0]
	if msg.Recipient != "alice@example.com" {
		t.Errorf("recipient = %q", msg.Recipient)
	}
	if !strings.Contains(msg.Subject, "golang, cloud") {
		t.Errorf("subject = %q", msg.Subject)
	}
	// 2 keywords x (2 google + 1 naver) = 6 results.
	if !strings.Contains(msg.Subject, "(6)") {
		t.Errorf("subject missing result count: %q", msg.Subject)
	}
	if !strings.HasPrefix(msg.AttachmentName, "search_results_golang,cloud_") ||
		!strings.HasSuffix(msg.AttachmentName, ".csv") {
		t.Errorf("attachment name = %q", msg.AttachmentName)
	}
	if string(msg.Attachment) != "report" {
		t.Errorf("attachment = %q", msg.Attachment)
	}
}

func TestRunner_Job_SkipsSendOnEmptyResults(t *testing.T) {
	notifier := &fakeNotifier{}
	r := newTestRunner(notifier, &fakeProvider{name: "google", hits: 0})

	cb := r.Job(testSchedule("google"))
	if err := cb(context.Background()); err != nil {
		t.Fatalf("callback: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("empty result set must not send, got %d sends", len(notifier.sent))
	}
}

func TestRunner_Job_SendFailure(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("smtp down")}
	r := newTestRunner(notifier, &fakeProvider{name: "google", hits: 1})

	cb := r.Job(testSchedule("google"))
	if err := cb(context.Background()); err == nil {
		t.Fatal("expected error when notifier fails")
	}
}

func TestRunner_Gather_PartialProviderFailure(t *testing.T) {
	notifier := &fakeNotifier{}
	r := newTestRunner(notifier,
		&fakeProvider{name: "google", err: errors.New("blocked")},
		&fakeProvider{name: "naver", hits: 2})

	results := r.Gather(context.Background(), []string{"golang"}, []string{"google", "naver"}, 5)
	if len(results) != 2 {
		t.Fatalf("expected 2 results from the surviving provider, got %d", len(results))
	}
	for _, res := range results {
		if res.Provider != "naver" {
			t.Errorf("unexpected provider %q", res.Provider)
		}
	}
}

func TestRunner_Gather_Ordering(t *testing.T) {
	notifier := &fakeNotifier{}
	r := newTestRunner(notifier,
		&fakeProvider{name: "google", hits: 1},
		&fakeProvider{name: "naver", hits: 1})

	results := r.Gather(context.Background(),
		[]string{"alpha", "beta"}, []string{"google", "naver"}, 5)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	// Keyword-major, then requested provider order.
	want := []struct{ keyword, provider string }{
		{"alpha", "google"}, {"alpha", "naver"},
		{"beta", "google"}, {"beta", "naver"},
	}
	for i, w := range want {
		if results[i].Keyword != w.keyword || results[i].Provider != w.provider {
			t.Errorf("result[%d] = (%s, %s), want (%s, %s)",
				i, results[i].Keyword, results[i].Provider, w.keyword, w.provider)
		}
	}
}

func TestRunner_Gather_UnknownProviderIgnored(t *testing.T) {
	notifier := &fakeNotifier{}
	r := newTestRunner(notifier, &fakeProvider{name: "google", hits: 1})

	results := r.Gather(context.Background(), []string{"golang"}, []string{"google", "altavista"}, 5)
	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
}
