package briefing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/workfree/search-briefing/internal/metrics"
	"github.com/workfree/search-briefing/internal/models"
	"github.com/workfree/search-briefing/internal/notify"
	"github.com/workfree/search-briefing/internal/report"
	"github.com/workfree/search-briefing/internal/search"
	"github.com/workfree/search-briefing/internal/trigger"
)

// maxConcurrentQueries bounds the provider fan-out within one firing.
const maxConcurrentQueries = 4

// Runner executes briefings: search fan-out, report build, notification.
type Runner struct {
	Registry *search.Registry
	Builder  report.Builder
	Notifier notify.Notifier
	// QueryTimeout bounds each individual provider call.
	QueryTimeout time.Duration
	Log          *slog.Logger
}

// Job returns the engine callback for a schedule. The schedule is captured
// by value: the firing always sees the parameters as registered, never a
// later mutation.
func (r *Runner) Job(s models.Schedule) trigger.Callback {
	return func(ctx context.Context) error {
		return r.run(ctx, s)
	}
}

func (r *Runner) run(ctx context.Context, s models.Schedule) error {
	fireID := uuid.NewString()
	log := r.Log.With("job_id", s.JobID(), "user_id", s.UserID, "fire_id", fireID)
	log.Info("briefing started", "keywords", strings.Join(s.Keywords, ","))

	results := r.Gather(ctx, s.Keywords, s.Providers, s.MaxResults)
	if len(results) == 0 {
		log.Warn("no results for any keyword; skipping send")
		metrics.IncBriefing("skipped_empty")
		return nil
	}

	artifact, err := r.Builder.Build(results)
	if err != nil {
		metrics.IncBriefing("send_failed")
		return fmt.Errorf("build report: %w", err)
	}

	now := time.Now()
	keywordStr := strings.Join(s.Keywords, ", ")
	msg := notify.Message{
		Recipient:      s.Recipient,
		Subject:        fmt.Sprintf("[Briefing] %q search results (%d)", keywordStr, len(results)),
		Body:           emailBody(keywordStr, len(results), now),
		AttachmentName: report.Filename(r.Builder, s.Keywords, now),
		Attachment:     artifact,
		ContentType:    r.Builder.ContentType(),
	}
	if err := r.Notifier.Send(ctx, msg); err != nil {
		// No retry within this firing; the next occurrence is the retry point.
		log.Error("notification failed", "recipient", s.Recipient, "err", err)
		metrics.IncBriefing("send_failed")
		return fmt.Errorf("send briefing: %w", err)
	}

	log.Info("briefing sent", "recipient", s.Recipient, "results", len(results))
	metrics.IncBriefing("sent")
	return nil
}

// Gather queries every (keyword, provider) pair and merges the result sets
// in keyword-then-provider declaration order, preserving each provider's own
// rank. A failing provider contributes an empty slice; other pairs proceed.
func (r *Runner) Gather(ctx context.Context, keywords, providerNames []string, limit int) []models.SearchResult {
	providers := r.Registry.Select(providerNames)

	type slot struct {
		results []models.SearchResult
	}
	slots := make([]slot, len(keywords)*len(providers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentQueries)
	for ki, keyword := range keywords {
		for pi, p := range providers {
			keyword, p := keyword, p
			idx := ki*len(providers) + pi
			g.Go(func() error {
				qctx := gctx
				if r.QueryTimeout > 0 {
					var cancel context.CancelFunc
					qctx, cancel = context.WithTimeout(gctx, r.QueryTimeout)
					defer cancel()
				}
				res, err := p.Search(qctx, keyword, limit)
				if err != nil {
					r.Log.Warn("provider query failed",
						"provider", p.Name(), "keyword", keyword, "err", err)
					metrics.IncProviderError(p.Name())
					return nil
				}
				slots[idx].results = res
				return nil
			})
		}
	}
	// Workers only return nil; Wait is for completion, not error collection.
	_ = g.Wait()

	var merged []models.SearchResult
	for _, sl := range slots {
		merged = append(merged, sl.results...)
	}
	return merged
}

func emailBody(keywords string, count int, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Automated search briefing for %q.\n\n", keywords)
	fmt.Fprintf(&b, "Results: %d\n", count)
	fmt.Fprintf(&b, "Searched at: %s\n\n", now.Format("2006-01-02 15:04:05"))
	b.WriteString("The full result set is attached.\n")
	return b.String()
}
