package manager

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/workfree/search-briefing/internal/metrics"
	"github.com/workfree/search-briefing/internal/models"
	"github.com/workfree/search-briefing/internal/repo"
	"github.com/workfree/search-briefing/internal/trigger"
)

// ValidationError carries per-field messages for a rejected registration.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

// JobFactory builds the callback fired for a schedule. The schedule is a
// frozen copy; later edits produce a new callback via re-registration.
type JobFactory func(s models.Schedule) trigger.Callback

// Manager is the public API over the (store, engine) pair. All mutating
// operations serialize on one mutex so a concurrent register and remove for
// the same user id cannot leave the store and the engine disagreeing.
type Manager struct {
	mu sync.Mutex

	repo     *repo.ScheduleRepo
	engine   *trigger.Engine
	newJob   JobFactory
	provider map[string]bool
	log      *slog.Logger
}

// New creates a Manager. knownProviders is the set of registerable provider
// identifiers.
func New(r *repo.ScheduleRepo, e *trigger.Engine, newJob JobFactory, knownProviders []string, log *slog.Logger) *Manager {
	set := make(map[string]bool, len(knownProviders))
	for _, p := range knownProviders {
		set[p] = true
	}
	return &Manager{repo: r, engine: e, newJob: newJob, provider: set, log: log}
}

// ParseTimeOfDay parses "HH:MM" with hour 0-23 and minute 0-59.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}

func (m *Manager) validate(s *models.Schedule) error {
	fields := make(map[string]string)

	if strings.TrimSpace(s.UserID) == "" {
		fields["user_id"] = "required"
	}
	if _, err := mail.ParseAddress(s.Recipient); err != nil {
		fields["email"] = "invalid email address"
	}
	if len(s.Keywords) == 0 {
		fields["keywords"] = "at least one keyword required"
	}
	for _, k := range s.Keywords {
		if strings.TrimSpace(k) == "" {
			fields["keywords"] = "keywords must be non-empty"
			break
		}
	}
	if s.Hour < 0 || s.Hour > 23 {
		fields["time"] = "hour out of range"
	}
	if s.Minute < 0 || s.Minute > 59 {
		fields["time"] = "minute out of range"
	}
	if len(s.Weekdays) == 0 {
		fields["weekdays"] = "at least one weekday required"
	}
	for _, d := range s.Weekdays {
		if d < 0 || d > 6 {
			fields["weekdays"] = "weekdays must be 0 (Mon) to 6 (Sun)"
			break
		}
	}
	if s.MaxResults <= 0 {
		fields["max_results"] = "must be positive"
	}
	if len(s.Providers) == 0 {
		fields["providers"] = "at least one provider required"
	}
	for _, p := range s.Providers {
		if !m.provider[p] {
			fields["providers"] = fmt.Sprintf("unknown provider %q", p)
			break
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Register validates and stores the schedule, replacing any existing one for
// the same user id, and registers its trigger. Returns the stored schedule
// and the next fire time. On validation failure nothing is written.
func (m *Manager) Register(ctx context.Context, s *models.Schedule) (*models.Schedule, time.Time, error) {
	if err := m.validate(s); err != nil {
		return nil, time.Time{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, err := m.repo.Upsert(ctx, s)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("store schedule: %w", err)
	}

	spec := trigger.Spec{Hour: stored.Hour, Minute: stored.Minute, Weekdays: stored.Weekdays}
	next, err := m.engine.Register(stored.JobID(), spec, m.newJob(*stored))
	if err != nil {
		// Keep store and engine consistent: back out the row we just wrote.
		if _, delErr := m.repo.Delete(ctx, stored.UserID); delErr != nil {
			m.log.Error("rollback after engine failure", "user_id", stored.UserID, "err", delErr)
		}
		return nil, time.Time{}, fmt.Errorf("register trigger: %w", err)
	}

	if n := m.countLocked(ctx); n >= 0 {
		metrics.SetSchedulesActive(n)
	}
	return stored, next, nil
}

// Get returns the descriptor for user_id, or nil when none exists.
func (m *Manager) Get(ctx context.Context, userID string) (*models.Descriptor, error) {
	s, err := m.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	return m.describe(s), nil
}

// Remove deletes the schedule and its trigger. Returns whether one existed.
func (m *Manager) Remove(ctx context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existed, err := m.repo.Delete(ctx, userID)
	if err != nil {
		return false, err
	}
	m.engine.Remove(models.JobIDFor(userID))
	if existed {
		if n := m.countLocked(ctx); n >= 0 {
			metrics.SetSchedulesActive(n)
		}
	}
	return existed, nil
}

// Pause suspends firing without losing the definition. Returns false when no
// schedule exists for user_id.
func (m *Manager) Pause(ctx context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existed, err := m.repo.SetPaused(ctx, userID, true)
	if err != nil {
		return false, err
	}
	if existed {
		m.engine.Pause(models.JobIDFor(userID))
	}
	return existed, nil
}

// Resume restores firing at the next nominal occurrence. Returns false when
// no schedule exists for user_id.
func (m *Manager) Resume(ctx context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existed, err := m.repo.SetPaused(ctx, userID, false)
	if err != nil {
		return false, err
	}
	if existed {
		m.engine.Resume(models.JobIDFor(userID))
	}
	return existed, nil
}

// List returns a descriptor for every registered schedule. Operator-facing;
// callers must gate access.
func (m *Manager) List(ctx context.Context) ([]models.Descriptor, error) {
	list, err := m.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Descriptor, 0, len(list))
	for i := range list {
		out = append(out, *m.describe(&list[i]))
	}
	return out, nil
}

// Rehydrate loads every stored schedule into the engine. Called once at
// startup: the store is the source of truth after a restart.
func (m *Manager) Rehydrate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list, err := m.repo.List(ctx)
	if err != nil {
		return err
	}
	for i := range list {
		s := list[i]
		spec := trigger.Spec{Hour: s.Hour, Minute: s.Minute, Weekdays: s.Weekdays}
		if _, err := m.engine.Register(s.JobID(), spec, m.newJob(s)); err != nil {
			m.log.Error("rehydrate schedule", "user_id", s.UserID, "err", err)
			continue
		}
		if s.Paused {
			m.engine.Pause(s.JobID())
		}
	}
	metrics.SetSchedulesActive(len(list))
	m.log.Info("schedules rehydrated", "count", len(list))
	return nil
}

func (m *Manager) describe(s *models.Schedule) *models.Descriptor {
	d := &models.Descriptor{
		JobID:    s.JobID(),
		UserID:   s.UserID,
		Paused:   s.Paused,
		Keywords: s.Keywords,
		Email:    s.Recipient,
	}
	if info, ok := m.engine.Info(s.JobID()); ok {
		d.Trigger = info.Trigger
		if !info.Paused && !info.Next.IsZero() {
			next := info.Next
			d.NextRun = &next
		}
	} else {
		// Engine not yet hydrated for this row; derive from the stored spec
		// in the engine's zone so the rendering matches post-hydration output.
		spec := trigger.Spec{Hour: s.Hour, Minute: s.Minute, Weekdays: s.Weekdays,
			Location: m.engine.Location()}
		d.Trigger = spec.String()
		if !s.Paused {
			next := spec.Next(time.Now())
			d.NextRun = &next
		}
	}
	return d
}

func (m *Manager) countLocked(ctx context.Context) int {
	n, err := m.repo.Count(ctx)
	if err != nil {
		return -1
	}
	return n
}
