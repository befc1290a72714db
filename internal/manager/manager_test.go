package manager

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/workfree/search-briefing/internal/models"
	"github.com/workfree/search-briefing/internal/repo"
	"github.com/workfree/search-briefing/internal/trigger"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T) (*Manager, sqlmock.Sqlmock, *trigger.Engine) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	engine := trigger.NewEngine(time.UTC, time.Second, discardLogger())
	factory := func(models.Schedule) trigger.Callback {
		return func(context.Context) error { return nil }
	}
	m := New(repo.NewScheduleRepo(db), engine, factory, []string{"google", "naver", "demo"}, discardLogger())
	return m, mock, engine
}

func validSchedule() *models.Schedule {
	return &models.Schedule{
		UserID:     "alice",
		Recipient:  "alice@example.com",
		Keywords:   []string{"golang"},
		Hour:       9,
		Minute:     0,
		Weekdays:   []int{0, 2, 4},
		MaxResults: 5,
		Providers:  []string{"google"},
	}
}

func storedRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"user_id", "recipient", "keywords", "hour", "minute",
		"weekdays", "max_results", "providers", "paused", "created_at", "updated_at",
	}).AddRow("alice", "alice@example.com", "{golang}", 9, 0,
		"{0,2,4}", 5, "{google}", false, now, now)
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{"09:00", 9, 0, false},
		{"23:59", 23, 59, false},
		{"0:5", 0, 5, false},
		{" 07:30 ", 7, 30, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"noonish", 0, 0, true},
		{"12", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tt := range tests {
		h, m, err := ParseTimeOfDay(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q): %v", tt.in, err)
			continue
		}
		if h != tt.hour || m != tt.minute {
			t.Errorf("ParseTimeOfDay(%q) = %d:%d, want %d:%d", tt.in, h, m, tt.hour, tt.minute)
		}
	}
}

func TestManager_Register_Validation(t *testing.T) {
	m, _, _ := newTestManager(t)

	tests := []struct {
		name   string
		mutate func(*models.Schedule)
		field  string
	}{
		{"missing_user", func(s *models.Schedule) { s.UserID = " " }, "user_id"},
		{"bad_email", func(s *models.Schedule) { s.Recipient = "not-an-email" }, "email"},
		{"no_keywords", func(s *models.Schedule) { s.Keywords = nil }, "keywords"},
		{"blank_keyword", func(s *models.Schedule) { s.Keywords = []string{"ok", " "} }, "keywords"},
		{"bad_hour", func(s *models.Schedule) { s.Hour = 24 }, "time"},
		{"no_weekdays", func(s *models.Schedule) { s.Weekdays = nil }, "weekdays"},
		{"weekday_out_of_range", func(s *models.Schedule) { s.Weekdays = []int{7} }, "weekdays"},
		{"zero_max_results", func(s *models.Schedule) { s.MaxResults = 0 }, "max_results"},
		{"unknown_provider", func(s *models.Schedule) { s.Providers = []string{"altavista"} }, "providers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSchedule()
			tt.mutate(s)
			_, _, err := m.Register(context.Background(), s)
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if _, present := verr.Fields[tt.field]; !present {
				t.Errorf("expected field %q in %v", tt.field, verr.Fields)
			}
		})
	}
}

func TestManager_Register(t *testing.T) {
	m, mock, engine := newTestManager(t)

	mock.ExpectQuery(`INSERT INTO schedules`).WillReturnRows(storedRows(time.Now()))
	mock.ExpectQuery(`SELECT COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	stored, next, err := m.Register(context.Background(), validSchedule())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if stored.JobID() != "briefing_alice" {
		t.Errorf("JobID = %q", stored.JobID())
	}
	if next.IsZero() {
		t.Error("expected a next fire time")
	}
	if _, ok := engine.Info("briefing_alice"); !ok {
		t.Error("engine has no job after Register")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestManager_Register_ReplacesExisting(t *testing.T) {
	m, mock, engine := newTestManager(t)

	for i := 0; i < 2; i++ {
		mock.ExpectQuery(`INSERT INTO schedules`).WillReturnRows(storedRows(time.Now()))
		mock.ExpectQuery(`SELECT COUNT`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	}

	if _, _, err := m.Register(context.Background(), validSchedule()); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, _, err := m.Register(context.Background(), validSchedule()); err != nil {
		t.Fatalf("second Register: %v", err)
	}

	// Re-registering the same user never leaves two triggers behind.
	if got := len(engine.Snapshot()); got != 1 {
		t.Errorf("expected 1 engine job, got %d", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestManager_Remove_NotFound(t *testing.T) {
	m, mock, _ := newTestManager(t)

	mock.ExpectExec(`DELETE FROM schedules`).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	existed, err := m.Remove(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if existed {
		t.Error("expected existed=false for unknown user")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestManager_Remove(t *testing.T) {
	m, mock, engine := newTestManager(t)

	mock.ExpectQuery(`INSERT INTO schedules`).WillReturnRows(storedRows(time.Now()))
	mock.ExpectQuery(`SELECT COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`DELETE FROM schedules`).
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	if _, _, err := m.Register(context.Background(), validSchedule()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	existed, err := m.Remove(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !existed {
		t.Error("expected existed=true")
	}
	if _, ok := engine.Info("briefing_alice"); ok {
		t.Error("engine job must be gone after Remove")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestManager_PauseResume(t *testing.T) {
	m, mock, engine := newTestManager(t)

	mock.ExpectQuery(`INSERT INTO schedules`).WillReturnRows(storedRows(time.Now()))
	mock.ExpectQuery(`SELECT COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`UPDATE schedules SET paused`).
		WithArgs(true, "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE schedules SET paused`).
		WithArgs(false, "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if _, _, err := m.Register(context.Background(), validSchedule()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	existed, err := m.Pause(context.Background(), "alice")
	if err != nil || !existed {
		t.Fatalf("Pause = (%v, %v)", existed, err)
	}
	info, _ := engine.Info("briefing_alice")
	if !info.Paused {
		t.Error("engine job must be paused")
	}

	existed, err = m.Resume(context.Background(), "alice")
	if err != nil || !existed {
		t.Fatalf("Resume = (%v, %v)", existed, err)
	}
	info, _ = engine.Info("briefing_alice")
	if info.Paused {
		t.Error("engine job must be active after Resume")
	}
	if info.Next.IsZero() {
		t.Error("resumed job must have a next fire time")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestManager_Get_NotFound(t *testing.T) {
	m, mock, _ := newTestManager(t)

	mock.ExpectQuery(`SELECT user_id, recipient, keywords`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{
			"user_id", "recipient", "keywords", "hour", "minute",
			"weekdays", "max_results", "providers", "paused", "created_at", "updated_at",
		}))

	d, err := m.Get(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d != nil {
		t.Errorf("expected nil descriptor, got %+v", d)
	}
}

func TestManager_Rehydrate(t *testing.T) {
	m, mock, engine := newTestManager(t)

	now := time.Now()
	rows := storedRows(now).
		AddRow("bob", "bob@example.com", "{news}", 18, 30,
			"{5,6}", 10, "{google}", true, now, now)
	mock.ExpectQuery(`SELECT user_id, recipient, keywords`).WillReturnRows(rows)

	if err := m.Rehydrate(context.Background()); err != nil {
		t.Fatalf("Rehydrate: %v", err)
	}

	if _, ok := engine.Info("briefing_alice"); !ok {
		t.Error("active schedule missing from engine")
	}
	info, ok := engine.Info("briefing_bob")
	if !ok {
		t.Fatal("paused schedule missing from engine")
	}
	if !info.Paused {
		t.Error("paused schedule must rehydrate paused")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestManager_Get_FallbackUsesEngineZone(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	seoul, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	engine := trigger.NewEngine(seoul, time.Second, discardLogger())
	factory := func(models.Schedule) trigger.Callback {
		return func(context.Context) error { return nil }
	}
	m := New(repo.NewScheduleRepo(db), engine, factory, []string{"google"}, discardLogger())

	// Row exists in the store but was never registered with the engine.
	mock.ExpectQuery(`SELECT user_id, recipient, keywords`).
		WithArgs("alice").
		WillReturnRows(storedRows(time.Now()))

	d, err := m.Get(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d == nil {
		t.Fatal("expected a descriptor")
	}
	if !strings.Contains(d.Trigger, "(Asia/Seoul)") {
		t.Errorf("fallback trigger = %q, want the engine zone", d.Trigger)
	}
	if d.NextRun == nil {
		t.Error("active fallback row must report next_run")
	}
}
