package models

import "testing"

func TestSchedule_JobID(t *testing.T) {
	s := Schedule{UserID: "alice"}
	if got := s.JobID(); got != "briefing_alice" {
		t.Errorf("JobID = %q", got)
	}
}

func TestSchedule_TimeOfDay(t *testing.T) {
	s := Schedule{Hour: 9, Minute: 5}
	if got := s.TimeOfDay(); got != "09:05" {
		t.Errorf("TimeOfDay = %q", got)
	}
}

func TestSearchResult_Truncate(t *testing.T) {
	long := make([]rune, MaxDescriptionLen+50)
	for i := range long {
		long[i] = '가'
	}
	r := SearchResult{Description: string(long)}
	r.Truncate()
	if got := len([]rune(r.Description)); got != MaxDescriptionLen {
		t.Errorf("truncated length = %d, want %d", got, MaxDescriptionLen)
	}

	r = SearchResult{Description: "short"}
	r.Truncate()
	if r.Description != "short" {
		t.Errorf("short description must be untouched, got %q", r.Description)
	}
}

func TestJobIDFor_MatchesScheduleJobID(t *testing.T) {
	s := Schedule{UserID: "bob"}
	if JobIDFor("bob") != s.JobID() {
		t.Errorf("JobIDFor = %q, schedule JobID = %q", JobIDFor("bob"), s.JobID())
	}
}
